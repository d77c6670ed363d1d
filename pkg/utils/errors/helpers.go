package errors

import stderrors "errors"

// FromError converts any error to Errno.
// If err wraps an Errno it is returned as is, otherwise err becomes the
// cause of ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode checks if err wraps an Errno with the given code.
func IsCode(err error, code int) bool {
	var e *Errno
	return stderrors.As(err, &e) && e.Code == code
}

// GetCode returns the error code from an error, or -1.
func GetCode(err error) int {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code
	}
	return -1
}
