package errors

import (
	"fmt"
	"net/http"
)

func validateCodeParams(service, category, sequence int) {
	if service < 0 || service > 99 {
		panic(fmt.Sprintf("errors: service code must be 0-99, got %d", service))
	}
	if category < 0 || category > 99 {
		panic(fmt.Sprintf("errors: category code must be 0-99, got %d", category))
	}
	if sequence < 0 || sequence > 999 {
		panic(fmt.Sprintf("errors: sequence must be 0-999, got %d", sequence))
	}
}

// NewError creates and registers a new Errno.
// Panics if the code is taken or messageEN is empty.
func NewError(service, category, sequence, httpStatus int, messageEN, messageZH string) *Errno {
	validateCodeParams(service, category, sequence)
	if messageEN == "" {
		panic("errors: english message is required")
	}

	return Register(&Errno{
		Code:      MakeCode(service, category, sequence),
		HTTP:      httpStatus,
		MessageEN: messageEN,
		MessageZH: messageZH,
	})
}

// NewRequestErr creates and registers a request/validation error (HTTP 400).
//
//	var ErrInvalidISBN = errors.NewRequestErr(errors.ServiceLibrary, 1,
//	    "Invalid ISBN", "ISBN 无效")
func NewRequestErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryRequest, sequence, http.StatusBadRequest, en, zh)
}

// NewAuthErr creates and registers an authentication error (HTTP 401).
func NewAuthErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryAuth, sequence, http.StatusUnauthorized, en, zh)
}

// NewPermissionErr creates and registers an authorization error (HTTP 403).
func NewPermissionErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryPermission, sequence, http.StatusForbidden, en, zh)
}

// NewNotFoundErr creates and registers a not found error (HTTP 404).
func NewNotFoundErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryResource, sequence, http.StatusNotFound, en, zh)
}

// NewConflictErr creates and registers a conflict error (HTTP 409).
func NewConflictErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryConflict, sequence, http.StatusConflict, en, zh)
}

// NewInternalErr creates and registers an internal error (HTTP 500).
func NewInternalErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryInternal, sequence, http.StatusInternalServerError, en, zh)
}

// NewDatabaseErr creates and registers a database error (HTTP 500).
func NewDatabaseErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryDatabase, sequence, http.StatusInternalServerError, en, zh)
}

// NewCacheErr creates and registers a cache error (HTTP 500).
func NewCacheErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryCache, sequence, http.StatusInternalServerError, en, zh)
}

// NewNetworkErr creates and registers a network error (HTTP 503).
func NewNetworkErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryNetwork, sequence, http.StatusServiceUnavailable, en, zh)
}
