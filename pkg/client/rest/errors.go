package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kart-io/campus-portal/pkg/utils/json"
	"github.com/kart-io/campus-portal/pkg/utils/response"
)

const (
	msgServerFallback = "An error occurred"
	msgNetwork        = "Network error occurred"
	msgMalformed      = "Malformed response payload"
)

// ErrMalformedPayload marks a 2xx response whose body could not be turned
// into the requested item.
var ErrMalformedPayload = errors.New("malformed response payload")

// APIError is the single error shape returned by this package.
type APIError struct {
	Message    string                `json:"message"`
	StatusCode int                   `json:"statusCode"`
	Errors     []response.FieldError `json:"errors,omitempty"`

	network bool
	cause   error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.cause
}

// IsNetwork reports whether the request never got a server response.
func (e *APIError) IsNetwork() bool {
	return e.network
}

// Field returns the first field error message for path.
func (e *APIError) Field(path string) string {
	for _, fe := range e.Errors {
		if fe.Path == path {
			return fe.Message
		}
	}
	return ""
}

// NewAPIError builds an error raised before any request was sent, such as
// a payload rejected by client-side checks.
func NewAPIError(status int, message string, fieldErrors []response.FieldError, cause error) *APIError {
	return &APIError{Message: message, StatusCode: status, Errors: fieldErrors, cause: cause}
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the status carried by err, or 0.
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

// statusError is a completed round trip with a non-2xx status.
type statusError struct {
	resp *Response
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.resp.StatusCode)
}

// errorBody is the failure envelope as sent by the backend.
type errorBody struct {
	Message string                `json:"message"`
	Errors  []response.FieldError `json:"errors"`
}

// handleError normalizes any failure into *APIError. It never returns nil.
func handleError(err error) *APIError {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr
	}

	var se *statusError
	if errors.As(err, &se) {
		out := &APIError{
			Message:    msgServerFallback,
			StatusCode: se.resp.StatusCode,
			cause:      err,
		}
		var body errorBody
		if json.Unmarshal(se.resp.Body, &body) == nil {
			if strings.TrimSpace(body.Message) != "" {
				out.Message = body.Message
			}
			out.Errors = body.Errors
		}
		return out
	}

	return &APIError{
		Message:    msgNetwork,
		StatusCode: 500,
		network:    true,
		cause:      err,
	}
}

func malformed(status int, cause error) *APIError {
	return &APIError{
		Message:    msgMalformed,
		StatusCode: 500,
		cause:      fmt.Errorf("%w (status %d): %v", ErrMalformedPayload, status, cause),
	}
}
