package validator

import (
	"strings"

	"github.com/kart-io/campus-portal/pkg/utils/response"
)

// ValidationErrors is a list of failed field checks.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("validation failed: ")
	for i, fe := range v.Errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fe.Message)
	}
	return sb.String()
}

// HasErrors reports whether any check failed.
func (v *ValidationErrors) HasErrors() bool {
	return v != nil && len(v.Errors) > 0
}

// First returns the first message.
func (v *ValidationErrors) First() string {
	if !v.HasErrors() {
		return ""
	}
	return v.Errors[0].Message
}

// ForField returns the messages for field.
func (v *ValidationErrors) ForField(field string) []string {
	if v == nil {
		return nil
	}
	var messages []string
	for _, fe := range v.Errors {
		if fe.Field == field {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

// FieldErrors converts to the envelope's {path, message} form.
func (v *ValidationErrors) FieldErrors() []response.FieldError {
	if v == nil {
		return nil
	}
	out := make([]response.FieldError, 0, len(v.Errors))
	for _, fe := range v.Errors {
		out = append(out, response.FieldError{Path: fe.Field, Message: fe.Message})
	}
	return out
}

// NewValidationError creates a single-entry error list.
func NewValidationError(field, tag, message string) *ValidationErrors {
	return &ValidationErrors{Errors: []FieldError{{Field: field, Tag: tag, Message: message}}}
}
