// Package action holds the pieces shared by the portal modules: payload
// checks before sending and workflow calls whose reply is only a message.
package action

import (
	"context"
	"net/http"

	"github.com/kart-io/campus-portal/pkg/client/resource"
	"github.com/kart-io/campus-portal/pkg/client/rest"
	"github.com/kart-io/campus-portal/pkg/validator"
)

// Validate checks v against its validate tags. A failure is returned as a
// 422 *rest.APIError carrying one field error per failed check, the same
// shape the server uses.
func Validate(v interface{}) error {
	errs := validator.Global().ValidateWithLang(v, validator.LangEN)
	if !errs.HasErrors() {
		return nil
	}
	return rest.NewAPIError(http.StatusUnprocessableEntity, errs.First(), errs.FieldErrors(), errs)
}

// Var checks a single value, reporting failures under field.
func Var(field string, value interface{}, tag string) error {
	if err := validator.Global().Var(value, tag); err != nil {
		verr := validator.NewValidationError(field, tag, field+" is invalid")
		return rest.NewAPIError(http.StatusUnprocessableEntity, verr.First(), verr.FieldErrors(), err)
	}
	return nil
}

// Reject reports a failed client-side check on field.
func Reject(field, message string) error {
	verr := validator.NewValidationError(field, "invalid", message)
	return rest.NewAPIError(http.StatusUnprocessableEntity, message, verr.FieldErrors(), verr)
}

// Run sends a request whose response carries at most a message. The
// message falls back to fallback when the server sends none.
func Run(ctx context.Context, t *rest.Client, method, path string, body interface{}, fallback string) (*resource.Message, error) {
	resp, err := t.Do(ctx, method, path, nil, rest.BodyOf(body))
	if err != nil {
		return nil, err
	}
	return resource.MessageOf(resp, fallback), nil
}
