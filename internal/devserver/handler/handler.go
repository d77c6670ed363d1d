// Package handler holds the dev backend's gin handlers.
package handler

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/campus-portal/internal/devserver/middleware"
	"github.com/kart-io/campus-portal/pkg/utils/errors"
	"github.com/kart-io/campus-portal/pkg/utils/json"
	"github.com/kart-io/campus-portal/pkg/utils/response"
	"github.com/kart-io/campus-portal/pkg/validator"
)

func lang(c *gin.Context) string {
	if strings.HasPrefix(strings.ToLower(c.GetHeader("Accept-Language")), validator.LangZH) {
		return validator.LangZH
	}
	return validator.LangEN
}

func writer(c *gin.Context) *response.Writer {
	return response.NewWriter(c).WithRequestID(c.GetString(middleware.KeyRequestID)).WithLang(lang(c))
}

// fail writes err as an error envelope. Validation failures become 422
// with one entry per field.
func fail(c *gin.Context, err error) {
	var verrs *validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		writer(c).Fail(errors.ErrValidationFailed.WithMessage(verrs.First()), verrs.FieldErrors()...)
		return
	}

	e := errors.FromError(err)
	if errors.IsServerError(e.Code) {
		logger.Errorw("Request failed",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(middleware.KeyRequestID),
			"error", err.Error(),
		)
	}
	writer(c).Fail(e)
}

// message writes a success envelope with a message and no data.
func message(c *gin.Context, msg string) {
	writer(c).Write(response.SuccessWithMessage(msg, nil))
}

// bind decodes the JSON body into v and runs its validate tags.
func bind(c *gin.Context, v interface{}) error {
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		return errors.ErrBadRequest.WithMessage("Malformed JSON body").WithCause(err)
	}
	if errs := validator.StructWithLang(v, lang(c)); errs.HasErrors() {
		return errs
	}
	return nil
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.KeyUserID)
}
