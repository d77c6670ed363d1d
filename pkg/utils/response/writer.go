package response

import (
	"github.com/kart-io/campus-portal/pkg/utils/errors"
)

// JSONWriter is the part of an HTTP framework context the Writer needs.
// *gin.Context satisfies it.
type JSONWriter interface {
	JSON(code int, obj interface{})
}

// Writer writes envelopes to a framework context.
type Writer struct {
	ctx       JSONWriter
	requestID string
	lang      string
}

// NewWriter creates a new response writer for the given context.
func NewWriter(ctx JSONWriter) *Writer {
	return &Writer{ctx: ctx}
}

// WithRequestID sets the request ID for responses.
func (w *Writer) WithRequestID(requestID string) *Writer {
	w.requestID = requestID
	return w
}

// WithLang sets the language for error messages.
func (w *Writer) WithLang(lang string) *Writer {
	w.lang = lang
	return w
}

// Write sends r with its own status code.
func (w *Writer) Write(r *Response) {
	if w.requestID != "" {
		r.RequestID = w.requestID
	}
	w.ctx.JSON(r.HTTPStatus(), r)
}

// OK sends a successful response with data.
func (w *Writer) OK(data interface{}) {
	w.Write(Success(data))
}

// Created sends a 201 response with data.
func (w *Writer) Created(data interface{}) {
	w.Write(Created(data))
}

// Fail sends an error envelope for e.
func (w *Writer) Fail(e *errors.Errno, fields ...FieldError) {
	w.Write(ErrWithLang(e, w.lang, fields...))
}

// FailError sends an error envelope for any error.
func (w *Writer) FailError(err error) {
	w.Fail(errors.FromError(err))
}
