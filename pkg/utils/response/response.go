// Package response defines the portal's response envelope.
//
// The backend wraps every payload in one of two shapes:
//
//	success: {"success": true,  "message": "...", "data": T | {"data": T, "pagination": {...}}, "statusCode": 200}
//	error:   {"success": false, "message": "...", "errors": [{"path": "...", "message": "..."}], "statusCode": 422}
//
// The devserver writes these types directly; the REST client decodes the
// same field names but keeps "data" raw so it can tolerate the variants.
package response

import (
	"net/http"

	"github.com/kart-io/campus-portal/pkg/utils/errors"
)

// FieldError is a single field-level error reported by the backend.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total items split by limit.
func NewPagination(total int64, page, limit int) *Pagination {
	if limit <= 0 {
		limit = 1
	}
	pages := int(total / int64(limit))
	if total%int64(limit) > 0 {
		pages++
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Response is the envelope around every backend payload.
type Response struct {
	Success    bool         `json:"success"`
	Message    string       `json:"message"`
	Data       interface{}  `json:"data,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
	StatusCode int          `json:"statusCode"`
	RequestID  string       `json:"requestId,omitempty"`
}

// PageData nests a list with its pagination, the {"data": [...], "pagination": {...}} shape.
type PageData struct {
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Success creates a 200 envelope around data.
func Success(data interface{}) *Response {
	return SuccessWithMessage("success", data)
}

// SuccessWithMessage creates a 200 envelope with a custom message.
func SuccessWithMessage(message string, data interface{}) *Response {
	return &Response{
		Success:    true,
		Message:    message,
		Data:       data,
		StatusCode: http.StatusOK,
	}
}

// Created creates a 201 envelope around data.
func Created(data interface{}) *Response {
	r := SuccessWithMessage("created", data)
	r.StatusCode = http.StatusCreated
	return r
}

// Page creates a paginated envelope: data.data holds the list.
func Page(list interface{}, total int64, page, limit int) *Response {
	return Success(&PageData{
		Data:       list,
		Pagination: NewPagination(total, page, limit),
	})
}

// Keyed creates a paginated envelope that nests the list under key
// instead of "data", e.g. {"data": {"students": [...], "pagination": {...}}}.
func Keyed(key string, list interface{}, p *Pagination) *Response {
	payload := map[string]interface{}{key: list}
	if p != nil {
		payload["pagination"] = p
	}
	return Success(payload)
}

// Err creates an error envelope from an Errno.
func Err(e *errors.Errno, fields ...FieldError) *Response {
	return ErrWithLang(e, "", fields...)
}

// ErrWithLang creates an error envelope with a language-specific message.
func ErrWithLang(e *errors.Errno, lang string, fields ...FieldError) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Success:    false,
		Message:    e.Message(lang),
		Errors:     fields,
		StatusCode: e.HTTPStatus(),
	}
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// HTTPStatus returns the status the envelope should be written with.
func (r *Response) HTTPStatus() int {
	if r.StatusCode != 0 {
		return r.StatusCode
	}
	if r.Success {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}
