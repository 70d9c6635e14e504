// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for JSON and plain-text responses
// and the mapping from ledger errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"voicebook/internal/capture"
	"voicebook/internal/core"
	applog "voicebook/internal/log"
)

// User-facing messages for the common rejections.
const (
	MsgMissingAmount = "請輸入金額"
	MsgCaptureEmpty  = "未聽到有效內容，請再試一次。"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v, encoded, as the body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":"encode response"}`)
	}
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body = data
	return b
}

// Text sets a plain-text body.
func (b *ResponseBuilder) Text(s string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/plain; charset=utf-8"
	b.body = []byte(s)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// bodyError maps a request body read or decode failure: 413 when the body
// exceeded its limit, 400 otherwise.
func bodyError(err error) *ResponseBuilder {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return BadRequestError("invalid request body")
}

// serviceError maps an error returned by the ledger service to a response.
// Unknown errors are logged and hidden behind a 500.
func serviceError(r *http.Request, err error) *ResponseBuilder {
	switch {
	case errors.Is(err, core.ErrMissingAmount):
		return UnprocessableEntityError(MsgMissingAmount)
	case errors.Is(err, core.ErrBucketConflict), errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate):
		return UnprocessableEntityError(err.Error())
	case errors.Is(err, capture.ErrEmpty):
		return UnprocessableEntityError(MsgCaptureEmpty)
	case errors.Is(err, core.ErrRecordNotFound):
		return NotFoundError(err.Error())
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large")
	}

	ctx := r.Context()
	applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx,
		"Ledger operation failed", err, applog.ComponentHTTP, "",
		applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, ""))
	return InternalServerError()
}
