// Package http exposes the ledger, budgets, goals, recurring definitions,
// reports, exchange rates and administration as a JSON API.
//
// This file holds the fluent response builder and the mapping from domain
// errors to HTTP status codes.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/report"
)

// ResponseBuilder provides a fluent API for building HTTP responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	value      any
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

// JSON sets v as the response body, encoded when written.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.value = v
	b.body = nil
	return b
}

// Body sets a raw body with its content type.
func (b *ResponseBuilder) Body(contentType string, content []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.value = nil
	b.body = content
	return b
}

// Attachment marks the body as a download named filename.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	if b.value != nil {
		encoded, err := json.Marshal(b.value)
		if err != nil {
			slog.Error("Failed to encode response", log.FieldError, err)
			b.statusCode = http.StatusInternalServerError
			encoded = []byte(`{"error":{"code":"internal_error","message":"failed to encode response"}}`)
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode != http.StatusNoContent && body != nil {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	w.WriteHeader(b.statusCode)
	if b.statusCode != http.StatusNoContent && len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, log.ErrorTypeValidation, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, log.ErrorTypeNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, log.ErrorTypeInternal, message)
}

var (
	errBadRequest      = errors.New("bad request")
	errUnauthenticated = errors.New("missing or invalid X-User-ID header")
)

var validationErrors = []error{
	core.ErrInvalid,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrFutureDate,
	core.ErrEmptyName,
	core.ErrInvalidKind,
	core.ErrInvalidFrequency,
	core.ErrCategoryKindMismatch,
}

// classify maps an error onto a status code and an error code. Unknown errors
// are internal.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, report.ErrUnknownFormat):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, log.ErrorTypeAuth
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, core.ErrNotFound), errors.Is(err, rates.ErrUnknownCurrency):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrDuplicate), errors.Is(err, core.ErrNotDue):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, rates.ErrUpstream):
		return http.StatusBadGateway, log.ErrorTypeNetwork
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, log.ErrorTypeValidation
		}
	}
	return http.StatusInternalServerError, log.ErrorTypeInternal
}

// writeError logs err and writes its JSON error response. Internal errors are
// not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err, log.FieldPath, r.URL.Path, "error_type", code)
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err, log.FieldStatusCode, status)
	}

	body := ErrorBody{Error: ErrorDetail{Code: code, Message: message, RequestID: requestID(r)}}
	NewResponse().Status(status).JSON(body).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewResponse().Status(status).JSON(v).Write(w)
}
