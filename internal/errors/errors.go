// Package errors defines the JSON error envelope returned by the dashboard
// API and the helpers that write it.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
	CodeLoad           ErrorCode = "DATA_LOAD_ERROR"
)

// statusByCode is the HTTP status for each code. Unlisted codes are 500.
var statusByCode = map[ErrorCode]int{
	CodeValidation:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeRateLimit:      http.StatusTooManyRequests,
	CodeServiceUnavail: http.StatusServiceUnavailable,
	CodeLoad:           http.StatusServiceUnavailable,
}

func statusFor(code ErrorCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError is a client-facing failure. Message is safe to show to users;
// Cause stays server side and only reaches the logs.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(code ErrorCode, message string) *AppError {
	return Wrap(nil, code, message)
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusFor(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError { return New(CodeInternal, message) }
func InternalWrap(err error, message string) *AppError { return Wrap(err, CodeInternal, message) }

func Validation(message string) *AppError { return New(CodeValidation, message) }
func ValidationWrap(err error, message string) *AppError { return Wrap(err, CodeValidation, message) }

// NotFoundWrap reports a path segment that names no known dimension,
// entity or aggregation.
func NotFoundWrap(err error, message string) *AppError { return Wrap(err, CodeNotFound, message) }

func RateLimit(message string) *AppError { return New(CodeRateLimit, message) }
func ServiceUnavailable(message string) *AppError { return New(CodeServiceUnavail, message) }

// LoadWrap reports a dataset that could not be read or parsed. Details
// carries the cause so the operator sees which line or column failed.
func LoadWrap(err error, message string) *AppError {
	e := Wrap(err, CodeLoad, message)
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// WriteError sends err as an ErrorResponse. Errors that are not an AppError
// anywhere in their chain become a generic 500 so internals never leak.
// Client errors log at warn, server errors at error.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}
	appErr.RequestID = requestID

	attrs := []any{
		"error_code", appErr.Code,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
	}

	if encodeErr := writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.Error("failed to encode error response", append(attrs, "encode_error", encodeErr, "cause", err)...)
		return
	}

	attrs = append(attrs, "error_message", appErr.Message, "cause", appErr.Cause)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		return
	}
	logger.Warn("request failed", attrs...)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	_ = writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true})
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
