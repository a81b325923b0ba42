// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Parse, lookup and upstream failures are surfaced to callers as *AppError with a stable Code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal          = "INTERNAL_ERROR"
	CodeDatabase          = "DATABASE_ERROR"
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeUpstream          = "UPSTREAM_ERROR"

	// Validation errors (400)
	CodeValidation          = "VALIDATION_ERROR"
	CodeMalformedIdentifier = "MALFORMED_IDENTIFIER"
	CodeInvalidAccessKey    = "INVALID_ACCESS_KEY"

	// Structurally invalid input data (422)
	CodeMalformedSource = "MALFORMED_SOURCE"

	// Not found (404)
	CodeNotFound          = "NOT_FOUND"
	CodeUnknownUniversity = "UNKNOWN_UNIVERSITY"
)

// AppError is the standard error type for the module.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (raw identifier, file path, missing columns)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMalformedIdentifier is returned when an organization identifier does not
// split into exactly six dash-separated segments.
func NewMalformedIdentifier(raw string, segments int) *AppError {
	return &AppError{
		Code:       CodeMalformedIdentifier,
		Message:    fmt.Sprintf("organization identifier %q has %d segments, want 6", raw, segments),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"raw": raw, "segments": segments},
	}
}

// NewSourceUnavailable is returned when a directory source cannot be read at all.
func NewSourceUnavailable(source string, err error) *AppError {
	return &AppError{
		Code:       CodeSourceUnavailable,
		Message:    fmt.Sprintf("directory source %s is unavailable", source),
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"source": source},
		Err:        err,
	}
}

// NewMalformedSource is returned when a directory source is readable but
// structurally invalid (too few lines, required columns missing).
func NewMalformedSource(source, reason string) *AppError {
	return &AppError{
		Code:       CodeMalformedSource,
		Message:    fmt.Sprintf("directory source %s is malformed: %s", source, reason),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"source": source, "reason": reason},
	}
}

// NewUnknownUniversity is returned when a requested university name has no match.
func NewUnknownUniversity(name string) *AppError {
	return &AppError{
		Code:       CodeUnknownUniversity,
		Message:    fmt.Sprintf("university %s is not registered", name),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"name": name},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInvalidAccessKey is returned before any request is sent with a bad key.
func NewInvalidAccessKey(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidAccessKey,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUpstream wraps a failed or rejected Portraits API call.
func NewUpstream(endpoint, message string) *AppError {
	return &AppError{
		Code:       CodeUpstream,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"endpoint": endpoint},
	}
}

// NewDatabase wraps a storage failure.
func NewDatabase(op string, err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    fmt.Sprintf("database operation %s failed", op),
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInternal creates an internal error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsMalformedIdentifier checks if error is CodeMalformedIdentifier
func IsMalformedIdentifier(err error) bool { return HasCode(err, CodeMalformedIdentifier) }

// IsSourceUnavailable checks if error is CodeSourceUnavailable
func IsSourceUnavailable(err error) bool { return HasCode(err, CodeSourceUnavailable) }

// IsMalformedSource checks if error is CodeMalformedSource
func IsMalformedSource(err error) bool { return HasCode(err, CodeMalformedSource) }

// IsUnknownUniversity checks if error is CodeUnknownUniversity
func IsUnknownUniversity(err error) bool { return HasCode(err, CodeUnknownUniversity) }

// IsUpstream checks if error is CodeUpstream
func IsUpstream(err error) bool { return HasCode(err, CodeUpstream) }
