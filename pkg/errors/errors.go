package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("code=%d, kind=%s, message=%s", e.Code, e.Kind, e.Message)
}

// Is matches wrapped or detailed errors against the sentinels below by kind,
// so errors.Is(err, ErrNotFound) works for errors built with the *f helpers.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Kind == appErr.Kind
	}
	return false
}

// Error kinds used across the automation core
const (
	KindNotFound          = "not_found"
	KindUnsupportedAction = "unsupported_action"
	KindInvalidPayload    = "invalid_payload"
	KindInvalidArgument   = "invalid_argument"
	KindInternal          = "internal"
)

// Common errors
var (
	ErrNotFound          = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnsupportedAction = &AppError{Code: http.StatusBadRequest, Kind: KindUnsupportedAction, Message: "Action not supported by device"}
	ErrInvalidPayload    = &AppError{Code: http.StatusBadRequest, Kind: KindInvalidPayload, Message: "Invalid action payload"}
	ErrInvalidArgument   = &AppError{Code: http.StatusBadRequest, Kind: KindInvalidArgument, Message: "Invalid argument"}
	ErrInternalServer    = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
)

// New creates a new AppError
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// WithDetails returns a copy of err carrying extra detail text
func WithDetails(err *AppError, details string) *AppError {
	return &AppError{
		Code:    err.Code,
		Kind:    err.Kind,
		Message: err.Message,
		Details: details,
	}
}

// NotFoundf builds a NotFound error for a specific resource
func NotFoundf(format string, args ...interface{}) *AppError {
	return WithDetails(ErrNotFound, fmt.Sprintf(format, args...))
}

// UnsupportedActionf builds an UnsupportedAction error with detail
func UnsupportedActionf(format string, args ...interface{}) *AppError {
	return WithDetails(ErrUnsupportedAction, fmt.Sprintf(format, args...))
}

// InvalidPayloadf builds an InvalidPayload error with detail
func InvalidPayloadf(format string, args ...interface{}) *AppError {
	return WithDetails(ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// InvalidArgumentf builds an InvalidArgument error with detail
func InvalidArgumentf(format string, args ...interface{}) *AppError {
	return WithDetails(ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetStatusCode returns the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
