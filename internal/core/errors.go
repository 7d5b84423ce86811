// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// WithMessage creates a new error with the same code but a replaced message.
// Used when the backend supplies the text the user should see.
func WithMessage(base *Error, message string) *Error {
	return &Error{
		Code:    base.Code,
		Message: message,
	}
}

// Predefined errors
var (
	// Backend errors
	ErrTransport = &Error{Code: "CONNECTION_ERROR", Message: "Connection error. Please try again."}
	ErrBackend   = &Error{Code: "BACKEND_ERROR", Message: "Failed to fetch signals"}
	ErrNoSignals = &Error{Code: "NO_SIGNALS", Message: "No signals found for the specified criteria"}
	ErrNoHistory = &Error{Code: "NO_HISTORY", Message: "No history available"}

	// Dashboard errors
	ErrStaleResponse     = &Error{Code: "STALE_RESPONSE", Message: "response superseded by a newer request"}
	ErrInvalidDateFilter = &Error{Code: "INVALID_DATE_FILTER", Message: "invalid date filter"}

	// Export errors
	ErrNothingToExport = &Error{Code: "NOTHING_TO_EXPORT", Message: "No signals to export"}
	ErrExportFailed    = &Error{Code: "EXPORT_FAILED", Message: "Failed to export signals"}
	ErrStorageFailed   = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Session errors
	ErrLoginFailed = &Error{Code: "LOGIN_FAILED", Message: "Login failed"}
	ErrNoSession   = &Error{Code: "NO_SESSION", Message: "no stored session"}

	// Local server errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}
	ErrBadRequest   = &Error{Code: "BAD_REQUEST", Message: "malformed request"}
	ErrForbidden    = &Error{Code: "FORBIDDEN", Message: "cross-site request rejected"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// UserMessage returns the text shown to the user for err.
// Structured errors surface their message; anything else is treated as a
// transport failure.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var coreErr *Error
	if errors.As(err, &coreErr) {
		return coreErr.Message
	}
	return ErrTransport.Message
}
