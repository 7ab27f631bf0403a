// internal/core/errors.go
package core

import "fmt"

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

// Predefined errors
var (
	// Fetch errors, always recovered into per-code result entries
	ErrInvalidCode       = &Error{Code: "INVALID_CODE", Message: "invalid security code"}
	ErrHTTPStatus        = &Error{Code: "HTTP_STATUS", Message: "upstream returned non-OK status"}
	ErrEmptyPayload      = &Error{Code: "EMPTY_PAYLOAD", Message: "upstream returned empty payload"}
	ErrParseFailed       = &Error{Code: "PARSE_FAILED", Message: "unparseable upstream payload"}
	ErrNoMatch           = &Error{Code: "NO_MATCH", Message: "no snapshot row matches code"}
	ErrSourceUnavailable = &Error{Code: "SOURCE_UNAVAILABLE", Message: "data source not configured"}
	ErrSourceFailed      = &Error{Code: "SOURCE_FAILED", Message: "data source request failed"}

	// Calculation errors
	ErrInvalidValue = &Error{Code: "INVALID_VALUE", Message: "value is not a finite non-negative number"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Protocol errors
	ErrUnknownCommand = &Error{Code: "UNKNOWN_COMMAND", Message: "unknown command"}
	ErrBadFrame       = &Error{Code: "BAD_FRAME", Message: "malformed protocol frame"}
)
