// internal/core/errors_test.go
package core

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrNoMatch, ErrNoMatch) {
		t.Error("same error should match")
	}
	if errors.Is(ErrNoMatch, ErrInvalidCode) {
		t.Error("different codes should not match")
	}
}

func TestError_Is_WrappedKeepsCode(t *testing.T) {
	wrapped := WrapError(ErrHTTPStatus, errors.New("status 500"))
	if !errors.Is(wrapped, ErrHTTPStatus) {
		t.Error("wrapped error should match its base by code")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrSourceFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrSourceFailed.Code {
		t.Error("code not preserved")
	}
}
