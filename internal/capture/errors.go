package capture

import (
	"errors"
	"fmt"
)

// Error represents a failure to obtain a capture device listing.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	ErrCodeToolNotFound  = "TOOL_NOT_FOUND"
	ErrCodeCommandFailed = "COMMAND_FAILED"
	ErrCodeEmptyOutput   = "EMPTY_OUTPUT"
	ErrCodeParseFailed   = "PARSE_FAILED"
)

func newError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err is a capture *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
