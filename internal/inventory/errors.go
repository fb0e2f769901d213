package inventory

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ParseError.
type ErrorKind string

// UnexpectedHeader is reported when the first line of the input is missing or
// is not Header. It is the only fatal condition of Parse.
const UnexpectedHeader ErrorKind = "UNEXPECTED_HEADER"

// ErrUnexpectedHeader matches any *ParseError of kind UnexpectedHeader with errors.Is.
var ErrUnexpectedHeader = errors.New("unexpected header")

// ParseError reports why arecord output could not be turned into an inventory.
type ParseError struct {
	Kind   ErrorKind
	Actual string // first line as read, empty when the input had no lines
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: expected %q, got %q", e.Kind, Header, e.Actual)
}

// Is lets errors.Is(err, ErrUnexpectedHeader) match.
func (e *ParseError) Is(target error) bool {
	return target == ErrUnexpectedHeader && e.Kind == UnexpectedHeader
}

func newUnexpectedHeader(actual string) *ParseError {
	return &ParseError{Kind: UnexpectedHeader, Actual: actual}
}
