package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig       = "CONFIG"
	ErrAuth         = "AUTH"
	ErrUnauthorized = "UNAUTHORIZED"
	ErrRouteMissing = "ROUTE_MISSING"
	ErrServer       = "SERVER"
	ErrMalformed    = "MALFORMED"
	ErrNetwork      = "NETWORK"
	ErrChannel      = "CHANNEL"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrNetwork code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrNetwork,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Summary returns the message and cause on a single line, for status bars
// and log lines where the multi-line rendering doesn't fit.
func (e *Error) Summary() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var nxErr *Error
	if errors.As(err, &nxErr) {
		return nxErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost structured Error in err's chain,
// or an empty string when there is none.
func CodeOf(err error) string {
	var nxErr *Error
	if errors.As(err, &nxErr) {
		return nxErr.Code
	}
	return ""
}

// Summarize renders any error on one line, using Summary for structured errors.
func Summarize(err error) string {
	if err == nil {
		return ""
	}
	var nxErr *Error
	if errors.As(err, &nxErr) {
		return nxErr.Summary()
	}
	return err.Error()
}
