package pathtpl

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern indicates a path pattern that cannot be parsed.
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrNotInvertible indicates a compiled regexp that cannot be turned back
	// into a path template. The pattern still matches requests.
	ErrNotInvertible = errors.New("path regexp is not invertible")
)

// PatternError describes a problem with a single path pattern.
type PatternError struct {
	// Pattern is the offending source pattern.
	Pattern string
	// Message describes the problem.
	Message string
	// Cause is the underlying error, if any.
	Cause error

	opaque bool
}

// Error returns a human-readable error message.
func (e *PatternError) Error() string {
	msg := "invalid path pattern"
	if e.opaque {
		msg = "path regexp is not invertible"
	}
	msg += fmt.Sprintf(" %q", e.Pattern)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *PatternError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *PatternError) Is(target error) bool {
	if e.opaque {
		return target == ErrNotInvertible
	}
	return target == ErrInvalidPattern
}

func invalidPattern(src, msg string, cause error) error {
	return &PatternError{Pattern: src, Message: msg, Cause: cause}
}

func notInvertible(src, msg string) error {
	return &PatternError{Pattern: src, Message: msg, opaque: true}
}
