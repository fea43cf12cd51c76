package openapi

import (
	"errors"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnknownComponent is returned when a reference is requested for a
	// component that was never defined.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrComponentNotFound is returned when a component lookup by type
	// and name finds nothing.
	ErrComponentNotFound = errors.New("component does not exist")

	// ErrInvalidComponent is returned when a component definition cannot
	// be stored.
	ErrInvalidComponent = errors.New("invalid component")

	// ErrInvalidReference is returned for a $ref that does not point into
	// the components of a document.
	ErrInvalidReference = errors.New("invalid component reference")
)

// ComponentError describes a failed component operation.
type ComponentError struct {
	// Kind is the component collection, e.g. "schemas".
	Kind ComponentKind
	// Name is the component name.
	Name string
	// Ref is set when the error comes from resolving a reference.
	Ref string
	// Message adds context to the failure
	Message string
	// Cause is the underlying error, if any
	Cause error

	kind error
}

// Error returns a human-readable error message.
func (e *ComponentError) Error() string {
	msg := e.kind.Error()
	switch {
	case e.Ref != "":
		msg += ": " + e.Ref
	case e.Kind != "" || e.Name != "":
		msg += ": " + string(e.Kind) + "/" + e.Name
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ComponentError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this failure.
func (e *ComponentError) Is(target error) bool {
	return target == e.kind
}

func unknownComponent(kind ComponentKind, name string) error {
	return &ComponentError{Kind: kind, Name: name, kind: ErrUnknownComponent}
}

func componentNotFound(kind ComponentKind, name string) error {
	return &ComponentError{Kind: kind, Name: name, kind: ErrComponentNotFound}
}

func invalidComponent(kind ComponentKind, name, msg string, cause error) error {
	return &ComponentError{Kind: kind, Name: name, Message: msg, Cause: cause, kind: ErrInvalidComponent}
}

func invalidReference(ref, msg string, cause error) error {
	return &ComponentError{Ref: ref, Message: msg, Cause: cause, kind: ErrInvalidReference}
}
