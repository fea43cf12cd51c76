package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnsupportedContentType is returned when a request body declares a
	// media type that cannot be validated.
	ErrUnsupportedContentType = errors.New("validation of content type not supported")

	// ErrInvalidParameter is returned for parameters that cannot be placed
	// in the request schema.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrRequestValidation is returned when a request does not satisfy the
	// request schema.
	ErrRequestValidation = errors.New("request validation failed")

	// ErrInvalidBody is returned when the request body cannot be decoded.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrBodyTooLarge is returned when reading the request body hits the
	// limit set with http.MaxBytesReader.
	ErrBodyTooLarge = errors.New("request body too large")
)

// BodyTooLargeError reports the body limit that was exceeded.
type BodyTooLargeError struct {
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("%s: limit is %d bytes", ErrBodyTooLarge, e.Limit)
}

// Is reports whether target is ErrBodyTooLarge.
func (e *BodyTooLargeError) Is(target error) bool {
	return target == ErrBodyTooLarge
}

// StatusCode returns 413.
func (e *BodyTooLargeError) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}

// UnsupportedContentTypeError names the media type that was rejected.
type UnsupportedContentTypeError struct {
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return ErrUnsupportedContentType.Error() + ": " + e.ContentType
}

// Is reports whether target is ErrUnsupportedContentType.
func (e *UnsupportedContentTypeError) Is(target error) bool {
	return target == ErrUnsupportedContentType
}

// Error describes one failed constraint.
type Error struct {
	// InstancePath is a JSON pointer into the request object, such as
	// "/headers" or "/body/hello".
	InstancePath string `json:"instancePath"`

	// Keyword is the schema keyword that failed.
	Keyword string `json:"keyword"`

	// Params carries keyword specific details, such as missingProperty
	// for required.
	Params map[string]any `json:"params,omitempty"`

	Message string `json:"message"`
}

func (e Error) String() string {
	path := e.InstancePath
	if path == "" {
		path = "/"
	}
	return path + ": " + e.Message
}

// RequestValidationError carries every failed constraint of a request and
// the schema it was validated against.
type RequestValidationError struct {
	Errors []Error
	Schema map[string]any
}

func (e *RequestValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrRequestValidation.Error()
	}

	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.String())
	}
	return fmt.Sprintf("%s: %s", ErrRequestValidation, strings.Join(parts, "; "))
}

// Is reports whether target is ErrRequestValidation.
func (e *RequestValidationError) Is(target error) bool {
	return target == ErrRequestValidation
}

// StatusCode returns the HTTP status for a failed request.
func (e *RequestValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// StatusCode returns the HTTP status code for err: the code reported by
// the error itself, or 500.
func StatusCode(err error) int {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}
	return http.StatusInternalServerError
}
