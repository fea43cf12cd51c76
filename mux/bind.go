package mux

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Sentinel errors returned by BindJSON, for use with errors.Is.
var (
	ErrEmptyBody     = errors.New("request body is empty")
	ErrMalformedJSON = errors.New("request body is not valid JSON")
	ErrUnknownField  = errors.New("request body has an unknown field")
	ErrTrailingData  = errors.New("unexpected trailing data after JSON value")
)

// BindError describes a request body that could not be bound.
type BindError struct {
	// Field is the offending JSON field, if known.
	Field string
	// Offset is the byte offset of the failure, if known.
	Offset int64
	Cause  error

	kind error
}

func (e *BindError) Error() string {
	msg := e.kind.Error()
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Cause != nil && e.Cause != e.kind {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BindError) Unwrap() error { return e.Cause }

func (e *BindError) Is(target error) bool { return target == e.kind }

// BindJSON decodes the request body as JSON into v.
// By default the decoder rejects unknown fields that do not map to exported
// struct fields. Pass true to allow unknown fields.
// Exactly one JSON value must be present in the body.
//
// Decoding failures are returned as *BindError. A body cut short by
// http.MaxBytesReader is returned as the *http.MaxBytesError itself.
func BindJSON(r *http.Request, v any, allowUnknownFields ...bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		return &BindError{kind: ErrEmptyBody}
	}

	dec := json.NewDecoder(r.Body)
	if len(allowUnknownFields) == 0 || !allowUnknownFields[0] {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return bindError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return maxErr
		}
		return &BindError{Offset: dec.InputOffset(), kind: ErrTrailingData}
	}

	return nil
}

func bindError(err error) error {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &maxErr):
		return maxErr
	case errors.Is(err, io.EOF):
		return &BindError{kind: ErrEmptyBody}
	case errors.As(err, &syntaxErr):
		return &BindError{Offset: syntaxErr.Offset, Cause: err, kind: ErrMalformedJSON}
	case errors.As(err, &typeErr):
		return &BindError{Field: typeErr.Field, Offset: typeErr.Offset, Cause: err, kind: ErrMalformedJSON}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return &BindError{Field: field, kind: ErrUnknownField}
	}

	return &BindError{Cause: err, kind: ErrMalformedJSON}
}
