package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Input is the request shaped object that is validated. Header names are
// lower case. A query key given once holds a string, a repeated key holds
// a list of strings. Body is nil when the request carries no JSON body.
type Input struct {
	Headers map[string]any
	Params  map[string]any
	Query   map[string]any
	Body    any
}

// NewInput collects headers, query, params and the JSON body of r. The
// body is read fully and replaced, so handlers further down can read it
// again. A body that is not valid JSON fails with ErrInvalidBody.
func NewInput(r *http.Request, params map[string]string) (*Input, error) {
	in := &Input{
		Headers: make(map[string]any, len(r.Header)),
		Params:  make(map[string]any, len(params)),
		Query:   make(map[string]any),
	}

	for name, values := range r.Header {
		in.Headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		if _, ok := in.Headers["host"]; !ok {
			in.Headers["host"] = r.Host
		}
	}

	for name, value := range params {
		in.Params[name] = value
	}

	for name, values := range r.URL.Query() {
		if len(values) == 1 {
			in.Query[name] = values[0]
			continue
		}
		list := make([]any, 0, len(values))
		for _, v := range values {
			list = append(list, v)
		}
		in.Query[name] = list
	}

	body, err := readJSONBody(r)
	if err != nil {
		return in, err
	}
	in.Body = body

	return in, nil
}

func readJSONBody(r *http.Request) (any, error) {
	if r.Body == nil || r.Body == http.NoBody || !isJSON(r.Header.Get("Content-Type")) {
		return nil, nil
	}

	data, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &BodyTooLargeError{Limit: maxErr.Limit}
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return body, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == jsonMediaType || strings.HasSuffix(mediaType, "+json")
}

// Map returns the input as the object the request schema describes.
func (in *Input) Map() map[string]any {
	m := map[string]any{
		"headers": in.Headers,
		"params":  in.Params,
		"query":   in.Query,
	}
	if in.Body != nil {
		m["body"] = in.Body
	}
	return m
}

// Snapshot returns a deep copy of the input made through its JSON form.
func (in *Input) Snapshot() (*Input, error) {
	data, err := json.Marshal(in.Map())
	if err != nil {
		return nil, fmt.Errorf("snapshot input: %w", err)
	}

	var raw struct {
		Headers map[string]any `json:"headers"`
		Params  map[string]any `json:"params"`
		Query   map[string]any `json:"query"`
		Body    any            `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("snapshot input: %w", err)
	}

	return &Input{
		Headers: raw.Headers,
		Params:  raw.Params,
		Query:   raw.Query,
		Body:    raw.Body,
	}, nil
}

type inputKey struct{}

// WithInput returns a copy of r that carries in.
func WithInput(r *http.Request, in *Input) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), inputKey{}, in))
}

// FromRequest returns the validated input stored by a gate. With in place
// coercion its values carry the coerced types.
func FromRequest(r *http.Request) (*Input, bool) {
	in, ok := r.Context().Value(inputKey{}).(*Input)
	return in, ok
}
