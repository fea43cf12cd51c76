package mux

import (
	"bytes"
	"encoding/json"
	"net/http"

	"gopkg.in/yaml.v3"
)

// ResponseJSON encodes v as JSON and writes it to the response with the given
// status code. The Content-Type header is set to "application/json".
// If encoding fails, an HTTP 500 Internal Server Error is written instead.
func ResponseJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

// ResponseYAML encodes v as YAML and writes it to the response with the given
// status code. Values are first encoded as JSON so that json struct tags and
// custom marshalers decide the field names. The Content-Type header is set
// to "application/yaml".
// If encoding fails, an HTTP 500 Internal Server Error is written instead.
func ResponseYAML(w http.ResponseWriter, code int, v any) {
	data, err := MarshalYAML(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(code)
	w.Write(data)
}

// MarshalYAML encodes v as YAML through its JSON representation, keeping
// key order as a yaml.Node tree.
func MarshalYAML(v any) ([]byte, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(jsonData, &node); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
