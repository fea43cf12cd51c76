package validation

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/vitalvas/oasmux/openapi"
)

// jsonMediaType is the only request body media type that is validated.
const jsonMediaType = "application/json"

// Section is one of the headers, params or query objects of the request
// schema.
type Section struct {
	Properties map[string]any
	Required   []string
}

func (s *Section) add(name string, schema map[string]any, required bool) {
	if s.Properties == nil {
		s.Properties = make(map[string]any)
	}
	s.Properties[name] = schema
	if required && !slices.Contains(s.Required, name) {
		s.Required = append(s.Required, name)
	}
}

func (s *Section) schema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	required := make([]any, 0, len(s.Required))
	for _, name := range s.Required {
		required = append(required, name)
	}
	return map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

// RequestSchema describes the expected shape of a request split into
// headers, path params, query and body. All schemas are JSON Schema
// draft-07 maps.
type RequestSchema struct {
	Headers Section
	Params  Section
	Query   Section

	// Body is nil when the operation declares no JSON request body.
	Body         map[string]any
	BodyRequired bool

	// Schemas are the component schemas that references resolve against.
	Schemas map[string]any
}

// Map returns the request schema as one JSON Schema document. Component
// schemas are attached under components/schemas so that references keep
// their document form.
func (s *RequestSchema) Map() map[string]any {
	body := s.Body
	if body == nil {
		body = map[string]any{
			"type":       "object",
			"required":   []any{},
			"properties": map[string]any{},
		}
	}

	required := []any{"headers", "params", "query"}
	if s.BodyRequired {
		required = append(required, "body")
	}

	out := map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"required": required,
		"properties": map[string]any{
			"headers": s.Headers.schema(),
			"params":  s.Params.schema(),
			"query":   s.Query.schema(),
			"body":    body,
		},
	}

	if len(s.Schemas) > 0 {
		out["components"] = map[string]any{"schemas": s.Schemas}
	}

	return out
}

// Synthesize builds the request schema of op. Parameter and request body
// references are resolved against comps. Header names are lower cased.
// A request body with any media type other than application/json fails
// with ErrUnsupportedContentType.
func Synthesize(op *openapi.Operation, comps *openapi.Components) (*RequestSchema, error) {
	rs := &RequestSchema{}
	if comps != nil && len(comps.Schemas) > 0 {
		rs.Schemas = make(map[string]any, len(comps.Schemas))
		for name, schema := range comps.Schemas {
			converted, err := convertSchema(schema)
			if err != nil {
				return nil, fmt.Errorf("component schema %q: %w", name, err)
			}
			rs.Schemas[name] = converted
		}
	}

	if op == nil {
		return rs, nil
	}

	for _, p := range op.Parameters {
		param, err := resolveParameter(p, comps)
		if err != nil {
			return nil, err
		}
		if param == nil {
			continue
		}

		schema, err := convertSchema(parameterSchema(param))
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", param.Name, err)
		}

		switch param.In {
		case "path":
			rs.Params.add(param.Name, schema, param.Required)
		case "query":
			rs.Query.add(param.Name, schema, param.Required)
		case "header":
			if !httpguts.ValidHeaderFieldName(param.Name) {
				return nil, fmt.Errorf("%w: header name %q", ErrInvalidParameter, param.Name)
			}
			rs.Headers.add(strings.ToLower(param.Name), schema, param.Required)
		}
	}

	body, err := resolveRequestBody(op.RequestBody, comps)
	if err != nil {
		return nil, err
	}
	if body != nil {
		for contentType, media := range body.Content {
			if contentType != jsonMediaType {
				return nil, &UnsupportedContentTypeError{ContentType: contentType}
			}

			var schema *openapi.Schema
			if media != nil {
				schema = media.Schema
			}
			rs.Body, err = convertSchema(schema)
			if err != nil {
				return nil, fmt.Errorf("request body: %w", err)
			}
		}
		rs.BodyRequired = body.Required && rs.Body != nil
	}

	return rs, nil
}

func resolveParameter(p *openapi.Parameter, comps *openapi.Components) (*openapi.Parameter, error) {
	if p == nil || p.Ref == "" {
		return p, nil
	}
	def, err := comps.Resolve(p.Ref)
	if err != nil {
		return nil, err
	}
	param, ok := def.(*openapi.Parameter)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a parameter", openapi.ErrInvalidReference, p.Ref)
	}
	return param, nil
}

func resolveRequestBody(b *openapi.RequestBody, comps *openapi.Components) (*openapi.RequestBody, error) {
	if b == nil || b.Ref == "" {
		return b, nil
	}
	def, err := comps.Resolve(b.Ref)
	if err != nil {
		return nil, err
	}
	body, ok := def.(*openapi.RequestBody)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a request body", openapi.ErrInvalidReference, b.Ref)
	}
	return body, nil
}

// parameterSchema returns the schema of a parameter, taken from its json
// content when it has no schema of its own.
func parameterSchema(p *openapi.Parameter) *openapi.Schema {
	if p.Schema != nil {
		return p.Schema
	}
	if media, ok := p.Content[jsonMediaType]; ok && media != nil {
		return media.Schema
	}
	return nil
}

// openapiOnly are schema keywords with no JSON Schema meaning.
var openapiOnly = []string{"nullable", "discriminator", "xml", "externalDocs", "example", "deprecated"}

// convertSchema turns an OpenAPI 3.0 schema into a draft-07 schema map.
// nullable becomes a "null" type and boolean exclusive bounds become
// numeric ones.
func convertSchema(s *openapi.Schema) (map[string]any, error) {
	if s == nil {
		return map[string]any{}, nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	convertNode(m)
	return m, nil
}

func convertNode(m map[string]any) {
	if nullable, _ := m["nullable"].(bool); nullable {
		if typ, ok := m["type"].(string); ok {
			m["type"] = []any{typ, "null"}
		}
		if enum, ok := m["enum"].([]any); ok && !slices.Contains(enum, nil) {
			m["enum"] = append(enum, nil)
		}
	}

	for _, bound := range [][2]string{{"exclusiveMinimum", "minimum"}, {"exclusiveMaximum", "maximum"}} {
		exclusive, ok := m[bound[0]].(bool)
		if !ok {
			continue
		}
		delete(m, bound[0])
		if limit, ok := m[bound[1]]; ok && exclusive {
			m[bound[0]] = limit
			delete(m, bound[1])
		}
	}

	for _, key := range openapiOnly {
		delete(m, key)
	}

	for _, key := range []string{"items", "not", "additionalProperties"} {
		if child, ok := m[key].(map[string]any); ok {
			convertNode(child)
		}
	}

	if props, ok := m["properties"].(map[string]any); ok {
		for _, v := range props {
			if child, ok := v.(map[string]any); ok {
				convertNode(child)
			}
		}
	}

	for _, key := range []string{"allOf", "oneOf", "anyOf"} {
		if list, ok := m[key].([]any); ok {
			for _, v := range list {
				if child, ok := v.(map[string]any); ok {
					convertNode(child)
				}
			}
		}
	}
}
