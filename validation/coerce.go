package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
)

// CoerceMode selects how textual request values are converted to the
// declared schema types.
type CoerceMode string

const (
	// CoerceSnapshot coerces a copy of the input. The request data seen by
	// handlers keeps its original types.
	CoerceSnapshot CoerceMode = "true"

	// CoerceOff validates the input as received.
	CoerceOff CoerceMode = "false"

	// CoerceInPlace coerces the input itself, so handlers reading it with
	// FromRequest see the declared types.
	CoerceInPlace CoerceMode = "inplace"
)

// ParseCoerceMode parses a mode name. The empty string selects
// CoerceSnapshot.
func ParseCoerceMode(s string) (CoerceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(CoerceSnapshot):
		return CoerceSnapshot, nil
	case string(CoerceOff):
		return CoerceOff, nil
	case string(CoerceInPlace), "in-place":
		return CoerceInPlace, nil
	}
	return "", fmt.Errorf("validation: unknown coerce mode %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *CoerceMode) UnmarshalText(text []byte) error {
	mode, err := ParseCoerceMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// maxRefDepth bounds reference chains while coercing.
const maxRefDepth = 32

type coercer struct {
	root map[string]any
}

// coerceInput converts the values of in to the types of schema, in place.
func coerceInput(in *Input, schema map[string]any) {
	c := coercer{root: schema}
	props, _ := schema["properties"].(map[string]any)

	for name, section := range map[string]map[string]any{
		"headers": in.Headers,
		"params":  in.Params,
		"query":   in.Query,
	} {
		sub, _ := props[name].(map[string]any)
		c.object(section, sub, 0)
	}

	if in.Body != nil {
		sub, _ := props["body"].(map[string]any)
		in.Body = c.value(in.Body, sub, 0)
	}
}

// value returns v converted to the type schema declares. Objects and
// arrays are converted element by element in place.
func (c coercer) value(v any, schema map[string]any, depth int) any {
	schema = c.deref(schema, depth)
	if schema == nil {
		return v
	}

	if all, ok := schema["allOf"].([]any); ok {
		for _, s := range all {
			sub, _ := s.(map[string]any)
			v = c.value(v, sub, depth+1)
		}
	}

	types := schemaTypes(schema)
	if len(types) > 0 && !matchesAny(v, types) {
		for _, t := range types {
			if out, ok := coerceTo(v, t); ok {
				v = out
				break
			}
		}
	}

	switch t := v.(type) {
	case map[string]any:
		c.object(t, schema, depth)
	case []any:
		items, _ := schema["items"].(map[string]any)
		if items != nil {
			for i, item := range t {
				t[i] = c.value(item, items, depth+1)
			}
		}
	}

	return v
}

func (c coercer) object(obj map[string]any, schema map[string]any, depth int) {
	schema = c.deref(schema, depth)
	if obj == nil || schema == nil {
		return
	}

	props, _ := schema["properties"].(map[string]any)
	extra, _ := schema["additionalProperties"].(map[string]any)

	for name, v := range obj {
		if sub, ok := props[name].(map[string]any); ok {
			obj[name] = c.value(v, sub, depth+1)
			continue
		}
		if extra != nil {
			obj[name] = c.value(v, extra, depth+1)
		}
	}
}

// deref follows $ref pointers into the root schema.
func (c coercer) deref(schema map[string]any, depth int) map[string]any {
	for range maxRefDepth {
		if schema == nil || depth > maxRefDepth {
			return nil
		}
		ref, ok := schema["$ref"].(string)
		if !ok {
			return schema
		}
		if !strings.HasPrefix(ref, "#") {
			return nil
		}

		ptr, err := jsonpointer.New(ref[1:])
		if err != nil {
			return nil
		}
		target, _, err := ptr.Get(c.root)
		if err != nil {
			return nil
		}
		schema, _ = target.(map[string]any)
		depth++
	}
	return nil
}

func schemaTypes(schema map[string]any) []string {
	switch t := schema["type"].(type) {
	case string:
		return []string{t}
	case []any:
		types := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				types = append(types, s)
			}
		}
		return types
	}
	return nil
}

func matchesAny(v any, types []string) bool {
	for _, t := range types {
		if matchesType(v, t) {
			return true
		}
	}
	return false
}

func matchesType(v any, t string) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "null":
		return v == nil
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "number":
		_, ok := toFloat(v)
		return ok
	case "integer":
		f, ok := toFloat(v)
		return ok && f == math.Trunc(f)
	}
	return false
}

// coerceTo converts v to type t. Scalars convert between string, number,
// integer, boolean and null; a scalar becomes a one element array and a
// one element array gives up its element.
func coerceTo(v any, t string) (any, bool) {
	if list, ok := v.([]any); ok {
		if t == "array" || len(list) != 1 {
			return nil, false
		}
		if matchesType(list[0], t) {
			return list[0], true
		}
		return coerceTo(list[0], t)
	}

	switch t {
	case "array":
		if _, ok := v.(map[string]any); ok {
			return nil, false
		}
		return []any{v}, true

	case "string":
		switch x := v.(type) {
		case bool:
			return strconv.FormatBool(x), true
		case nil:
			return "", true
		}
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}

	case "number":
		switch x := v.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err == nil && x != "" && !math.IsInf(f, 0) && !math.IsNaN(f) {
				return f, true
			}
		case bool:
			if x {
				return float64(1), true
			}
			return float64(0), true
		case nil:
			return float64(0), true
		}

	case "integer":
		switch x := v.(type) {
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil && x != "" {
				return i, true
			}
		case bool:
			if x {
				return int64(1), true
			}
			return int64(0), true
		case nil:
			return int64(0), true
		}

	case "boolean":
		switch x := v.(type) {
		case string:
			switch x {
			case "true":
				return true, true
			case "false":
				return false, true
			}
		case nil:
			return false, true
		}
		if f, ok := toFloat(v); ok && (f == 0 || f == 1) {
			return f == 1, true
		}

	case "null":
		switch x := v.(type) {
		case string:
			if x == "" {
				return nil, true
			}
		case bool:
			if !x {
				return nil, true
			}
		}
		if f, ok := toFloat(v); ok && f == 0 {
			return nil, true
		}
	}

	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}
