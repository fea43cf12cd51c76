package validation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/xeipuuv/gojsonschema"

	"github.com/vitalvas/oasmux/openapi"
)

func init() {
	gojsonschema.FormatCheckers.Add("int32", intFormat{bits: 32})
	gojsonschema.FormatCheckers.Add("int64", intFormat{bits: 64})
	gojsonschema.FormatCheckers.Add("byte", byteFormat{})
}

// intFormat checks that numbers fit a signed integer of the given size.
type intFormat struct {
	bits int
}

func (f intFormat) IsFormat(input any) bool {
	var v float64
	switch x := input.(type) {
	case json.Number:
		if _, err := x.Int64(); err == nil && f.bits == 64 {
			return true
		}
		parsed, err := x.Float64()
		if err != nil {
			return false
		}
		v = parsed
	case float64:
		v = x
	default:
		return true
	}
	limit := math.Ldexp(1, f.bits-1)
	return v == math.Trunc(v) && v >= -limit && v < limit
}

// byteFormat checks base64 encoded strings.
type byteFormat struct{}

func (byteFormat) IsFormat(input any) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}

// Options configure a validator.
type Options struct {
	Coerce CoerceMode
}

// Validator validates request inputs against one compiled request schema.
// It is safe for concurrent use.
type Validator struct {
	schema   map[string]any
	compiled *gojsonschema.Schema
	coerce   CoerceMode
}

// Compile synthesizes and compiles the request schema of op.
func Compile(op *openapi.Operation, comps *openapi.Components, opts Options) (*Validator, error) {
	rs, err := Synthesize(op, comps)
	if err != nil {
		return nil, err
	}

	mode := opts.Coerce
	if mode == "" {
		mode = CoerceSnapshot
	}

	schema := rs.Map()

	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.Validate = true

	compiled, err := loader.Compile(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}

	return &Validator{
		schema:   schema,
		compiled: compiled,
		coerce:   mode,
	}, nil
}

// Schema returns the request schema. It must not be modified.
func (v *Validator) Schema() map[string]any {
	return v.schema
}

// Mode returns the coercion mode of the validator.
func (v *Validator) Mode() CoerceMode {
	return v.coerce
}

// Validate checks in against the request schema. Depending on the
// coercion mode, values are converted on a snapshot, on in itself or not
// at all. A failure is returned as *RequestValidationError.
func (v *Validator) Validate(in *Input) error {
	target := in
	switch v.coerce {
	case CoerceInPlace:
		coerceInput(in, v.schema)
	case CoerceOff:
	default:
		snap, err := in.Snapshot()
		if err != nil {
			return err
		}
		coerceInput(snap, v.schema)
		target = snap
	}

	result, err := v.compiled.Validate(gojsonschema.NewGoLoader(target.Map()))
	if err != nil {
		return fmt.Errorf("validate request: %w", err)
	}
	if result.Valid() {
		return nil
	}

	return &RequestValidationError{
		Errors: convertErrors(result.Errors()),
		Schema: v.schema,
	}
}

// keywords maps engine error types to schema keywords.
var keywords = map[string]string{
	"invalid_type":                    "type",
	"number_gte":                      "minimum",
	"number_gt":                       "exclusiveMinimum",
	"number_lte":                      "maximum",
	"number_lt":                       "exclusiveMaximum",
	"multiple_of":                     "multipleOf",
	"string_gte":                      "minLength",
	"string_lte":                      "maxLength",
	"array_min_items":                 "minItems",
	"array_max_items":                 "maxItems",
	"unique":                          "uniqueItems",
	"array_min_properties":            "minProperties",
	"array_max_properties":            "maxProperties",
	"additional_property_not_allowed": "additionalProperties",
	"number_any_of":                   "anyOf",
	"number_one_of":                   "oneOf",
	"number_all_of":                   "allOf",
	"number_not":                      "not",
	"condition_then":                  "if",
	"condition_else":                  "if",
	"array_no_additional_items":       "additionalItems",
	"missing_dependency":              "dependencies",
	"invalid_property_name":           "propertyNames",
}

// contextSep splits engine contexts into pointer tokens. Property names
// may contain dots.
const contextSep = "\x1f"

func convertErrors(results []gojsonschema.ResultError) []Error {
	out := make([]Error, 0, len(results))
	for _, res := range results {
		keyword := res.Type()
		if k, ok := keywords[keyword]; ok {
			keyword = k
		}

		params := make(map[string]any)
		for k, v := range res.Details() {
			if k == "field" || k == "context" {
				continue
			}
			params[k] = v
		}
		if prop, ok := params["property"]; ok {
			delete(params, "property")
			switch keyword {
			case "required":
				params["missingProperty"] = prop
			case "additionalProperties":
				params["additionalProperty"] = prop
			default:
				params["property"] = prop
			}
		}
		if len(params) == 0 {
			params = nil
		}

		out = append(out, Error{
			InstancePath: instancePath(res.Context()),
			Keyword:      keyword,
			Params:       params,
			Message:      res.Description(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InstancePath < out[j].InstancePath
	})

	return out
}

func instancePath(ctx *gojsonschema.JsonContext) string {
	if ctx == nil {
		return ""
	}

	tokens := strings.Split(ctx.String(contextSep), contextSep)
	if len(tokens) <= 1 {
		return ""
	}

	var b strings.Builder
	for _, token := range tokens[1:] {
		b.WriteByte('/')
		b.WriteString(jsonpointer.Escape(token))
	}
	return b.String()
}
