package openapi

import (
	"encoding/json"
	"errors"
)

// Version is the OpenAPI version written into generated documents.
const Version = "3.0.3"

// Document represents the root of an OpenAPI v3.0.3 document.
//
// See: https://spec.openapis.org/oas/v3.0.3#openapi-object
type Document struct {
	OpenAPI      string                `json:"openapi"`
	Info         Info                  `json:"info"`
	Servers      []Server              `json:"servers,omitempty"`
	Paths        map[string]*PathItem  `json:"paths"`
	Components   *Components           `json:"components,omitempty"`
	Tags         []Tag                 `json:"tags,omitempty"`
	Security     []SecurityRequirement `json:"security,omitempty"`
	ExternalDocs *ExternalDocs         `json:"externalDocs,omitempty"`
}

// Info provides metadata about the API.
//
// See: https://spec.openapis.org/oas/v3.0.3#info-object
type Info struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	TermsOfService string   `json:"termsOfService,omitempty"`
	Contact        *Contact `json:"contact,omitempty"`
	License        *License `json:"license,omitempty"`
	Version        string   `json:"version"`
}

// Contact represents contact information for the API.
//
// See: https://spec.openapis.org/oas/v3.0.3#contact-object
type Contact struct {
	Name  string `json:"name,omitempty"`
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// License represents license information for the API.
//
// See: https://spec.openapis.org/oas/v3.0.3#license-object
type License struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Server represents a server.
//
// See: https://spec.openapis.org/oas/v3.0.3#server-object
type Server struct {
	URL         string                     `json:"url"`
	Description string                     `json:"description,omitempty"`
	Variables   map[string]*ServerVariable `json:"variables,omitempty"`
}

// ServerVariable represents a server variable for URL template substitution.
//
// See: https://spec.openapis.org/oas/v3.0.3#server-variable-object
type ServerVariable struct {
	Enum        []string `json:"enum,omitempty"`
	Default     string   `json:"default"`
	Description string   `json:"description,omitempty"`
}

// PathItem describes the operations available on a single path.
//
// See: https://spec.openapis.org/oas/v3.0.3#path-item-object
type PathItem struct {
	Ref         string       `json:"$ref,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Description string       `json:"description,omitempty"`
	Get         *Operation   `json:"get,omitempty"`
	Put         *Operation   `json:"put,omitempty"`
	Post        *Operation   `json:"post,omitempty"`
	Delete      *Operation   `json:"delete,omitempty"`
	Options     *Operation   `json:"options,omitempty"`
	Head        *Operation   `json:"head,omitempty"`
	Patch       *Operation   `json:"patch,omitempty"`
	Trace       *Operation   `json:"trace,omitempty"`
	Servers     []Server     `json:"servers,omitempty"`
	Parameters  []*Parameter `json:"parameters,omitempty"`
}

// Operation describes a single API operation on a path.
//
// See: https://spec.openapis.org/oas/v3.0.3#operation-object
type Operation struct {
	Tags         []string              `json:"tags,omitempty"`
	Summary      string                `json:"summary,omitempty"`
	Description  string                `json:"description,omitempty"`
	ExternalDocs *ExternalDocs         `json:"externalDocs,omitempty"`
	OperationID  string                `json:"operationId,omitempty"`
	Parameters   []*Parameter          `json:"parameters,omitempty"`
	RequestBody  *RequestBody          `json:"requestBody,omitempty"`
	Responses    map[string]*Response  `json:"responses,omitempty"`
	Callbacks    map[string]*Callback  `json:"callbacks,omitempty"`
	Deprecated   bool                  `json:"deprecated,omitempty"`
	Security     []SecurityRequirement `json:"security,omitempty"`
	Servers      []Server              `json:"servers,omitempty"`
}

// Parameter describes a single operation parameter. Parameters with the
// same name and location must be unique within an operation.
//
// See: https://spec.openapis.org/oas/v3.0.3#parameter-object
type Parameter struct {
	Ref             string                `json:"$ref,omitempty"`
	Name            string                `json:"name"`
	In              string                `json:"in"`
	Description     string                `json:"description,omitempty"`
	Required        bool                  `json:"required,omitempty"`
	Deprecated      bool                  `json:"deprecated,omitempty"`
	AllowEmptyValue bool                  `json:"allowEmptyValue,omitempty"`
	Style           string                `json:"style,omitempty"`
	Explode         *bool                 `json:"explode,omitempty"`
	AllowReserved   bool                  `json:"allowReserved,omitempty"`
	Schema          *Schema               `json:"schema,omitempty"`
	Example         any                   `json:"example,omitempty"`
	Examples        map[string]*Example   `json:"examples,omitempty"`
	Content         map[string]*MediaType `json:"content,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (p Parameter) MarshalJSON() ([]byte, error) {
	type parameter Parameter
	return marshalRef(p.Ref, parameter(p))
}

// RequestBody describes a single request body.
//
// See: https://spec.openapis.org/oas/v3.0.3#request-body-object
type RequestBody struct {
	Ref         string                `json:"$ref,omitempty"`
	Description string                `json:"description,omitempty"`
	Required    bool                  `json:"required,omitempty"`
	Content     map[string]*MediaType `json:"content,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (b RequestBody) MarshalJSON() ([]byte, error) {
	type requestBody RequestBody
	return marshalRef(b.Ref, requestBody(b))
}

// Response describes a single response from an API operation.
//
// See: https://spec.openapis.org/oas/v3.0.3#response-object
type Response struct {
	Ref         string                `json:"$ref,omitempty"`
	Description string                `json:"description"`
	Headers     map[string]*Header    `json:"headers,omitempty"`
	Content     map[string]*MediaType `json:"content,omitempty"`
	Links       map[string]*Link      `json:"links,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (r Response) MarshalJSON() ([]byte, error) {
	type response Response
	return marshalRef(r.Ref, response(r))
}

// MediaType describes a media type with a schema and optional example.
//
// See: https://spec.openapis.org/oas/v3.0.3#media-type-object
type MediaType struct {
	Schema   *Schema              `json:"schema,omitempty"`
	Example  any                  `json:"example,omitempty"`
	Examples map[string]*Example  `json:"examples,omitempty"`
	Encoding map[string]*Encoding `json:"encoding,omitempty"`
}

// Header describes a single header. The name is the key of the containing
// map and "in" is implicitly "header".
//
// See: https://spec.openapis.org/oas/v3.0.3#header-object
type Header struct {
	Ref             string                `json:"$ref,omitempty"`
	Description     string                `json:"description,omitempty"`
	Required        bool                  `json:"required,omitempty"`
	Deprecated      bool                  `json:"deprecated,omitempty"`
	AllowEmptyValue bool                  `json:"allowEmptyValue,omitempty"`
	Style           string                `json:"style,omitempty"`
	Explode         *bool                 `json:"explode,omitempty"`
	AllowReserved   bool                  `json:"allowReserved,omitempty"`
	Schema          *Schema               `json:"schema,omitempty"`
	Example         any                   `json:"example,omitempty"`
	Examples        map[string]*Example   `json:"examples,omitempty"`
	Content         map[string]*MediaType `json:"content,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (h Header) MarshalJSON() ([]byte, error) {
	type header Header
	return marshalRef(h.Ref, header(h))
}

// Schema represents the OpenAPI 3.0 Schema Object, an extended subset of
// JSON Schema Wright Draft 00.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
type Schema struct {
	Ref string `json:"$ref,omitempty"`

	Type     string `json:"type,omitempty"`
	Format   string `json:"format,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`

	// Metadata annotations.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
	WriteOnly   bool   `json:"writeOnly,omitempty"`

	// Numeric constraints. Exclusive bounds are flags on Minimum and
	// Maximum in this version.
	MultipleOf       *float64 `json:"multipleOf,omitempty"`
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum bool     `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum bool     `json:"exclusiveMaximum,omitempty"`

	// String constraints.
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Array constraints.
	Items       *Schema `json:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty"`

	// Object constraints.
	Properties           map[string]*Schema    `json:"properties,omitempty"`
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitempty"`
	Required             []string              `json:"required,omitempty"`
	MinProperties        *int                  `json:"minProperties,omitempty"`
	MaxProperties        *int                  `json:"maxProperties,omitempty"`

	Enum []any `json:"enum,omitempty"`

	// Composition keywords.
	AllOf []*Schema `json:"allOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	Discriminator *Discriminator `json:"discriminator,omitempty"`
	ExternalDocs  *ExternalDocs  `json:"externalDocs,omitempty"`
	XML           *XML           `json:"xml,omitempty"`
}

// AdditionalProperties is either a boolean or a schema.
//
// See: https://spec.openapis.org/oas/v3.0.3#properties
type AdditionalProperties struct {
	Allowed *bool
	Schema  *Schema
}

// AllowAdditional returns additionalProperties set to a boolean.
func AllowAdditional(allowed bool) *AdditionalProperties {
	return &AdditionalProperties{Allowed: &allowed}
}

// AdditionalSchema returns additionalProperties set to a schema.
func AdditionalSchema(s *Schema) *AdditionalProperties {
	return &AdditionalProperties{Schema: s}
}

// MarshalJSON encodes the value as a JSON boolean or schema object.
func (a AdditionalProperties) MarshalJSON() ([]byte, error) {
	if a.Schema != nil {
		return json.Marshal(a.Schema)
	}
	if a.Allowed != nil {
		return json.Marshal(*a.Allowed)
	}
	return []byte("true"), nil
}

// UnmarshalJSON decodes either a JSON boolean or a schema object.
func (a *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var allowed bool
	if err := json.Unmarshal(data, &allowed); err == nil {
		a.Allowed, a.Schema = &allowed, nil
		return nil
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("additionalProperties must be a boolean or a schema")
	}
	a.Allowed, a.Schema = nil, &s
	return nil
}

// Components holds reusable OpenAPI objects. Objects defined here have no
// effect on the API unless referenced from outside the Components Object.
//
// See: https://spec.openapis.org/oas/v3.0.3#components-object
type Components struct {
	Schemas         map[string]*Schema         `json:"schemas,omitempty"`
	Responses       map[string]*Response       `json:"responses,omitempty"`
	Parameters      map[string]*Parameter      `json:"parameters,omitempty"`
	Examples        map[string]*Example        `json:"examples,omitempty"`
	RequestBodies   map[string]*RequestBody    `json:"requestBodies,omitempty"`
	Headers         map[string]*Header         `json:"headers,omitempty"`
	SecuritySchemes map[string]*SecurityScheme `json:"securitySchemes,omitempty"`
	Links           map[string]*Link           `json:"links,omitempty"`
	Callbacks       map[string]*Callback       `json:"callbacks,omitempty"`
}

// Tag adds metadata to a single tag used by Operation Objects.
//
// See: https://spec.openapis.org/oas/v3.0.3#tag-object
type Tag struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	ExternalDocs *ExternalDocs `json:"externalDocs,omitempty"`
}

// SecurityRequirement lists required security schemes for an operation.
// Each key maps to a list of scope names required for execution.
//
// See: https://spec.openapis.org/oas/v3.0.3#security-requirement-object
type SecurityRequirement map[string][]string

// ExternalDocs allows referencing external documentation.
//
// See: https://spec.openapis.org/oas/v3.0.3#external-documentation-object
type ExternalDocs struct {
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// Example represents an example value. Value and ExternalValue are
// mutually exclusive.
//
// See: https://spec.openapis.org/oas/v3.0.3#example-object
type Example struct {
	Ref           string `json:"$ref,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Description   string `json:"description,omitempty"`
	Value         any    `json:"value,omitempty"`
	ExternalValue string `json:"externalValue,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (e Example) MarshalJSON() ([]byte, error) {
	type example Example
	return marshalRef(e.Ref, example(e))
}

// Encoding describes encoding for a single property in a media type.
//
// See: https://spec.openapis.org/oas/v3.0.3#encoding-object
type Encoding struct {
	ContentType   string             `json:"contentType,omitempty"`
	Headers       map[string]*Header `json:"headers,omitempty"`
	Style         string             `json:"style,omitempty"`
	Explode       *bool              `json:"explode,omitempty"`
	AllowReserved bool               `json:"allowReserved,omitempty"`
}

// Discriminator aids in serialization, deserialization, and validation
// when payloads may be one of several schemas.
//
// See: https://spec.openapis.org/oas/v3.0.3#discriminator-object
type Discriminator struct {
	PropertyName string            `json:"propertyName"`
	Mapping      map[string]string `json:"mapping,omitempty"`
}

// XML describes XML-specific metadata for properties.
//
// See: https://spec.openapis.org/oas/v3.0.3#xml-object
type XML struct {
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Attribute bool   `json:"attribute,omitempty"`
	Wrapped   bool   `json:"wrapped,omitempty"`
}

// SecurityScheme defines a security scheme used by API operations.
// The "type" field is one of "apiKey", "http", "oauth2" or "openIdConnect".
//
// See: https://spec.openapis.org/oas/v3.0.3#security-scheme-object
type SecurityScheme struct {
	Ref              string      `json:"$ref,omitempty"`
	Type             string      `json:"type"`
	Description      string      `json:"description,omitempty"`
	Name             string      `json:"name,omitempty"`
	In               string      `json:"in,omitempty"`
	Scheme           string      `json:"scheme,omitempty"`
	BearerFormat     string      `json:"bearerFormat,omitempty"`
	Flows            *OAuthFlows `json:"flows,omitempty"`
	OpenIDConnectURL string      `json:"openIdConnectUrl,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (s SecurityScheme) MarshalJSON() ([]byte, error) {
	type securityScheme SecurityScheme
	return marshalRef(s.Ref, securityScheme(s))
}

// OAuthFlows describes the available OAuth2 flows.
//
// See: https://spec.openapis.org/oas/v3.0.3#oauth-flows-object
type OAuthFlows struct {
	Implicit          *OAuthFlow `json:"implicit,omitempty"`
	Password          *OAuthFlow `json:"password,omitempty"`
	ClientCredentials *OAuthFlow `json:"clientCredentials,omitempty"`
	AuthorizationCode *OAuthFlow `json:"authorizationCode,omitempty"`
}

// OAuthFlow describes a single OAuth2 flow configuration.
//
// See: https://spec.openapis.org/oas/v3.0.3#oauth-flow-object
type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	RefreshURL       string            `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes"`
}

// Link represents a possible design-time link for a response.
//
// See: https://spec.openapis.org/oas/v3.0.3#link-object
type Link struct {
	Ref          string         `json:"$ref,omitempty"`
	OperationRef string         `json:"operationRef,omitempty"`
	OperationID  string         `json:"operationId,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	RequestBody  any            `json:"requestBody,omitempty"`
	Description  string         `json:"description,omitempty"`
	Server       *Server        `json:"server,omitempty"`
}

// MarshalJSON writes a reference object when Ref is set.
func (l Link) MarshalJSON() ([]byte, error) {
	type link Link
	return marshalRef(l.Ref, link(l))
}

// Callback maps runtime expressions to path items describing requests the
// API provider may initiate. A callback with Ref set is a reference object.
//
// See: https://spec.openapis.org/oas/v3.0.3#callback-object
type Callback struct {
	Ref   string
	Paths map[string]*PathItem
}

// MarshalJSON writes the expression map, or a reference object when Ref
// is set.
func (c Callback) MarshalJSON() ([]byte, error) {
	if c.Ref != "" {
		return json.Marshal(refObject{Ref: c.Ref})
	}
	if c.Paths == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.Paths)
}

// UnmarshalJSON reads an expression map or a reference object.
func (c *Callback) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if ref, ok := raw["$ref"]; ok {
		c.Paths = nil
		return json.Unmarshal(ref, &c.Ref)
	}

	paths := make(map[string]*PathItem, len(raw))
	for expr, item := range raw {
		var pi PathItem
		if err := json.Unmarshal(item, &pi); err != nil {
			return err
		}
		paths[expr] = &pi
	}
	c.Ref, c.Paths = "", paths
	return nil
}

type refObject struct {
	Ref string `json:"$ref"`
}

// marshalRef encodes a reference object in place of v when ref is set.
// A reference object cannot carry sibling fields.
func marshalRef(ref string, v any) ([]byte, error) {
	if ref != "" {
		return json.Marshal(refObject{Ref: ref})
	}
	return json.Marshal(v)
}
