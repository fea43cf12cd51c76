package openapi

import (
	"encoding/json"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-openapi/jsonpointer"
)

// ComponentKind names a collection of the Components Object.
type ComponentKind string

// Component kinds.
//
// See: https://spec.openapis.org/oas/v3.0.3#fixed-fields-5
const (
	KindSchemas         ComponentKind = "schemas"
	KindResponses       ComponentKind = "responses"
	KindParameters      ComponentKind = "parameters"
	KindExamples        ComponentKind = "examples"
	KindRequestBodies   ComponentKind = "requestBodies"
	KindHeaders         ComponentKind = "headers"
	KindSecuritySchemes ComponentKind = "securitySchemes"
	KindLinks           ComponentKind = "links"
	KindCallbacks       ComponentKind = "callbacks"
)

var componentKinds = []ComponentKind{
	KindSchemas, KindResponses, KindParameters, KindExamples, KindRequestBodies,
	KindHeaders, KindSecuritySchemes, KindLinks, KindCallbacks,
}

// ComponentKinds returns every supported kind.
func ComponentKinds() []ComponentKind {
	return slices.Clone(componentKinds)
}

// ParseComponentKind returns the kind named s.
func ParseComponentKind(s string) (ComponentKind, bool) {
	kind := ComponentKind(s)
	return kind, slices.Contains(componentKinds, kind)
}

// componentName is the allowed component key format.
//
// See: https://spec.openapis.org/oas/v3.0.3#fixed-fields-5
var componentName = regexp.MustCompile(`^[a-zA-Z0-9.\-_]+$`)

// Reference is a reference object pointing into the components.
type Reference struct {
	Ref string `json:"$ref"`
}

// RefTo returns the reference to the component kind/name.
func RefTo(kind ComponentKind, name string) Reference {
	return Reference{Ref: "#/components/" + string(kind) + "/" + jsonpointer.Escape(name)}
}

// String returns the reference pointer.
func (r Reference) String() string {
	return r.Ref
}

// Schema returns a schema holding only the reference.
func (r Reference) Schema() *Schema { return &Schema{Ref: r.Ref} }

// Response returns a response holding only the reference.
func (r Reference) Response() *Response { return &Response{Ref: r.Ref} }

// Parameter returns a parameter holding only the reference.
func (r Reference) Parameter() *Parameter { return &Parameter{Ref: r.Ref} }

// Example returns an example holding only the reference.
func (r Reference) Example() *Example { return &Example{Ref: r.Ref} }

// RequestBody returns a request body holding only the reference.
func (r Reference) RequestBody() *RequestBody { return &RequestBody{Ref: r.Ref} }

// Header returns a header holding only the reference.
func (r Reference) Header() *Header { return &Header{Ref: r.Ref} }

// SecurityScheme returns a security scheme holding only the reference.
func (r Reference) SecurityScheme() *SecurityScheme { return &SecurityScheme{Ref: r.Ref} }

// Link returns a link holding only the reference.
func (r Reference) Link() *Link { return &Link{Ref: r.Ref} }

// Callback returns a callback holding only the reference.
func (r Reference) Callback() *Callback { return &Callback{Ref: r.Ref} }

// Lookup returns the raw definition of kind/name.
func (c *Components) Lookup(kind ComponentKind, name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	switch kind {
	case KindSchemas:
		return getFrom(c.Schemas, name)
	case KindResponses:
		return getFrom(c.Responses, name)
	case KindParameters:
		return getFrom(c.Parameters, name)
	case KindExamples:
		return getFrom(c.Examples, name)
	case KindRequestBodies:
		return getFrom(c.RequestBodies, name)
	case KindHeaders:
		return getFrom(c.Headers, name)
	case KindSecuritySchemes:
		return getFrom(c.SecuritySchemes, name)
	case KindLinks:
		return getFrom(c.Links, name)
	case KindCallbacks:
		return getFrom(c.Callbacks, name)
	}
	return nil, false
}

// List returns the named collection of kind, or nil when nothing of that
// kind is defined.
func (c *Components) List(kind ComponentKind) map[string]any {
	if c == nil {
		return nil
	}
	switch kind {
	case KindSchemas:
		return listOf(c.Schemas)
	case KindResponses:
		return listOf(c.Responses)
	case KindParameters:
		return listOf(c.Parameters)
	case KindExamples:
		return listOf(c.Examples)
	case KindRequestBodies:
		return listOf(c.RequestBodies)
	case KindHeaders:
		return listOf(c.Headers)
	case KindSecuritySchemes:
		return listOf(c.SecuritySchemes)
	case KindLinks:
		return listOf(c.Links)
	case KindCallbacks:
		return listOf(c.Callbacks)
	}
	return nil
}

// set stores def as kind/name. def may be the component type, a pointer
// to it, or any value with the same JSON shape.
func (c *Components) set(kind ComponentKind, name string, def any) error {
	var err error
	switch kind {
	case KindSchemas:
		err = setIn(&c.Schemas, name, def)
	case KindResponses:
		err = setIn(&c.Responses, name, def)
	case KindParameters:
		err = setIn(&c.Parameters, name, def)
	case KindExamples:
		err = setIn(&c.Examples, name, def)
	case KindRequestBodies:
		err = setIn(&c.RequestBodies, name, def)
	case KindHeaders:
		err = setIn(&c.Headers, name, def)
	case KindSecuritySchemes:
		err = setIn(&c.SecuritySchemes, name, def)
	case KindLinks:
		err = setIn(&c.Links, name, def)
	case KindCallbacks:
		err = setIn(&c.Callbacks, name, def)
	default:
		return invalidComponent(kind, name, "unsupported component type", nil)
	}
	if err != nil {
		return invalidComponent(kind, name, "definition does not fit the component type", err)
	}
	return nil
}

// Resolve returns the definition a local reference points to.
func (c *Components) Resolve(ref string) (any, error) {
	kind, name, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	def, ok := c.Lookup(kind, name)
	if !ok {
		return nil, &ComponentError{Kind: kind, Name: name, Ref: ref, kind: ErrComponentNotFound}
	}
	return def, nil
}

// Clone returns a copy of c with its own collection maps. Definitions are
// shared.
func (c *Components) Clone() *Components {
	if c == nil {
		return nil
	}
	return &Components{
		Schemas:         maps.Clone(c.Schemas),
		Responses:       maps.Clone(c.Responses),
		Parameters:      maps.Clone(c.Parameters),
		Examples:        maps.Clone(c.Examples),
		RequestBodies:   maps.Clone(c.RequestBodies),
		Headers:         maps.Clone(c.Headers),
		SecuritySchemes: maps.Clone(c.SecuritySchemes),
		Links:           maps.Clone(c.Links),
		Callbacks:       maps.Clone(c.Callbacks),
	}
}

// IsEmpty reports whether no component is defined.
func (c *Components) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, kind := range componentKinds {
		if len(c.List(kind)) > 0 {
			return false
		}
	}
	return true
}

// parseRef splits "#/components/{kind}/{name}" into its parts.
func parseRef(ref string) (ComponentKind, string, error) {
	if !strings.HasPrefix(ref, "#/") {
		return "", "", invalidReference(ref, "only local references are supported", nil)
	}

	ptr, err := jsonpointer.New(ref[1:])
	if err != nil {
		return "", "", invalidReference(ref, "", err)
	}

	tokens := ptr.DecodedTokens()
	if len(tokens) != 3 || tokens[0] != "components" {
		return "", "", invalidReference(ref, "expected #/components/{type}/{name}", nil)
	}

	kind, ok := ParseComponentKind(tokens[1])
	if !ok {
		return "", "", invalidReference(ref, "unsupported component type", nil)
	}

	return kind, tokens[2], nil
}

func getFrom[T any](m map[string]*T, name string) (any, bool) {
	v, ok := m[name]
	if !ok {
		return nil, false
	}
	return v, true
}

func listOf[T any](m map[string]*T) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func setIn[T any](m *map[string]*T, name string, def any) error {
	v, err := decode[T](def)
	if err != nil {
		return err
	}
	if *m == nil {
		*m = make(map[string]*T)
	}
	(*m)[name] = v
	return nil
}

// decode converts def into a *T, going through JSON for foreign shapes
// such as map[string]any.
func decode[T any](def any) (*T, error) {
	switch v := def.(type) {
	case *T:
		if v == nil {
			return new(T), nil
		}
		return v, nil
	case T:
		return &v, nil
	}

	data, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Store is a concurrency safe component collection owned by one
// documentation instance.
type Store struct {
	mu    sync.RWMutex
	comps Components
	// raw keeps definitions given in a foreign shape, such as
	// map[string]any, exactly as they were defined.
	raw     map[ComponentKind]map[string]any
	version atomic.Uint64
}

// NewStore returns a store seeded with a copy of seed.
func NewStore(seed *Components) *Store {
	s := &Store{}
	if seed != nil {
		s.comps = *seed.Clone()
	}
	return s
}

// Define stores def as kind/name, replacing any previous definition, and
// returns a reference to it.
//
// A def that is not the component type, or a pointer to it, is decoded
// through JSON. Lookup, Get and Resolve return such a def unchanged, while
// typed collections and Snapshot see the decoded form, which drops keys
// the model does not declare.
func (s *Store) Define(kind ComponentKind, name string, def any) (Reference, error) {
	if _, ok := ParseComponentKind(string(kind)); !ok {
		return Reference{}, invalidComponent(kind, name, "unsupported component type", nil)
	}
	if !componentName.MatchString(name) {
		return Reference{}, invalidComponent(kind, name, "name must match "+componentName.String(), nil)
	}

	s.mu.Lock()
	err := s.comps.set(kind, name, def)
	if err == nil {
		s.keepRaw(kind, name, def)
	}
	s.mu.Unlock()
	if err != nil {
		return Reference{}, err
	}

	s.version.Add(1)
	return RefTo(kind, name), nil
}

// Reference returns the reference to kind/name. It fails with
// ErrUnknownComponent when the component is not defined yet.
func (s *Store) Reference(kind ComponentKind, name string) (Reference, error) {
	if _, ok := s.Lookup(kind, name); !ok {
		return Reference{}, unknownComponent(kind, name)
	}
	return RefTo(kind, name), nil
}

// List returns every definition of kind, or nil when none is defined.
func (s *Store) List(kind ComponentKind) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comps.List(kind)
}

// Lookup returns the raw definition of kind/name.
func (s *Store) Lookup(kind ComponentKind, name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if def, ok := s.raw[kind][name]; ok {
		return def, true
	}
	return s.comps.Lookup(kind, name)
}

// typed returns the decoded definition of kind/name.
func (s *Store) typed(kind ComponentKind, name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comps.Lookup(kind, name)
}

// keepRaw records def when it had to be decoded. Callers hold s.mu.
func (s *Store) keepRaw(kind ComponentKind, name string, def any) {
	typed, _ := s.comps.Lookup(kind, name)
	want := reflect.TypeOf(typed)
	if got := reflect.TypeOf(def); def == nil || got == want || got == want.Elem() {
		delete(s.raw[kind], name)
		return
	}

	if s.raw == nil {
		s.raw = make(map[ComponentKind]map[string]any)
	}
	if s.raw[kind] == nil {
		s.raw[kind] = make(map[string]any)
	}
	s.raw[kind][name] = def
}

// Get is Lookup reporting a missing component as ErrComponentNotFound.
func (s *Store) Get(kind ComponentKind, name string) (any, error) {
	def, ok := s.Lookup(kind, name)
	if !ok {
		return nil, componentNotFound(kind, name)
	}
	return def, nil
}

// Resolve returns the definition a local reference points to, as it was
// defined.
func (s *Store) Resolve(ref string) (any, error) {
	kind, name, err := parseRef(ref)
	if err != nil {
		return nil, err
	}
	def, ok := s.Lookup(kind, name)
	if !ok {
		return nil, &ComponentError{Kind: kind, Name: name, Ref: ref, kind: ErrComponentNotFound}
	}
	return def, nil
}

// Snapshot returns a copy of the stored components, or nil when the
// store is empty.
func (s *Store) Snapshot() *Components {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.comps.IsEmpty() {
		return nil
	}
	return s.comps.Clone()
}

// Version increases on every definition.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Schemas returns the typed schemas collection.
func (s *Store) Schemas() Collection[Schema] { return Collection[Schema]{s, KindSchemas} }

// Responses returns the typed responses collection.
func (s *Store) Responses() Collection[Response] { return Collection[Response]{s, KindResponses} }

// Parameters returns the typed parameters collection.
func (s *Store) Parameters() Collection[Parameter] {
	return Collection[Parameter]{s, KindParameters}
}

// Examples returns the typed examples collection.
func (s *Store) Examples() Collection[Example] { return Collection[Example]{s, KindExamples} }

// RequestBodies returns the typed request bodies collection.
func (s *Store) RequestBodies() Collection[RequestBody] {
	return Collection[RequestBody]{s, KindRequestBodies}
}

// Headers returns the typed headers collection.
func (s *Store) Headers() Collection[Header] { return Collection[Header]{s, KindHeaders} }

// SecuritySchemes returns the typed security schemes collection.
func (s *Store) SecuritySchemes() Collection[SecurityScheme] {
	return Collection[SecurityScheme]{s, KindSecuritySchemes}
}

// Links returns the typed links collection.
func (s *Store) Links() Collection[Link] { return Collection[Link]{s, KindLinks} }

// Callbacks returns the typed callbacks collection.
func (s *Store) Callbacks() Collection[Callback] { return Collection[Callback]{s, KindCallbacks} }

// Collection is a typed view of one component kind of a Store.
type Collection[T any] struct {
	store *Store
	kind  ComponentKind
}

// Kind returns the component kind of the collection.
func (c Collection[T]) Kind() ComponentKind {
	return c.kind
}

// Define stores def under name and returns a reference to it.
func (c Collection[T]) Define(name string, def *T) (Reference, error) {
	return c.store.Define(c.kind, name, def)
}

// Ref returns the reference to name, failing with ErrUnknownComponent
// when it is not defined.
func (c Collection[T]) Ref(name string) (Reference, error) {
	return c.store.Reference(c.kind, name)
}

// Get returns the definition stored under name.
func (c Collection[T]) Get(name string) (*T, bool) {
	v, ok := c.store.typed(c.kind, name)
	if !ok {
		return nil, false
	}
	def, ok := v.(*T)
	return def, ok
}

// List returns every definition of the collection, or nil when none is
// defined.
func (c Collection[T]) List() map[string]*T {
	all := c.store.List(c.kind)
	if all == nil {
		return nil
	}
	out := make(map[string]*T, len(all))
	for name, v := range all {
		if def, ok := v.(*T); ok {
			out[name] = def
		}
	}
	return out
}
