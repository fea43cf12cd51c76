package openapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Registry maps schema markers to the operations attached to them. One
// registry belongs to one documentation instance.
type Registry struct {
	ops      sync.Map // map[string]*Operation
	composed sync.Map // map[composedKey]composedEntry
}

type composedKey struct {
	key    string
	method string
	path   string
}

type composedEntry struct {
	source *Operation
	op     *Operation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Attach stores op under key, replacing any previous operation.
func (r *Registry) Attach(key string, op *Operation) {
	r.ops.Store(key, op)
}

// Lookup returns the operation stored under key.
func (r *Registry) Lookup(key string) (*Operation, bool) {
	v, ok := r.ops.Load(key)
	if !ok {
		return nil, false
	}
	return v.(*Operation), true
}

// NewMarker attaches op under a fresh key and returns the marker that
// carries it. Wrappers run in order when the marker sits on a route
// stack; without them the marker passes requests through untouched.
func (r *Registry) NewMarker(op *Operation, wrappers ...func(http.Handler) http.Handler) *Marker {
	if op == nil {
		op = &Operation{}
	}
	m := &Marker{
		key:      newKey(),
		wrappers: wrappers,
	}
	r.Attach(m.key, op)
	return m
}

// Operation returns the operation attached to handler when handler is a
// marker known to this registry.
func (r *Registry) Operation(handler any) (*Operation, bool) {
	m, ok := handler.(*Marker)
	if !ok || m == nil {
		return nil, false
	}
	return r.Lookup(m.key)
}

// HasSchema reports whether handler is a marker with an attached operation.
func (r *Registry) HasSchema(handler any) bool {
	_, ok := r.Operation(handler)
	return ok
}

// Composed returns the operation composed for key at method and path, as
// long as the attached operation has not been replaced since.
func (r *Registry) Composed(key, method, path string) (*Operation, bool) {
	v, ok := r.composed.Load(composedKey{key: key, method: method, path: path})
	if !ok {
		return nil, false
	}
	entry := v.(composedEntry)
	if src, ok := r.Lookup(key); !ok || src != entry.source {
		return nil, false
	}
	return entry.op, true
}

// StoreComposed caches op as the composition of source for key at method
// and path.
func (r *Registry) StoreComposed(key, method, path string, source, op *Operation) {
	r.composed.Store(composedKey{key: key, method: method, path: path}, composedEntry{source: source, op: op})
}

// Marker is a pass-through middleware whose identity carries an operation
// schema. Place it on a route stack so the document generator can find the
// route.
type Marker struct {
	key      string
	wrappers []func(http.Handler) http.Handler
}

// Key returns the registry key of the marker.
func (m *Marker) Key() string {
	return m.key
}

// Middleware implements mux.Middleware.
func (m *Marker) Middleware(next http.Handler) http.Handler {
	for i := len(m.wrappers) - 1; i >= 0; i-- {
		next = m.wrappers[i](next)
	}
	return next
}

func newKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
