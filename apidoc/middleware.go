package apidoc

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
	"github.com/vitalvas/oasmux/routetree"
	"github.com/vitalvas/oasmux/validation"
)

// Middleware documents the routes of one router. It owns the schema
// registry, the component store and the last generated document.
type Middleware struct {
	cfg       Config
	base      *openapi.Document
	registry  *openapi.Registry
	store     *openapi.Store
	generator openapi.Generator
	metrics   *Metrics

	doc    atomic.Pointer[openapi.Document]
	router atomic.Pointer[mux.Router]
	gates  sync.Map // marker key -> *validation.Gate
}

// New returns a middleware for base. Components of base seed the
// component store.
func New(base *openapi.Document, cfg Config) (*Middleware, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	merged := openapi.MergeDefaults(base)
	store := openapi.NewStore(merged.Components)
	merged.Components = nil

	registry := openapi.NewRegistry()

	m := &Middleware{
		cfg:      cfg,
		base:     merged,
		registry: registry,
		store:    store,
		generator: openapi.Generator{
			Registry:  registry,
			Adjacency: cfg.Adjacency,
			Logger:    cfg.Logger,
		},
		metrics: NewMetrics(cfg.Registerer),
	}

	if _, err := m.Generate(nil); err != nil {
		return nil, err
	}

	return m, nil
}

// RoutePrefix returns the path the documentation endpoints are served
// under.
func (m *Middleware) RoutePrefix() string {
	return m.cfg.RoutePrefix
}

// Path returns a marker documenting the route it is placed on with op.
func (m *Middleware) Path(op *openapi.Operation) *openapi.Marker {
	return m.registry.NewMarker(op)
}

// ValidPath returns a marker like Path that also validates requests
// against op before the rest of the route stack runs.
func (m *Middleware) ValidPath(op *openapi.Operation) *openapi.Marker {
	var key string
	gate := validation.NewGate(func() *openapi.Operation {
		op, _ := m.registry.Lookup(key)
		return op
	}, m.store, validation.GateOptions{
		Options:      validation.Options{Coerce: m.cfg.Coerce},
		Params:       mux.Vars,
		ErrorHandler: m.cfg.ErrorHandler,
		Observe:      m.metrics.observeValidation,
		OnCompile:    m.metrics.observeCompile,
		Logger:       m.cfg.Logger,
	})

	marker := m.registry.NewMarker(op, gate.Middleware)
	key = marker.Key()
	m.gates.Store(key, gate)

	return marker
}

// Registry returns the schema registry of the middleware.
func (m *Middleware) Registry() *openapi.Registry {
	return m.registry
}

// Components returns the component store.
func (m *Middleware) Components() *openapi.Store {
	return m.store
}

// Schemas returns the schema components.
func (m *Middleware) Schemas() openapi.Collection[openapi.Schema] {
	return m.store.Schemas()
}

// Responses returns the response components.
func (m *Middleware) Responses() openapi.Collection[openapi.Response] {
	return m.store.Responses()
}

// Parameters returns the parameter components.
func (m *Middleware) Parameters() openapi.Collection[openapi.Parameter] {
	return m.store.Parameters()
}

// Examples returns the example components.
func (m *Middleware) Examples() openapi.Collection[openapi.Example] {
	return m.store.Examples()
}

// RequestBodies returns the request body components.
func (m *Middleware) RequestBodies() openapi.Collection[openapi.RequestBody] {
	return m.store.RequestBodies()
}

// Headers returns the header components.
func (m *Middleware) Headers() openapi.Collection[openapi.Header] {
	return m.store.Headers()
}

// SecuritySchemes returns the security scheme components.
func (m *Middleware) SecuritySchemes() openapi.Collection[openapi.SecurityScheme] {
	return m.store.SecuritySchemes()
}

// Links returns the link components.
func (m *Middleware) Links() openapi.Collection[openapi.Link] {
	return m.store.Links()
}

// Callbacks returns the callback components.
func (m *Middleware) Callbacks() openapi.Collection[openapi.Callback] {
	return m.store.Callbacks()
}

// Generate builds a new document from src and makes it the current one.
// With a nil src only the base document and components are used.
func (m *Middleware) Generate(src routetree.Source) (*openapi.Document, error) {
	start := time.Now()

	doc, err := m.generator.Generate(m.base, src, m.cfg.BasePath)
	if err != nil {
		m.metrics.observeGeneration(start, 0, err)
		return nil, fmt.Errorf("generate document: %w", err)
	}
	doc.Components = m.store.Snapshot()

	m.metrics.observeGeneration(start, len(doc.Paths), nil)
	m.doc.Store(doc)

	return doc, nil
}

// Document returns the last generated document.
func (m *Middleware) Document() *openapi.Document {
	return m.doc.Load()
}

// regenerate rebuilds the document from the router passed to Handle.
func (m *Middleware) regenerate() (*openapi.Document, error) {
	var src routetree.Source
	if r := m.router.Load(); r != nil {
		src = r
	}
	return m.Generate(src)
}

// Compile compiles the validators of every validating route reachable
// from r instead of waiting for their first request.
func (m *Middleware) Compile(r *mux.Router) error {
	walker := routetree.Walker{
		Adjacency: m.cfg.Adjacency,
		Logger:    m.cfg.Logger,
		HasSchema: func(handler any) bool {
			marker, ok := handler.(*openapi.Marker)
			if !ok {
				return false
			}
			_, ok = m.gates.Load(marker.Key())
			return ok
		},
	}

	var errs []error
	err := walker.Walk(r, func(path string, _ routetree.Meta, leaf routetree.Layer) error {
		marker := leaf.Handler.(*openapi.Marker)
		gate, _ := m.gates.Load(marker.Key())
		if err := gate.(*validation.Gate).Compile(); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", leaf.Method, path, err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return errors.Join(errs...)
}
