package routetree

import (
	"strconv"

	"github.com/vitalvas/oasmux/pathtpl"
)

// Kind classifies a routing layer.
type Kind int

const (
	// KindHandler is a terminal element of a route stack: a middleware or
	// the final handler.
	KindHandler Kind = iota
	// KindRoute owns an ordered handler stack reached when one of its
	// patterns matches the whole remaining path.
	KindRoute
	// KindRouter delegates the remainder of the path to a nested router.
	KindRouter
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindHandler:
		return "handler"
	case KindRoute:
		return "route"
	case KindRouter:
		return "router"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Layer is a read-only snapshot of one node of a host router.
type Layer struct {
	Kind Kind

	// Method is the HTTP method a KindHandler layer serves. Empty means
	// the layer is not bound to a method and is never documented.
	Method string

	// Handler is the identity of a KindHandler layer.
	Handler any

	// Patterns are the alternative paths of a KindRoute or the mount
	// prefixes of a KindRouter. A router without patterns is mounted at
	// the parent's path.
	Patterns []*pathtpl.Pattern

	Children []Layer
}

// Source produces a layer snapshot of a router.
type Source interface {
	Layers() []Layer
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() []Layer

// Layers implements Source.
func (f SourceFunc) Layers() []Layer {
	return f()
}

// Static is a Source over a fixed set of layers.
type Static []Layer

// Layers implements Source.
func (s Static) Layers() []Layer {
	return s
}
