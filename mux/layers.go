package mux

import (
	"github.com/vitalvas/oasmux/routetree"
)

// Layers returns a read-only snapshot of the router for documentation
// walkers. Each route becomes a KindRoute layer whose children are its
// stack, repeated for every method the route serves. Mounted routers
// become KindRouter layers. Router level middleware is not part of any
// route and is left out.
func (r *Router) Layers() []routetree.Layer {
	layers := make([]routetree.Layer, 0, len(r.routes))
	for _, route := range r.routes {
		if route.err != nil {
			continue
		}
		layers = append(layers, route.layer())
	}
	return layers
}

func (r *Route) layer() routetree.Layer {
	if r.sub != nil {
		return routetree.Layer{
			Kind:     routetree.KindRouter,
			Patterns: r.patterns,
			Children: r.sub.Layers(),
		}
	}

	l := routetree.Layer{
		Kind:     routetree.KindRoute,
		Patterns: r.patterns,
	}

	methods := r.methods
	if len(methods) == 0 {
		methods = []string{""}
	}

	for _, method := range methods {
		for _, mw := range r.stack {
			l.Children = append(l.Children, routetree.Layer{
				Kind:    routetree.KindHandler,
				Method:  method,
				Handler: mw,
			})
		}
		if r.handler != nil {
			l.Children = append(l.Children, routetree.Layer{
				Kind:    routetree.KindHandler,
				Method:  method,
				Handler: r.handler,
			})
		}
	}

	return l
}
