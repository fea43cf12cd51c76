package routetree

import (
	"log/slog"
	"strings"

	"github.com/vitalvas/oasmux/pathtpl"
)

// Meta is the routing metadata reported for a documented leaf.
type Meta struct {
	// Captures are the path captures in order, across all mount levels.
	Captures []pathtpl.Capture

	// Patterns are the source patterns that led to the leaf, outermost
	// first.
	Patterns []string
}

// VisitFunc is called once per documented leaf. Returning an error stops
// the walk and the error is returned from Walk.
type VisitFunc func(path string, meta Meta, leaf Layer) error

// Walker reconstructs full path templates from a layer tree.
type Walker struct {
	// BasePath is stripped once from the start of every rendered path.
	BasePath string

	// Adjacency controls rendering of a wildcard directly after a named
	// parameter.
	Adjacency pathtpl.Adjacency

	// HasSchema reports whether a handler carries an attached schema.
	// Leaves without a schema are skipped.
	HasSchema func(handler any) bool

	Logger *slog.Logger
}

// Walk visits every schema-bearing handler layer reachable from src in
// depth-first registration order. Every alternative pattern of a route or
// mount yields an independent branch.
func (w *Walker) Walk(src Source, visit VisitFunc) error {
	if src == nil {
		return nil
	}
	return w.walk(src.Layers(), nil, nil, visit)
}

func (w *Walker) walk(layers []Layer, prefix []pathtpl.Token, sources []string, visit VisitFunc) error {
	for _, layer := range layers {
		switch layer.Kind {
		case KindRoute, KindRouter:
			if len(layer.Patterns) == 0 {
				if err := w.walk(layer.Children, prefix, sources, visit); err != nil {
					return err
				}
				continue
			}

			for _, p := range layer.Patterns {
				if err := p.Err(); err != nil {
					w.logger().Warn("route pattern cannot be documented",
						"pattern", p.String(),
						"error", err,
					)
					continue
				}

				branch := append(sources[:len(sources):len(sources)], p.String())
				if err := w.walk(layer.Children, pathtpl.Join(prefix, p), branch, visit); err != nil {
					return err
				}
			}

		case KindHandler:
			if layer.Method == "" || w.HasSchema == nil || !w.HasSchema(layer.Handler) {
				continue
			}

			path, captures := pathtpl.Render(prefix, w.Adjacency)
			path = StripBasePath(path, w.BasePath)

			meta := Meta{Captures: captures, Patterns: sources}
			if err := visit(path, meta, layer); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *Walker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// StripBasePath removes base from the start of path once. Nothing is
// removed unless the match ends on a segment boundary. A path reduced to
// nothing becomes "/".
func StripBasePath(path, base string) string {
	base = strings.TrimSuffix(base, "/")
	if base == "" || !strings.HasPrefix(path, base) {
		return path
	}

	rest := path[len(base):]
	switch {
	case rest == "":
		return "/"
	case rest[0] != '/':
		return path
	}

	return rest
}
