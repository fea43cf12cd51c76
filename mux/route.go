package mux

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/vitalvas/oasmux/pathtpl"
)

// Route stores information to match a request and the stack of handlers
// that serves it.
type Route struct {
	router   *Router
	patterns []*pathtpl.Pattern
	prefix   bool
	methods  []string
	stack    []Middleware
	handler  http.Handler
	sub      *Router
	err      error

	// gen is bumped on every change to the handler stack so cached
	// chains are rebuilt.
	gen   atomic.Uint64
	chain atomic.Pointer[cachedHandler]
}

// match matches this route against path, the part of the request path
// left by enclosing mounts.
func (r *Route) match(req *http.Request, path string, match *RouteMatch) bool {
	if r.err != nil {
		return false
	}

	var (
		pattern *pathtpl.Pattern
		values  []string
		rest    = path
		matched = len(r.patterns) == 0
	)

	for _, p := range r.patterns {
		if r.prefix {
			if vals, remainder, ok := p.MatchPrefix(path); ok {
				pattern, values, rest, matched = p, vals, remainder, true
				break
			}
			continue
		}
		if vals, ok := p.Match(path); ok {
			pattern, values, matched = p, vals, true
			break
		}
	}

	if !matched {
		return false
	}

	// If method didn't match but the path did, record the mismatch.
	if len(r.methods) > 0 && !matchInArray(r.methods, req.Method) {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	prevVars, prevUnnamed := match.Vars, match.unnamed
	if pattern != nil {
		match.Vars, match.unnamed = setVars(pattern.Captures(), values, prevVars, prevUnnamed)
	}

	// If the route mounts a router, delegate the remainder to it.
	if r.sub != nil {
		if r.sub.match(req, rest, match) {
			return true
		}
		match.Vars, match.unnamed = prevVars, prevUnnamed
		return false
	}

	match.Route = r
	match.Handler = r.stackHandler()

	return true
}

// setVars returns a copy of vars extended with the captured values.
// Unnamed captures are keyed by their ordinal offset by the unnamed
// captures of enclosing mounts.
func setVars(captures []pathtpl.Capture, values []string, vars map[string]string, unnamed int) (map[string]string, int) {
	out := make(map[string]string, len(vars)+len(captures))
	for k, v := range vars {
		out[k] = v
	}

	next := unnamed
	for i, c := range captures {
		name := c.Name
		if c.Unnamed {
			name = strconv.Itoa(unnamed + c.Index)
			next = max(next, unnamed+c.Index+1)
		}
		if values[i] == "" && c.Optional {
			continue
		}
		out[name] = values[i]
	}

	return out, next
}

// stackHandler returns the route middleware stack around the final
// handler, building it once per route generation.
func (r *Route) stackHandler() http.Handler {
	if r.handler == nil {
		return nil
	}

	gen := r.gen.Load()
	if c := r.chain.Load(); c != nil && c.gen == gen {
		return c.handler
	}

	handler := r.handler
	for i := len(r.stack) - 1; i >= 0; i-- {
		handler = r.stack[i].Middleware(handler)
	}
	r.chain.Store(&cachedHandler{gen: gen, handler: handler})

	return handler
}

// generation identifies the current state of the route handler stack.
func (r *Route) generation() uint64 {
	return r.gen.Load()
}

func (r *Route) touch() {
	r.gen.Add(1)
}

// --- Matchers ---

func (r *Route) setPatterns(tpls []string) {
	if r.err != nil {
		return
	}
	if len(tpls) == 0 {
		r.err = errors.New("mux: route needs at least one path")
		return
	}

	patterns := make([]*pathtpl.Pattern, 0, len(tpls))
	for _, tpl := range tpls {
		p, err := pathtpl.Parse(tpl)
		if err != nil {
			r.err = err
			return
		}
		patterns = append(patterns, p)
	}
	r.patterns = patterns
}

// Path sets the path matcher of the route per RFC 3986 Section 3.3.
func (r *Route) Path(tpl string) *Route {
	r.setPatterns([]string{tpl})
	return r
}

// Paths sets alternative path matchers. The route matches when any of
// them does, and each alternative is documented as its own path.
func (r *Route) Paths(tpls ...string) *Route {
	r.setPatterns(tpls)
	return r
}

// PathPrefix sets a path prefix matcher. A route with a prefix matches
// every path below it on a segment boundary.
func (r *Route) PathPrefix(tpl string) *Route {
	r.setPatterns([]string{tpl})
	r.prefix = true
	return r
}

// PathRegexp sets a compiled regexp as the path matcher. Capture groups are
// named by their group name, else by names in order, else by ordinal.
// A regexp that cannot be rendered as a path template still routes but is
// left out of generated documentation.
func (r *Route) PathRegexp(re *regexp.Regexp, names ...string) *Route {
	if r.err != nil {
		return r
	}
	p, err := pathtpl.FromRegexp(re, names...)
	if p == nil {
		r.err = err
		return r
	}
	r.patterns = append(r.patterns[:0], p)
	return r
}

// Methods adds a method matcher to the route. Methods are matched against
// the request method token defined in RFC 9110 Section 9.
// Calling Methods multiple times replaces the previous method matcher.
func (r *Route) Methods(methods ...string) *Route {
	upper := make([]string, len(methods))
	for i, m := range methods {
		upper[i] = strings.ToUpper(m)
	}
	r.methods = upper
	return r
}

// Use appends middleware to the route's own handler stack. The stack runs
// in order before the final handler, only when the route matches.
func (r *Route) Use(mws ...Middleware) *Route {
	r.stack = append(r.stack, mws...)
	r.touch()
	return r
}

// Handler sets a handler for the route.
func (r *Route) Handler(handler http.Handler) *Route {
	if r.err == nil {
		r.handler = handler
		r.touch()
	}
	return r
}

// HandlerFunc sets a handler function for the route.
func (r *Route) HandlerFunc(f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handler(http.HandlerFunc(f))
}

// Subrouter creates a new Router mounted at the route's path.
func (r *Route) Subrouter() *Router {
	router := &Router{
		skipClean:      r.router.skipClean,
		useEncodedPath: r.router.useEncodedPath,
	}
	r.prefix = true
	r.sub = router
	return router
}

// --- Inspection ---

// GetHandler returns the handler for the route, if any.
func (r *Route) GetHandler() http.Handler {
	return r.handler
}

// GetStack returns the route's own middleware stack.
func (r *Route) GetStack() []Middleware {
	return append([]Middleware(nil), r.stack...)
}

// GetPathTemplates returns the source of every path matcher of the route.
func (r *Route) GetPathTemplates() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.patterns) == 0 {
		return nil, errors.New("mux: route doesn't have a path")
	}
	templates := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		templates[i] = p.String()
	}
	return templates, nil
}

// GetMethods returns the methods the route matches against.
func (r *Route) GetMethods() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	if len(r.methods) == 0 {
		return nil, errors.New("mux: route doesn't have methods")
	}
	return append([]string(nil), r.methods...), nil
}

// GetError returns any error that was set on the route.
func (r *Route) GetError() error {
	return r.err
}
