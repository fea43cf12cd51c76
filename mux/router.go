package mux

import (
	"net/http"
	"strings"
	"sync"
)

// Router registers routes to be matched and dispatches a handler.
//
// It implements the http.Handler interface, so it can be registered to serve
// requests:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/", handler)
//	http.ListenAndServe(":8080", r)
//
// A Router can be mounted inside another one with Mount or
// PathPrefix().Subrouter(). A mounted router matches the part of the path
// left after the mount prefix.
type Router struct {
	// NotFoundHandler is called when no route matches.
	// If nil, http.NotFoundHandler() is used.
	// Corresponds to 404 Not Found per RFC 9110 Section 15.5.5.
	NotFoundHandler http.Handler

	// MethodNotAllowedHandler is called when a route matches the path
	// but not the method. If nil, a default 405 handler is used.
	// Per RFC 9110 Section 15.5.6, the Allow header is always set before
	// this handler is invoked.
	MethodNotAllowedHandler http.Handler

	routes      []*Route
	middlewares []MiddlewareFunc

	// handlerCache caches the middleware-wrapped handler per route
	// to avoid re-wrapping on every request.
	handlerCache sync.Map // map[*Route]cachedHandler

	skipClean      bool
	useEncodedPath bool
}

// cachedHandler is a wrapped handler tagged with the route generation it
// was built from.
type cachedHandler struct {
	gen     uint64
	handler http.Handler
}

// NewRouter returns a new router instance.
func NewRouter() *Router {
	return &Router{}
}

// ServeHTTP dispatches the handler registered in the matched route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Normalize the request path per RFC 3986 Section 5.2.4
	// (removing dot segments) unless SkipClean is enabled.
	if !r.skipClean {
		path := r.requestPath(req)
		if cleaned := cleanPath(path); cleaned != path {
			u := *req.URL
			u.Path = cleaned
			u.RawPath = ""
			req = req.Clone(req.Context())
			req.URL = &u
		}
	}

	var match RouteMatch
	var handler http.Handler

	if r.Match(req, &match) {
		handler = match.Handler
		if handler == nil {
			handler = http.NotFoundHandler()
		}
		req = setRouteContext(req, match.Route, match.Vars)
	} else {
		if match.methodNotAllowed {
			// RFC 9110 Section 15.5.6: the origin server MUST generate an
			// Allow header field in a 405 response.
			allowed := allowedMethods(r, req)
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			handler = r.MethodNotAllowedHandler
			if handler == nil {
				handler = methodNotAllowedHandler()
			}
		} else {
			handler = r.NotFoundHandler
			if handler == nil {
				handler = http.NotFoundHandler()
			}
		}
	}

	handler.ServeHTTP(w, req)
}

// Match attempts to match the given request against the router's routes.
// Distinguishes between 404 Not Found and 405 Method Not Allowed by
// tracking method mismatches independently across route iteration.
func (r *Router) Match(req *http.Request, match *RouteMatch) bool {
	return r.match(req, r.requestPath(req), match)
}

func (r *Router) match(req *http.Request, path string, match *RouteMatch) bool {
	var methodNotAllowed bool
	for _, route := range r.routes {
		if route.match(req, path, match) {
			if match.Handler != nil && len(r.middlewares) > 0 {
				match.Handler = r.wrap(match.Route, match.Handler)
			}
			return true
		}
		if match.MatchErr == ErrMethodMismatch {
			methodNotAllowed = true
			match.MatchErr = nil
		}
	}

	if methodNotAllowed {
		match.MatchErr = ErrMethodMismatch
		match.methodNotAllowed = true
		return false
	}

	match.MatchErr = ErrNotFound
	return false
}

// wrap returns the router middleware chain around handler, reusing the
// cached chain while the matched route is unchanged.
func (r *Router) wrap(route *Route, handler http.Handler) http.Handler {
	gen := route.generation()
	if cached, ok := r.handlerCache.Load(route); ok {
		if c := cached.(cachedHandler); c.gen == gen {
			return c.handler
		}
	}

	wrapped := r.applyMiddleware(handler)
	r.handlerCache.Store(route, cachedHandler{gen: gen, handler: wrapped})
	return wrapped
}

func (r *Router) requestPath(req *http.Request) string {
	if r.useEncodedPath {
		return requestURIPath(req.URL)
	}
	return req.URL.Path
}

// SkipClean defines the path cleaning behavior for new routes.
// When true, the path will not be cleaned (path.Clean will not be called).
func (r *Router) SkipClean(value bool) *Router {
	r.skipClean = value
	return r
}

// UseEncodedPath tells the router to match the percent-encoded original path
// (RFC 3986 Section 2.1) to the routes, instead of the decoded path.
func (r *Router) UseEncodedPath() *Router {
	r.useEncodedPath = true
	return r
}

// --- Route factory methods ---

// NewRoute creates an empty route for configuration.
func (r *Router) NewRoute() *Route {
	route := &Route{router: r}
	r.routes = append(r.routes, route)
	return route
}

// Handle registers a new route with a matcher for the URL path and handler.
func (r *Router) Handle(path string, handler http.Handler) *Route {
	return r.NewRoute().Path(path).Handler(handler)
}

// HandleFunc registers a new route with a matcher for the URL path and
// handler function.
func (r *Router) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.NewRoute().Path(path).HandlerFunc(f)
}

// Get registers a GET route.
func (r *Router) Get(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.HandleFunc(path, f).Methods(http.MethodGet)
}

// Post registers a POST route.
func (r *Router) Post(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.HandleFunc(path, f).Methods(http.MethodPost)
}

// Put registers a PUT route.
func (r *Router) Put(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.HandleFunc(path, f).Methods(http.MethodPut)
}

// Patch registers a PATCH route.
func (r *Router) Patch(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.HandleFunc(path, f).Methods(http.MethodPatch)
}

// Delete registers a DELETE route.
func (r *Router) Delete(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.HandleFunc(path, f).Methods(http.MethodDelete)
}

// Path registers a new route with a matcher for the URL path.
func (r *Router) Path(tpl string) *Route {
	return r.NewRoute().Path(tpl)
}

// Paths registers a new route matching any of the given paths.
func (r *Router) Paths(tpls ...string) *Route {
	return r.NewRoute().Paths(tpls...)
}

// PathPrefix registers a new route with a matcher for the URL path prefix.
func (r *Router) PathPrefix(tpl string) *Route {
	return r.NewRoute().PathPrefix(tpl)
}

// Methods registers a new route with a matcher for HTTP methods.
func (r *Router) Methods(methods ...string) *Route {
	return r.NewRoute().Methods(methods...)
}

// Mount attaches sub under the given path prefix. Requests below the
// prefix are matched by sub against the remainder of the path.
func (r *Router) Mount(prefix string, sub *Router) *Route {
	route := r.NewRoute()
	if prefix != "" {
		route.PathPrefix(prefix)
	}
	route.sub = sub
	return route
}

// applyMiddleware wraps the handler with all registered middleware.
func (r *Router) applyMiddleware(handler http.Handler) http.Handler {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i].Middleware(handler)
	}
	return handler
}

// Use appends a MiddlewareFunc to the chain. Middleware is applied to
// matched handlers only. Chains built before the call are dropped.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.middlewares = append(r.middlewares, mwf...)
	r.handlerCache.Clear()
}
