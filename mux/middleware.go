package mux

import (
	"net/http"
	"slices"
	"strings"
)

// Middleware wraps an http.Handler. Values implementing it can be placed
// on a route stack with Route.Use; their identity is preserved in the
// layer snapshot returned by Router.Layers.
type Middleware interface {
	Middleware(http.Handler) http.Handler
}

// MiddlewareFunc is a function which receives an http.Handler and returns
// another http.Handler. It can be used to wrap handlers with additional
// behavior such as logging, authentication, etc.
type MiddlewareFunc func(http.Handler) http.Handler

// Middleware allows MiddlewareFunc to implement the Middleware interface.
func (mw MiddlewareFunc) Middleware(handler http.Handler) http.Handler {
	return mw(handler)
}

// CORSMethodMiddleware automatically sets the Access-Control-Allow-Methods
// response header (Fetch Standard, CORS protocol) on requests to allow all
// methods that are registered for the route that matches the request.
func CORSMethodMiddleware(r *Router) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			allMethods, err := getAllMethodsForRoute(r, req)
			if err == nil {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(allMethods, ","))
			}
			next.ServeHTTP(w, req)
		})
	}
}

// getAllMethodsForRoute returns all HTTP methods registered for routes
// matching the given request's path, including routes of mounted routers.
// OPTIONS is always part of a non-empty result.
func getAllMethodsForRoute(router *Router, req *http.Request) ([]string, error) {
	var allMethods []string

	for _, method := range knownMethods {
		testReq := req.Clone(req.Context())
		testReq.Method = method
		if router.Match(testReq, &RouteMatch{}) {
			allMethods = append(allMethods, method)
		}
	}

	if len(allMethods) == 0 {
		return nil, ErrNotFound
	}

	if !slices.Contains(allMethods, http.MethodOptions) {
		allMethods = append(allMethods, http.MethodOptions)
	}

	return allMethods, nil
}
