package mux

import (
	"context"
	"errors"
	"net/http"
)

// routeContextKey is an unexported type for the single context key.
type routeContextKey struct{}

// ctxKey is the single context key used to store both route and vars.
var ctxKey = routeContextKey{}

// routeContext holds the matched route and extracted variables.
type routeContext struct {
	route *Route
	vars  map[string]string
}

// Vars returns the route variables for the current request, if any.
// Unnamed captures are keyed by their ordinal: "0", "1", and so on.
func Vars(r *http.Request) map[string]string {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok {
		return rc.vars
	}
	return nil
}

// VarGet returns the value of a single route variable by name and a boolean
// indicating whether the variable exists.
func VarGet(r *http.Request, name string) (string, bool) {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok && rc.vars != nil {
		val, exists := rc.vars[name]
		return val, exists
	}
	return "", false
}

// CurrentRoute returns the matched route for the current request, if any.
// This only works when called inside the handler of the matched route
// because the matched route is stored in the request context.
func CurrentRoute(r *http.Request) *Route {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok {
		return rc.route
	}
	return nil
}

// SetURLVars sets the URL variables for the given request, returning the
// modified request. This is intended for testing route handlers.
func SetURLVars(r *http.Request, val map[string]string) *http.Request {
	var route *Route
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok {
		route = rc.route
	}
	return setRouteContext(r, route, val)
}

// setRouteContext stores both the matched route and vars in the request
// context using a single WithContext call.
func setRouteContext(r *http.Request, route *Route, vars map[string]string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKey, &routeContext{route: route, vars: vars})
	return r.WithContext(ctx)
}

// RouteMatch stores information about a matched route.
type RouteMatch struct {
	// Route is the matched route, if any.
	Route *Route

	// Handler is the handler to use for the matched route.
	Handler http.Handler

	// Vars contains the extracted path variables from the matched route
	// and every router it is mounted under.
	Vars map[string]string

	// MatchErr is set to ErrMethodMismatch when the request method
	// does not match but the path does. This triggers a 405 response
	// per RFC 9110 Section 15.5.6.
	MatchErr error

	// methodNotAllowed signals that the router should respond with
	// 405 Method Not Allowed instead of 404 Not Found.
	methodNotAllowed bool

	// unnamed counts the unnamed captures of enclosing mounts.
	unnamed int
}

// ErrMethodMismatch is returned when the method in the request does not match
// the method defined against the route. Triggers 405 Method Not Allowed
// per RFC 9110 Section 15.5.6.
var ErrMethodMismatch = errors.New("method is not allowed")

// ErrNotFound is returned when no route match is found. Triggers 404 Not Found
// per RFC 9110 Section 15.5.5.
var ErrNotFound = errors.New("no matching route was found")
