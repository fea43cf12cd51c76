// Package mux implements a request router and dispatcher for matching
// incoming HTTP requests to their respective handler functions.
//
// The package implements routing semantics based on:
//   - RFC 9110 (HTTP Semantics)
//   - RFC 3986 (URIs)
//
// Features:
//   - Path variables with optional regexp constraints and macros
//   - Express style parameters, optional parameters and wildcards
//   - Routes with several alternative paths
//   - An ordered middleware stack per route
//   - Sub-routers mounted on a path prefix
//   - A read-only layer snapshot for documentation generators
//
// # Router
//
// Create a new router and register handlers:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/articles/{category}/{id:[0-9]+}", ArticleHandler)
//	r.Get("/products/:key", ProductHandler)
//	http.Handle("/", r)
//
// Routes are tried in registration order and the first match wins. A path
// matches with or without a trailing slash unless the pattern itself ends
// with one.
//
// # Path Variables
//
// Variables are written as {name}, {name:pattern} or {name:macro}, or in
// the express form :name, :name(pattern) and :name? for an optional
// segment. Unnamed captures are written as (pattern) or *:
//
//	r.HandleFunc("/articles/{category}/{id:[0-9]+}", handler)
//	r.HandleFunc("/files/:dir/*", handler)
//
// Variables are stored in the request context and read with Vars. Unnamed
// captures are keyed by their position, starting at "0":
//
//	vars := mux.Vars(r)
//	category := vars["category"]
//	rest := vars["0"]
//
// Available macros:
//
//	uuid     - RFC 4122 UUID (e.g. 550e8400-e29b-41d4-a716-446655440000)
//	int      - unsigned integer (e.g. 42)
//	float    - decimal number (e.g. 3.14, 42, .5)
//	slug     - URL-safe slug (e.g. my-post-title)
//	alpha    - alphabetic characters (e.g. hello)
//	alphanum - alphanumeric characters (e.g. abc123)
//	date     - ISO 8601 date (e.g. 2024-01-15)
//	hex      - hexadecimal string (e.g. deadBEEF)
//	domain   - domain name (e.g. example.com)
//
// A precompiled regular expression can be used instead of a template:
//
//	r.NewRoute().PathRegexp(regexp.MustCompile(`^/v(\d+)/(\w+)$`), "version", "name")
//
// # Route Stack
//
// Each route owns an ordered stack of middleware that runs only when the
// route matches:
//
//	r.Post("/users", createUser).Use(authMiddleware, auditMiddleware)
//
// Values placed on the stack keep their identity in the layer snapshot,
// so a documentation generator can find metadata attached to a route.
//
// # Sub-routers
//
// A router mounted on a prefix matches the remainder of the path:
//
//	users := mux.NewRouter()
//	users.Get("/:id", getUser)
//	r.Mount("/users", users)
//
//	api := r.PathPrefix("/api/{version}").Subrouter()
//	api.Get("/status", status)
//
// Variables from every level are merged. Unnamed captures keep counting
// across levels.
//
// # Middleware
//
// Router middleware wraps every matched handler:
//
//	r.Use(loggingMiddleware)
//
// # Method Not Allowed
//
// When the path matches but the method does not, the router responds with
// 405 and an Allow header listing the methods that would have matched.
//
// # Layers
//
// Router.Layers returns a snapshot of routes, their stacks and mounted
// routers. It satisfies the routetree.Source interface.
package mux
