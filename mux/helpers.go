package mux

import (
	"net/http"
	"net/url"
	"path"
	"slices"
	"sort"
)

// knownMethods are the methods probed when computing the Allow header.
var knownMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost,
	http.MethodPut, http.MethodPatch, http.MethodDelete,
	http.MethodOptions,
}

// cleanPath returns the canonical path for p, eliminating . and .. elements
// per RFC 3986 Section 5.2.4 (remove dot segments).
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	// path.Clean removes trailing slash except for root;
	// put the trailing slash back if necessary.
	if p[len(p)-1] == '/' && np != "/" {
		np += "/"
	}
	return np
}

// matchInArray returns true if the given string value is in the array.
func matchInArray(arr []string, value string) bool {
	return slices.Contains(arr, value)
}

// allowedMethods returns the HTTP methods that match the request path
// but not the request method. Used to populate the Allow header field
// required by RFC 9110 Section 15.5.6 on 405 responses.
// The returned slice is sorted alphabetically.
func allowedMethods(router *Router, req *http.Request) []string {
	var allowed []string
	for _, method := range knownMethods {
		if method == req.Method {
			continue
		}
		testReq := req.Clone(req.Context())
		testReq.Method = method
		if router.Match(testReq, &RouteMatch{}) {
			allowed = append(allowed, method)
		}
	}
	sort.Strings(allowed)
	return allowed
}

// methodNotAllowed replies to the request with an HTTP 405 method not allowed.
// The Allow header is set by the caller (Router.ServeHTTP) before this
// handler is invoked.
func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// methodNotAllowedHandler returns a HandlerFunc that replies with 405.
func methodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(methodNotAllowed)
}

// requestURIPath returns the percent-encoded path from the request URI
// per RFC 3986 Section 2.1. Falls back to the decoded Path if RawPath
// is empty.
func requestURIPath(u *url.URL) string {
	if u.RawPath != "" {
		return u.RawPath
	}
	return u.Path
}
