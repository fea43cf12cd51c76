package mux

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	t.Run("creates empty router", func(t *testing.T) {
		r := NewRouter()
		require.NotNil(t, r)
		assert.Empty(t, r.routes)
	})
}

func TestRouterServeHTTP(t *testing.T) {
	t.Run("dispatches to matched handler", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/hello", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "world")
		})

		w := serve(r, http.MethodGet, "/hello")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "world", w.Body.String())
	})

	t.Run("returns 404 for unmatched path", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/hello", func(_ http.ResponseWriter, _ *http.Request) {})

		w := serve(r, http.MethodGet, "/notfound")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("uses custom NotFoundHandler", func(t *testing.T) {
		r := NewRouter()
		r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "custom 404")
		})

		w := serve(r, http.MethodGet, "/notfound")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "custom 404", w.Body.String())
	})

	t.Run("returns 405 with Allow header", func(t *testing.T) {
		r := NewRouter()
		r.Get("/items", func(_ http.ResponseWriter, _ *http.Request) {})
		r.Post("/items", func(_ http.ResponseWriter, _ *http.Request) {})

		w := serve(r, http.MethodDelete, "/items")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
	})

	t.Run("uses custom MethodNotAllowedHandler", func(t *testing.T) {
		r := NewRouter()
		r.Get("/items", func(_ http.ResponseWriter, _ *http.Request) {})
		r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		w := serve(r, http.MethodPut, "/items")
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "GET", w.Header().Get("Allow"))
	})

	t.Run("sets Vars in request context", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, Vars(req)["id"])
		})

		w := serve(r, http.MethodGet, "/users/42")
		assert.Equal(t, "42", w.Body.String())
	})

	t.Run("accepts express style parameters", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/users/:id/books/:book", func(w http.ResponseWriter, req *http.Request) {
			vars := Vars(req)
			fmt.Fprintf(w, "%s/%s", vars["id"], vars["book"])
		})

		w := serve(r, http.MethodGet, "/users/7/books/go")
		assert.Equal(t, "7/go", w.Body.String())
	})

	t.Run("matches an optional trailing slash", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/hello", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "ok")
		})

		w := serve(r, http.MethodGet, "/hello/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("sets CurrentRoute in request context", func(t *testing.T) {
		r := NewRouter()
		var route *Route
		expected := r.HandleFunc("/test", func(_ http.ResponseWriter, req *http.Request) {
			route = CurrentRoute(req)
		})

		serve(r, http.MethodGet, "/test")
		assert.Same(t, expected, route)
	})

	t.Run("first registered route wins", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/a/{x}", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "param")
		})
		r.HandleFunc("/a/b", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "literal")
		})

		w := serve(r, http.MethodGet, "/a/b")
		assert.Equal(t, "param", w.Body.String())
	})

	t.Run("route without handler responds 404", func(t *testing.T) {
		r := NewRouter()
		r.Path("/empty")

		w := serve(r, http.MethodGet, "/empty")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouterCleanPath(t *testing.T) {
	t.Run("cleans dot segments", func(t *testing.T) {
		r := NewRouter()
		r.HandleFunc("/a/b", func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, req.URL.Path)
		})

		w := serve(r, http.MethodGet, "/a/x/../b")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "/a/b", w.Body.String())
	})

	t.Run("SkipClean keeps the raw path", func(t *testing.T) {
		r := NewRouter().SkipClean(true)
		r.HandleFunc("/a/x/../b", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "raw")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.URL.Path = "/a/x/../b"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "raw", w.Body.String())
	})
}

func TestRouterUseEncodedPath(t *testing.T) {
	r := NewRouter().UseEncodedPath()
	r.HandleFunc("/files/{name}", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, Vars(req)["name"])
	})

	w := serve(r, http.MethodGet, "/files/a%2Fb")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a%2Fb", w.Body.String())
}

func TestRouterMatch(t *testing.T) {
	r := NewRouter()
	route := r.Get("/users/{id:int}", func(_ http.ResponseWriter, _ *http.Request) {})

	t.Run("matches", func(t *testing.T) {
		var match RouteMatch
		ok := r.Match(httptest.NewRequest(http.MethodGet, "/users/5", nil), &match)
		require.True(t, ok)
		assert.Same(t, route, match.Route)
		assert.Equal(t, map[string]string{"id": "5"}, match.Vars)
	})

	t.Run("macro rejects value", func(t *testing.T) {
		var match RouteMatch
		ok := r.Match(httptest.NewRequest(http.MethodGet, "/users/abc", nil), &match)
		assert.False(t, ok)
		assert.ErrorIs(t, match.MatchErr, ErrNotFound)
	})

	t.Run("method mismatch", func(t *testing.T) {
		var match RouteMatch
		ok := r.Match(httptest.NewRequest(http.MethodPost, "/users/5", nil), &match)
		assert.False(t, ok)
		assert.ErrorIs(t, match.MatchErr, ErrMethodMismatch)
	})
}

func TestRouterRouteFactoryMethods(t *testing.T) {
	tests := []struct {
		name     string
		register func(r *Router, h func(http.ResponseWriter, *http.Request)) *Route
		method   string
	}{
		{"Get", func(r *Router, h func(http.ResponseWriter, *http.Request)) *Route { return r.Get("/x", h) }, http.MethodGet},
		{"Post", func(r *Router, h func(http.ResponseWriter, *http.Request)) *Route { return r.Post("/x", h) }, http.MethodPost},
		{"Put", func(r *Router, h func(http.ResponseWriter, *http.Request)) *Route { return r.Put("/x", h) }, http.MethodPut},
		{"Patch", func(r *Router, h func(http.ResponseWriter, *http.Request)) *Route { return r.Patch("/x", h) }, http.MethodPatch},
		{"Delete", func(r *Router, h func(http.ResponseWriter, *http.Request)) *Route { return r.Delete("/x", h) }, http.MethodDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter()
			route := tt.register(r, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "ok")
			})

			methods, err := route.GetMethods()
			require.NoError(t, err)
			assert.Equal(t, []string{tt.method}, methods)

			w := serve(r, tt.method, "/x")
			assert.Equal(t, "ok", w.Body.String())
		})
	}

	t.Run("Methods creates method only route", func(t *testing.T) {
		r := NewRouter()
		r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "any path")
		})

		w := serve(r, http.MethodOptions, "/whatever/path")
		assert.Equal(t, "any path", w.Body.String())
	})

	t.Run("Paths matches every alternative", func(t *testing.T) {
		r := NewRouter()
		r.Paths("/a", "/b/{id}").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, req.URL.Path, Vars(req)["id"])
		})

		assert.Equal(t, "/a", serve(r, http.MethodGet, "/a").Body.String())
		assert.Equal(t, "/b/11", serve(r, http.MethodGet, "/b/1").Body.String())
	})
}

func TestRouterMount(t *testing.T) {
	t.Run("sub router matches remainder", func(t *testing.T) {
		sub := NewRouter()
		sub.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, "user ", Vars(req)["id"])
		})

		r := NewRouter()
		r.Mount("/users", sub)

		w := serve(r, http.MethodGet, "/users/3")
		assert.Equal(t, "user 3", w.Body.String())
	})

	t.Run("prefix stops at a segment boundary", func(t *testing.T) {
		sub := NewRouter()
		sub.Get("/", func(_ http.ResponseWriter, _ *http.Request) {})

		r := NewRouter()
		r.Mount("/users", sub)

		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/users").Code)
		assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/usersx").Code)
	})

	t.Run("merges vars across levels", func(t *testing.T) {
		sub := NewRouter()
		sub.Get("/books/:book", func(w http.ResponseWriter, req *http.Request) {
			vars := Vars(req)
			fmt.Fprintf(w, "%s:%s", vars["user"], vars["book"])
		})

		r := NewRouter()
		r.Mount("/users/:user", sub)

		w := serve(r, http.MethodGet, "/users/ann/books/dune")
		assert.Equal(t, "ann:dune", w.Body.String())
	})

	t.Run("numbers unnamed captures across levels", func(t *testing.T) {
		var vars map[string]string
		sub := NewRouter()
		sub.Get("/files/*", func(_ http.ResponseWriter, req *http.Request) {
			vars = Vars(req)
		})

		r := NewRouter()
		r.Mount("/(v1|v2)", sub)

		serve(r, http.MethodGet, "/v2/files/a/b.txt")
		assert.Equal(t, map[string]string{"0": "v2", "1": "a/b.txt"}, vars)
	})

	t.Run("mount without prefix", func(t *testing.T) {
		sub := NewRouter()
		sub.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "pong")
		})

		r := NewRouter()
		r.Mount("", sub)

		assert.Equal(t, "pong", serve(r, http.MethodGet, "/ping").Body.String())
	})

	t.Run("method mismatch inside sub router", func(t *testing.T) {
		sub := NewRouter()
		sub.Get("/x", func(_ http.ResponseWriter, _ *http.Request) {})

		r := NewRouter()
		r.Mount("/api", sub)

		w := serve(r, http.MethodPost, "/api/x")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET", w.Header().Get("Allow"))
	})

	t.Run("falls through when sub router misses", func(t *testing.T) {
		sub := NewRouter()
		sub.Get("/x", func(_ http.ResponseWriter, _ *http.Request) {})

		r := NewRouter()
		r.Mount("/api", sub)
		r.Get("/api/y", func(w http.ResponseWriter, req *http.Request) {
			fmt.Fprint(w, len(Vars(req)))
		})

		w := serve(r, http.MethodGet, "/api/y")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0", w.Body.String())
	})

	t.Run("PathPrefix subrouter", func(t *testing.T) {
		r := NewRouter()
		api := r.PathPrefix("/api").Subrouter()
		api.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "up")
		})

		assert.Equal(t, "up", serve(r, http.MethodGet, "/api/status").Body.String())
	})
}

func TestRouterPathRegexp(t *testing.T) {
	t.Run("named groups become vars", func(t *testing.T) {
		r := NewRouter()
		r.NewRoute().PathRegexp(regexp.MustCompile(`^/orders/(?P<id>\d+)$`)).
			HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				fmt.Fprint(w, Vars(req)["id"])
			})

		assert.Equal(t, "12", serve(r, http.MethodGet, "/orders/12").Body.String())
		assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/orders/x").Code)
	})

	t.Run("declared names", func(t *testing.T) {
		r := NewRouter()
		r.NewRoute().PathRegexp(regexp.MustCompile(`/a/(\w+)/b/(\w+)`), "x", "y").
			HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				vars := Vars(req)
				fmt.Fprint(w, vars["x"], vars["y"])
			})

		assert.Equal(t, "12", serve(r, http.MethodGet, "/a/1/b/2").Body.String())
	})

	t.Run("opaque regexp still routes", func(t *testing.T) {
		r := NewRouter()
		route := r.NewRoute().PathRegexp(regexp.MustCompile(`^/(foo|bar)/baz+$`)).
			HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "ok")
			})

		assert.NoError(t, route.GetError())
		assert.Equal(t, "ok", serve(r, http.MethodGet, "/bar/bazzz").Body.String())
	})
}

func TestRouterUseCache(t *testing.T) {
	r := NewRouter()
	calls := 0
	r.Use(func(next http.Handler) http.Handler {
		calls++
		return next
	})
	route := r.Get("/x", func(_ http.ResponseWriter, _ *http.Request) {})

	serve(r, http.MethodGet, "/x")
	serve(r, http.MethodGet, "/x")
	assert.Equal(t, 1, calls)

	route.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})
	serve(r, http.MethodGet, "/x")
	assert.Equal(t, 2, calls)
}
