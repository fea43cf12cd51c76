package muxhandlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasmux/mux"
)

var (
	uuidV4Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	uuidV7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
)

func requestIDRouter(t testing.TB, cfg RequestIDConfig, handler http.HandlerFunc) *mux.Router {
	t.Helper()
	mw, err := RequestIDMiddleware(cfg)
	require.NoError(t, err)

	if handler == nil {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}
	}

	r := mux.NewRouter()
	r.HandleFunc("/test", handler).Methods(http.MethodGet)
	r.Use(mw)
	return r
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		config         RequestIDConfig
		incomingHeader string
		wantHeader     string
		wantGenerated  bool
	}{
		{
			name:          "generates UUID v7 by default",
			config:        RequestIDConfig{},
			wantGenerated: true,
		},
		{
			name:           "does not trust incoming by default",
			config:         RequestIDConfig{},
			incomingHeader: "existing-id",
			wantGenerated:  true,
		},
		{
			name:           "trusts incoming when configured",
			config:         RequestIDConfig{TrustIncoming: true},
			incomingHeader: "existing-id",
			wantHeader:     "existing-id",
		},
		{
			name:           "replaces oversized incoming id",
			config:         RequestIDConfig{TrustIncoming: true},
			incomingHeader: strings.Repeat("a", maxIncomingIDLength+1),
			wantGenerated:  true,
		},
		{
			name:          "generates when trust incoming but no header",
			config:        RequestIDConfig{TrustIncoming: true},
			wantGenerated: true,
		},
		{
			name:       "custom generate func",
			config:     RequestIDConfig{GenerateFunc: func(_ *http.Request) string { return "custom-id" }},
			wantHeader: "custom-id",
		},
		{
			name:       "custom header name",
			config:     RequestIDConfig{HeaderName: "x-trace-id", GenerateFunc: func(_ *http.Request) string { return "trace-123" }},
			wantHeader: "trace-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headerName := tt.config.HeaderName
			if headerName == "" {
				headerName = DefaultRequestIDHeader
			}

			var requestHeader, contextID string
			r := requestIDRouter(t, tt.config, func(_ http.ResponseWriter, req *http.Request) {
				requestHeader = req.Header.Get(headerName)
				contextID = RequestIDFromContext(req.Context())
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incomingHeader != "" {
				req.Header.Set(headerName, tt.incomingHeader)
			}
			r.ServeHTTP(w, req)

			responseHeader := w.Header().Get(headerName)
			if tt.wantGenerated {
				assert.Regexp(t, uuidV7Regex, responseHeader)
			} else {
				assert.Equal(t, tt.wantHeader, responseHeader)
			}
			assert.Equal(t, responseHeader, requestHeader)
			assert.Equal(t, responseHeader, contextID)
		})
	}

	t.Run("invalid header name", func(t *testing.T) {
		_, err := RequestIDMiddleware(RequestIDConfig{HeaderName: "X Request ID"})
		assert.ErrorIs(t, err, ErrInvalidHeaderName)
	})

	t.Run("each request gets unique ID", func(t *testing.T) {
		r := requestIDRouter(t, RequestIDConfig{}, nil)

		w1 := httptest.NewRecorder()
		r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/test", nil))
		w2 := httptest.NewRecorder()
		r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.NotEmpty(t, w1.Header().Get(DefaultRequestIDHeader))
		assert.NotEqual(t, w1.Header().Get(DefaultRequestIDHeader), w2.Header().Get(DefaultRequestIDHeader))
	})

	t.Run("generate func receives request", func(t *testing.T) {
		var capturedPath string
		r := requestIDRouter(t, RequestIDConfig{
			GenerateFunc: func(r *http.Request) string {
				capturedPath = r.URL.Path
				return "path-based-id"
			},
		}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, "/test", capturedPath)
		assert.Equal(t, "path-based-id", w.Header().Get(DefaultRequestIDHeader))
	})

	t.Run("empty id sets nothing", func(t *testing.T) {
		var requestHeader, contextID string
		r := requestIDRouter(t, RequestIDConfig{
			GenerateFunc: func(_ *http.Request) string { return "" },
		}, func(_ http.ResponseWriter, req *http.Request) {
			requestHeader = req.Header.Get(DefaultRequestIDHeader)
			contextID = RequestIDFromContext(req.Context())
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Empty(t, requestHeader)
		assert.Empty(t, contextID)
		assert.Empty(t, w.Header().Get(DefaultRequestIDHeader))
	})
}

func TestValidIncomingID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"abc-123", true},
		{"", false},
		{"bad\nvalue", false},
		{strings.Repeat("x", maxIncomingIDLength), true},
		{strings.Repeat("x", maxIncomingIDLength+1), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validIncomingID(tt.id), "%q", tt.id)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	t.Run("returns empty for bare context", func(t *testing.T) {
		assert.Empty(t, RequestIDFromContext(context.Background()))
	})
}

func TestGenerateUUIDv4(t *testing.T) {
	id := GenerateUUIDv4(nil)
	assert.Regexp(t, uuidV4Regex, id)
	assert.NotEqual(t, id, GenerateUUIDv4(nil))
}

func TestGenerateUUIDv7(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		assert.Regexp(t, uuidV7Regex, GenerateUUIDv7(nil))
	})

	t.Run("uniqueness", func(t *testing.T) {
		seen := make(map[string]struct{}, 100)
		for range 100 {
			id := GenerateUUIDv7(nil)
			_, exists := seen[id]
			assert.False(t, exists, "duplicate UUID generated: %s", id)
			seen[id] = struct{}{}
		}
	})

	t.Run("time ordered", func(t *testing.T) {
		id1 := GenerateUUIDv7(nil)
		time.Sleep(2 * time.Millisecond)
		id2 := GenerateUUIDv7(nil)

		assert.Less(t, id1, id2)
	})
}

func BenchmarkRequestIDMiddleware(b *testing.B) {
	b.Run("default generator", func(b *testing.B) {
		r := requestIDRouter(b, RequestIDConfig{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		b.ResetTimer()
		for b.Loop() {
			r.ServeHTTP(httptest.NewRecorder(), req)
		}
	})

	b.Run("trust incoming", func(b *testing.B) {
		r := requestIDRouter(b, RequestIDConfig{TrustIncoming: true}, nil)
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(DefaultRequestIDHeader, "pre-existing-id")

		b.ResetTimer()
		for b.Loop() {
			r.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}
