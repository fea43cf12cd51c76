package muxhandlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasmux/mux"
	"github.com/vitalvas/oasmux/openapi"
	"github.com/vitalvas/oasmux/validation"
)

func sizeLimitRouter(t testing.TB, maxBytes int64, handler http.HandlerFunc, mws ...mux.Middleware) *mux.Router {
	t.Helper()
	mw, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: maxBytes})
	require.NoError(t, err)

	r := mux.NewRouter()
	r.HandleFunc("/test", handler).Methods(http.MethodPost).Use(mws...)
	r.Use(mw)
	return r
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	t.Run("config validation", func(t *testing.T) {
		for _, maxBytes := range []int64{0, -1} {
			_, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: maxBytes})
			assert.ErrorIs(t, err, ErrInvalidMaxSize)
		}

		_, err := RequestSizeLimitMiddleware(RequestSizeLimitConfig{MaxBytes: 1024})
		assert.NoError(t, err)
	})

	tests := []struct {
		name            string
		maxBytes        int64
		body            string
		unknownLength   bool
		wantCode        int
		wantHandlerCall bool
	}{
		{
			name:            "body within limit",
			maxBytes:        1024,
			body:            "hello",
			wantCode:        http.StatusOK,
			wantHandlerCall: true,
		},
		{
			name:            "body exactly at limit",
			maxBytes:        5,
			body:            "hello",
			wantCode:        http.StatusOK,
			wantHandlerCall: true,
		},
		{
			name:     "declared length exceeds limit",
			maxBytes: 3,
			body:     "hello world",
			wantCode: http.StatusRequestEntityTooLarge,
		},
		{
			name:            "streamed body exceeds limit",
			maxBytes:        3,
			body:            "hello world",
			unknownLength:   true,
			wantCode:        http.StatusRequestEntityTooLarge,
			wantHandlerCall: true,
		},
		{
			name:            "empty body",
			maxBytes:        1024,
			wantCode:        http.StatusOK,
			wantHandlerCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var handlerCalled bool
			r := sizeLimitRouter(t, tt.maxBytes, func(w http.ResponseWriter, req *http.Request) {
				handlerCalled = true
				if _, err := io.ReadAll(req.Body); err != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			if tt.unknownLength {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantHandlerCall, handlerCalled)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}

	t.Run("rejection body", func(t *testing.T) {
		r := sizeLimitRouter(t, 1, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("too long")))

		var body validation.ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, http.StatusText(http.StatusRequestEntityTooLarge), body.Message)
	})

	t.Run("validated streamed body", func(t *testing.T) {
		gate := validation.NewGate(func() *openapi.Operation {
			return &openapi.Operation{
				RequestBody: &openapi.RequestBody{Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "object"}},
				}},
			}
		}, nil, validation.GateOptions{})

		var handlerCalled bool
		r := sizeLimitRouter(t, 4, func(w http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
			w.WriteHeader(http.StatusOK)
		}, gate)

		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":"too long"}`))
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = -1
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func BenchmarkRequestSizeLimitMiddleware(b *testing.B) {
	r := sizeLimitRouter(b, 1024, func(w http.ResponseWriter, req *http.Request) {
		io.Copy(io.Discard, req.Body)
		w.WriteHeader(http.StatusOK)
	})

	body := strings.NewReader("hello")

	b.ResetTimer()
	for b.Loop() {
		body.Reset("hello")
		req := httptest.NewRequest(http.MethodPost, "/test", body)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
}
