package muxhandlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasmux/mux"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode int
		wantLog  bool
	}{
		{
			name: "no panic passes through",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantCode: http.StatusOK,
		},
		{
			name: "string panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic("something went wrong")
			},
			wantCode: http.StatusInternalServerError,
			wantLog:  true,
		},
		{
			name: "integer panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic(42)
			},
			wantCode: http.StatusInternalServerError,
			wantLog:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger()

			r := mux.NewRouter()
			r.HandleFunc("/test", tt.handler).Methods(http.MethodGet)
			r.Use(RecoveryMiddleware(RecoveryConfig{Logger: logger}))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, tt.wantCode, w.Code)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}

			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, http.StatusText(http.StatusInternalServerError), body["message"])

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, "handler panic recovered", record["msg"])
			assert.Equal(t, "ERROR", record["level"])
			assert.Equal(t, "/test", record["path"])
			assert.NotContains(t, record, "stack")
		})
	}

	t.Run("on panic receives value", func(t *testing.T) {
		logger, _ := newBufferLogger()
		var got any

		r := mux.NewRouter()
		r.HandleFunc("/test", func(_ http.ResponseWriter, _ *http.Request) {
			panic("expected-value")
		}).Methods(http.MethodGet)
		r.Use(RecoveryMiddleware(RecoveryConfig{
			Logger:  logger,
			OnPanic: func(_ *http.Request, v any) { got = v },
		}))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "expected-value", got)
	})

	t.Run("stack and request id", func(t *testing.T) {
		logger, buf := newBufferLogger()

		requestID, err := RequestIDMiddleware(RequestIDConfig{GenerateFunc: func(*http.Request) string { return "req-1" }})
		require.NoError(t, err)

		r := mux.NewRouter()
		r.HandleFunc("/test", func(_ http.ResponseWriter, _ *http.Request) {
			panic("boom")
		}).Methods(http.MethodGet)
		r.Use(requestID, RecoveryMiddleware(RecoveryConfig{Logger: logger, Stack: true}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "req-1", record["request_id"])
		assert.Contains(t, record["stack"], "goroutine")
	})

	t.Run("abort handler is re-raised", func(t *testing.T) {
		logger, buf := newBufferLogger()

		handler := RecoveryMiddleware(RecoveryConfig{Logger: logger})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
		assert.Empty(t, buf.String())
	})
}

func BenchmarkRecoveryMiddleware(b *testing.B) {
	logger := slog.New(slog.DiscardHandler)

	b.Run("no panic", func(b *testing.B) {
		r := mux.NewRouter()
		r.HandleFunc("/test", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}).Methods(http.MethodGet)
		r.Use(RecoveryMiddleware(RecoveryConfig{Logger: logger}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		b.ResetTimer()
		for b.Loop() {
			r.ServeHTTP(httptest.NewRecorder(), req)
		}
	})

	b.Run("panic recovery", func(b *testing.B) {
		r := mux.NewRouter()
		r.HandleFunc("/test", func(_ http.ResponseWriter, _ *http.Request) {
			panic("bench")
		}).Methods(http.MethodGet)
		r.Use(RecoveryMiddleware(RecoveryConfig{Logger: logger}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		b.ResetTimer()
		for b.Loop() {
			r.ServeHTTP(httptest.NewRecorder(), req)
		}
	})
}
