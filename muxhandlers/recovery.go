package muxhandlers

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/vitalvas/oasmux/mux"
)

// RecoveryConfig configures the Recovery middleware behaviour.
type RecoveryConfig struct {
	// Logger receives one error record per recovered panic. Defaults to
	// slog.Default.
	Logger *slog.Logger

	// Stack adds the goroutine stack to the log record.
	Stack bool

	// OnPanic is an optional callback invoked with the request and the
	// recovered value after logging.
	OnPanic func(r *http.Request, v any)
}

// RecoveryMiddleware returns a middleware that recovers from panics in
// downstream handlers, logs them and answers 500 with a JSON error body.
// http.ErrAbortHandler is re-raised so the server aborts the response.
func RecoveryMiddleware(cfg RecoveryConfig) mux.MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
				}
				if id := RequestIDFromContext(r.Context()); id != "" {
					attrs = append(attrs, "request_id", id)
				}
				if cfg.Stack {
					attrs = append(attrs, "stack", string(debug.Stack()))
				}
				logger.Error("handler panic recovered", attrs...)

				if cfg.OnPanic != nil {
					cfg.OnPanic(r, v)
				}

				writeStatus(w, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
