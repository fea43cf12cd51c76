package muxhandlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"

	"github.com/vitalvas/oasmux/mux"
)

// DefaultRequestIDHeader is the header used when RequestIDConfig.HeaderName
// is empty.
const DefaultRequestIDHeader = "X-Request-ID"

// maxIncomingIDLength bounds request IDs accepted from clients.
const maxIncomingIDLength = 128

// ErrInvalidHeaderName is returned when RequestIDConfig.HeaderName is not a
// valid HTTP header field name.
var ErrInvalidHeaderName = errors.New("request id: invalid header name")

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in the context by
// RequestIDMiddleware. Returns an empty string if no ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return ""
}

// RequestIDConfig configures the Request ID middleware behaviour.
type RequestIDConfig struct {
	// HeaderName overrides the header used to propagate the request ID.
	// Defaults to DefaultRequestIDHeader.
	HeaderName string

	// GenerateFunc returns a new unique ID for the request. Defaults to
	// GenerateUUIDv7.
	GenerateFunc func(r *http.Request) string

	// TrustIncoming reuses a request ID sent by the client. IDs that are
	// too long or not valid header values are replaced.
	TrustIncoming bool
}

// RequestIDMiddleware returns a middleware that generates or propagates a
// request ID header. The ID is set on the request, the response and the
// request context.
//
// It returns ErrInvalidHeaderName if HeaderName is not a valid field name.
func RequestIDMiddleware(cfg RequestIDConfig) (mux.MiddlewareFunc, error) {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = DefaultRequestIDHeader
	}
	if !httpguts.ValidHeaderFieldName(headerName) {
		return nil, ErrInvalidHeaderName
	}
	headerName = http.CanonicalHeaderKey(headerName)

	generate := cfg.GenerateFunc
	if generate == nil {
		generate = GenerateUUIDv7
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.TrustIncoming {
				id = r.Header.Get(headerName)
				if !validIncomingID(id) {
					id = ""
				}
			}

			if id == "" {
				id = generate(r)
			}

			if id != "" {
				r.Header.Set(headerName, id)
				w.Header().Set(headerName, id)
				r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func validIncomingID(id string) bool {
	return id != "" && len(id) <= maxIncomingIDLength && httpguts.ValidHeaderFieldValue(id)
}

// GenerateUUIDv4 returns a new random UUID string.
//
// Spec reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.4
func GenerateUUIDv4(_ *http.Request) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a new UUID v7 string. IDs generated later sort
// after earlier ones.
//
// Spec reference: https://www.rfc-editor.org/rfc/rfc9562#section-5.7
func GenerateUUIDv7(_ *http.Request) string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
