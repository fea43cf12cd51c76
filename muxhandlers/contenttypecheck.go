package muxhandlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/vitalvas/oasmux/mux"
)

// ErrInvalidAllowedType is returned when an entry of
// ContentTypeCheckConfig.AllowedTypes is not a media type.
var ErrInvalidAllowedType = errors.New("content type check: invalid allowed type")

// ContentTypeCheckConfig configures the Content-Type Check middleware behaviour.
type ContentTypeCheckConfig struct {
	// AllowedTypes is the set of acceptable media types. Matching is
	// case-insensitive and ignores parameters. Defaults to
	// application/json, the only body type request validation reads.
	AllowedTypes []string

	// AllowJSONSuffix also accepts structured syntax types ending in
	// "+json", such as application/problem+json.
	AllowJSONSuffix bool

	// AllowEmpty lets requests without a body through without a
	// Content-Type.
	AllowEmpty bool

	// Methods is the set of HTTP methods that require Content-Type
	// validation. When nil, defaults to POST, PUT, PATCH.
	Methods []string
}

// defaultCheckedMethods is the set of HTTP methods that require Content-Type
// validation when Methods is nil.
var defaultCheckedMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
}

// ContentTypeCheckMiddleware returns a middleware that validates the
// Content-Type header on requests with matching methods. It answers 415
// Unsupported Media Type with a JSON error body when the Content-Type is
// missing or does not match any of the allowed types.
//
// It returns ErrInvalidAllowedType if an allowed type cannot be parsed.
func ContentTypeCheckMiddleware(cfg ContentTypeCheckConfig) (mux.MiddlewareFunc, error) {
	allowedTypes := cfg.AllowedTypes
	if len(allowedTypes) == 0 {
		allowedTypes = []string{"application/json"}
	}

	allowedSet := make(map[string]struct{}, len(allowedTypes))
	for _, t := range allowedTypes {
		mediaType, _, err := mime.ParseMediaType(t)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidAllowedType, t, err)
		}
		allowedSet[mediaType] = struct{}{}
	}

	methods := cfg.Methods
	if methods == nil {
		methods = defaultCheckedMethods
	}

	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[strings.ToUpper(m)] = struct{}{}
	}

	allowed := func(contentType string) bool {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return false
		}
		if _, ok := allowedSet[mediaType]; ok {
			return true
		}
		return cfg.AllowJSONSuffix && strings.HasSuffix(mediaType, "+json")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, check := methodSet[r.Method]; check {
				ct := r.Header.Get("Content-Type")
				empty := r.ContentLength == 0 || r.Body == nil || r.Body == http.NoBody

				if !(ct == "" && empty && cfg.AllowEmpty) && !allowed(ct) {
					writeStatus(w, http.StatusUnsupportedMediaType)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
