package muxhandlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/oasmux/mux"
)

func TestContentTypeCheckMiddleware(t *testing.T) {
	t.Run("config validation", func(t *testing.T) {
		_, err := ContentTypeCheckMiddleware(ContentTypeCheckConfig{AllowedTypes: []string{"not a type/"}})
		assert.ErrorIs(t, err, ErrInvalidAllowedType)

		_, err = ContentTypeCheckMiddleware(ContentTypeCheckConfig{})
		assert.NoError(t, err)
	})

	tests := []struct {
		name        string
		config      ContentTypeCheckConfig
		method      string
		contentType string
		body        string
		wantCode    int
	}{
		{
			name:        "json by default",
			method:      http.MethodPost,
			contentType: "application/json",
			body:        "{}",
			wantCode:    http.StatusOK,
		},
		{
			name:        "parameters ignored",
			method:      http.MethodPost,
			contentType: "application/json; charset=utf-8",
			body:        "{}",
			wantCode:    http.StatusOK,
		},
		{
			name:        "case insensitive",
			method:      http.MethodPut,
			contentType: "Application/JSON",
			body:        "{}",
			wantCode:    http.StatusOK,
		},
		{
			name:        "non-matching type",
			method:      http.MethodPost,
			contentType: "text/plain",
			body:        "hello",
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:     "missing type",
			method:   http.MethodPatch,
			body:     "{}",
			wantCode: http.StatusUnsupportedMediaType,
		},
		{
			name:        "malformed type",
			method:      http.MethodPost,
			contentType: "application/",
			body:        "{}",
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:     "GET skips check",
			method:   http.MethodGet,
			wantCode: http.StatusOK,
		},
		{
			name:     "empty body without type rejected",
			method:   http.MethodPost,
			wantCode: http.StatusUnsupportedMediaType,
		},
		{
			name:     "empty body allowed",
			config:   ContentTypeCheckConfig{AllowEmpty: true},
			method:   http.MethodPost,
			wantCode: http.StatusOK,
		},
		{
			name:     "allow empty still needs a type for a body",
			config:   ContentTypeCheckConfig{AllowEmpty: true},
			method:   http.MethodPost,
			body:     "{}",
			wantCode: http.StatusUnsupportedMediaType,
		},
		{
			name:        "json suffix rejected by default",
			method:      http.MethodPost,
			contentType: "application/merge-patch+json",
			body:        "{}",
			wantCode:    http.StatusUnsupportedMediaType,
		},
		{
			name:        "json suffix allowed",
			config:      ContentTypeCheckConfig{AllowJSONSuffix: true},
			method:      http.MethodPost,
			contentType: "application/merge-patch+json",
			body:        "{}",
			wantCode:    http.StatusOK,
		},
		{
			name:        "second allowed type",
			config:      ContentTypeCheckConfig{AllowedTypes: []string{"application/json", "application/xml"}},
			method:      http.MethodPost,
			contentType: "application/xml",
			body:        "<a/>",
			wantCode:    http.StatusOK,
		},
		{
			name:     "custom methods skip POST",
			config:   ContentTypeCheckConfig{Methods: []string{http.MethodDelete}},
			method:   http.MethodPost,
			body:     "x",
			wantCode: http.StatusOK,
		},
		{
			name:     "custom methods check DELETE",
			config:   ContentTypeCheckConfig{Methods: []string{"delete"}},
			method:   http.MethodDelete,
			body:     "x",
			wantCode: http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, err := ContentTypeCheckMiddleware(tt.config)
			require.NoError(t, err)

			r := mux.NewRouter()
			r.HandleFunc("/test", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			r.Use(mw)

			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			var req *http.Request
			if body != nil {
				req = httptest.NewRequest(tt.method, "/test", body)
			} else {
				req = httptest.NewRequest(tt.method, "/test", nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusUnsupportedMediaType {
				assert.JSONEq(t, `{"message":"Unsupported Media Type"}`, w.Body.String())
			}
		})
	}
}
