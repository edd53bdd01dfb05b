package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"linkparse-api/core/interfaces"
)

func TestAPIKeyMiddleware(t *testing.T) {
	handler := APIKeyMiddleware([]string{"alpha", " beta "}, interfaces.NopLogger{})(okHandler())

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"valid key", "POST", "/parse", "Bearer alpha", http.StatusOK},
		{"second key trimmed", "POST", "/parse", "Bearer beta", http.StatusOK},
		{"scheme is case insensitive", "POST", "/parse", "bearer alpha", http.StatusOK},
		{"wrong key", "POST", "/parse", "Bearer gamma", http.StatusUnauthorized},
		{"missing header", "POST", "/parse", "", http.StatusUnauthorized},
		{"basic auth", "POST", "/parse", "Basic YWxwaGE6", http.StatusUnauthorized},
		{"health is open", "GET", "/health", "", http.StatusOK},
		{"metrics is open", "GET", "/metrics", "", http.StatusOK},
		{"openapi is open", "GET", "/openapi.json", "", http.StatusOK},
		{"preflight is open", "OPTIONS", "/parse", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"success":false`)
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestAPIKeyMiddleware_NoKeysConfigured(t *testing.T) {
	handler := APIKeyMiddleware(nil, interfaces.NopLogger{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/parse", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
