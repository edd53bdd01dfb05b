// ABOUTME: Bearer API key authentication middleware
// ABOUTME: Leaves documentation, health and metrics routes open

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"linkparse-api/core/interfaces"
)

var openPaths = []string{"/health", "/metrics", "/docs", "/openapi", "/schemas/"}

// APIKeyMiddleware rejects requests whose bearer token is not one of keys.
// With no keys configured every request passes.
func APIKeyMiddleware(keys []string, logger interfaces.Logger) func(http.Handler) http.Handler {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(accepted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isOpenPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok || !matchesAny(token, accepted) {
				logger.Warn("Rejected unauthenticated request", map[string]interface{}{
					"request_id": GetRequestID(r),
					"path":       r.URL.Path,
					"remote_ip":  extractIP(r),
				})
				w.Header().Set("WWW-Authenticate", `Bearer realm="linkparse"`)
				writeFailure(w, http.StatusUnauthorized, "missing or invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func matchesAny(token string, accepted [][]byte) bool {
	candidate := []byte(token)
	found := 0
	for _, key := range accepted {
		found |= subtle.ConstantTimeCompare(candidate, key)
	}
	return found == 1
}

func isOpenPath(path string) bool {
	for _, p := range openPaths {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
