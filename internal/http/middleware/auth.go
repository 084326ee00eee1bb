package middlewarex

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"listkeeper/internal/config"
)

// AdminAuth guards admin routes with the configured bearer token. Without a
// token the routes are disabled.
func AdminAuth(cfg config.Cfg) func(http.Handler) http.Handler {
	token := cfg.Sec.AdminToken
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "admin api disabled", http.StatusForbidden)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			key := strings.TrimPrefix(auth, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
