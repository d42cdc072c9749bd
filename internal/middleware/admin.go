package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"cafe-order-service/pkg/response"
)

// AdminAuth guards the dashboard routes with a static bearer token. The
// dashboard's real login flow lives upstream; this only keeps the admin API
// from being public.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				response.Error(w, http.StatusServiceUnavailable, "ADMIN_DISABLED", "Admin API token is not configured")
				return
			}
			presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
