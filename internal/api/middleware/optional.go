package middleware

import (
	"net/http"

	"github.com/workflowai/workflowai/internal/auth"
)

// OptionalAuth resolves the caller's API key when one is presented but never
// rejects the request; handlers that own their unauthenticated response shape
// (the billing checkout endpoint) check the identity themselves.
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := bearerToken(r)
			if rawKey == "" {
				rawKey = r.Header.Get("X-API-Key")
			}

			if rawKey != "" {
				if identity, err := authService.Authenticate(r.Context(), rawKey); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
