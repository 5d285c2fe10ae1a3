package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"anonymizer/internal/services"
)

// authMiddleware returns a middleware that validates bearer tokens.
// If token is empty, no authentication is required and all requests pass through.
// Otherwise, requests must include "Authorization: Bearer <token>" header.
func authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := checkBearer(r, token); err != nil {
			writeError(w, services.HTTPStatus(err), services.ErrUnauthorized.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func checkBearer(r *http.Request, token string) error {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return services.Wrap(services.ErrUnauthorized, "api", "auth", "missing bearer token", nil)
	}
	presented := strings.TrimPrefix(auth, "Bearer ")
	if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
		return services.Wrap(services.ErrUnauthorized, "api", "auth", "bearer token mismatch", nil)
	}
	return nil
}
