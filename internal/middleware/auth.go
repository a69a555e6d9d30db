// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier checks an access token and returns the login it belongs to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// BearerAuth enforces a valid "Authorization: Bearer <token>" header on
// every request it wraps. On success the login is stored in the request
// context for downstream handlers.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tok, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tok) == "" {
				unauthorized(w, "authentication credentials were not provided")
				return
			}
			login, err := verifier.Verify(strings.TrimSpace(tok))
			if err != nil {
				unauthorized(w, "token is invalid or expired")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// GetUserFromContext extracts the authenticated login from the request
// context. Returns an empty string if not found.
func GetUserFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}
