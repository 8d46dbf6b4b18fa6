package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vetlabs/vetassist/internal/api"
)

// ServiceTokenAuth authenticates requests with a bearer token checked against
// the configured static service tokens. Single-tenant service; there is no
// per-caller identity beyond holding a valid token.
func ServiceTokenAuth(tokens []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if !tokenValid(token, tokens) {
				api.Error(w, http.StatusUnauthorized, "invalid service token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenValid(token string, tokens []string) bool {
	valid := false
	for _, candidate := range tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(candidate)) == 1 {
			valid = true
		}
	}
	return valid
}
