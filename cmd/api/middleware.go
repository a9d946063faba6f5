package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/heloha-app/heloha/internal/auth"
)

// context key type for storing auth claims in request contexts
type authContextKey struct{}

// getClaims extracts auth claims from the context, if present.
func getClaims(ctx context.Context) (*auth.Claims, bool) {
	v := ctx.Value(authContextKey{})
	if v == nil {
		return nil, false
	}
	c, ok := v.(*auth.Claims)
	return c, ok
}

// requireAuth enforces a valid session token on a route group. The token
// comes from the Authorization header, or from the token query parameter
// for the WebSocket endpoint, where dialers cannot always set headers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			errorJSON(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := s.auth.VerifyToken(token)
		if err != nil {
			errorJSON(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
