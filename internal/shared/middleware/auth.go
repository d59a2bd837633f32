package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/elleon003/thrivebase/internal/shared/auth"
)

// ContextKey is the type for request context keys set by middleware.
type ContextKey string

const (
	// UserIDKey holds the authenticated user's id (string).
	UserIDKey ContextKey = "userID"
	// EmailKey holds the authenticated user's email (string).
	EmailKey ContextKey = "email"
)

// Auth validates the session token and injects the user identity into
// the request context. The token is read from the access_token cookie
// first, falling back to the Authorization header.
func Auth(jwt *auth.JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie("access_token"); err == nil {
				token = cookie.Value
			} else if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}

			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwt.Validate(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user's id from a request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}
