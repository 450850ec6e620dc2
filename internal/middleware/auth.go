package middleware

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

type contextKey string

const UserKey contextKey = "user_id"

// SessionSource resolves the signed-in user for a request ("" when anonymous).
type SessionSource interface {
	CurrentUserID(r *http.Request) string
}

// UserChecker confirms a session's user id still names a stored account.
type UserChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// LoadUser puts the session's user id into the request context once users confirms
// the account exists. A stale or unverifiable id leaves the request anonymous; it
// never rejects a request.
func LoadUser(src SessionSource, users UserChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := src.CurrentUserID(r)
			if id != "" && users != nil {
				ok, err := users.Exists(r.Context(), id)
				if err != nil {
					log.Printf("[auth] user lookup for %s failed: %v", id, err)
				}
				if !ok {
					id = ""
				}
			}
			if id != "" {
				r = r.WithContext(context.WithValue(r.Context(), UserKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user id or "".
func UserFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(UserKey).(string); ok {
		return id
	}
	return ""
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// APIKeyAuth guards admin endpoints. An empty key leaves the route open.
func APIKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Support both "Bearer <key>" and X-API-Key
			got := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if got == "" {
				got = strings.TrimSpace(r.Header.Get("X-API-Key"))
			}
			if got == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			// constant-time comparison
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
