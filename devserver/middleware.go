package devserver

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const userIDKey contextKey = iota

// AuthMiddleware authenticates the bearer token and stores the account
// id on the request context. Missing, unknown, and expired tokens all
// answer 401 so the client evicts the session rather than retrying.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		s.mu.RLock()
		rec, ok := s.sessions[token]
		s.mu.RUnlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or revoked token")
			return
		}
		if s.now().After(rec.ExpiresAt) {
			s.mu.Lock()
			delete(s.sessions, token)
			s.mu.Unlock()
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, rec.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
