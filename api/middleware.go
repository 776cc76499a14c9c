package api

import (
	"context"
	"net/http"
	"strings"

	"baatchit/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Session is the authenticated identity attached to a request.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
}

// Auth validates the bearer token and adds the session to the request
// context. WebSocket handshakes cannot set headers from a browser, so a
// token query parameter is accepted as well.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error": "Invalid token"}`, http.StatusUnauthorized)
			return
		}

		session := &Session{
			UserID:      claims.UserID,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromRequest retrieves the session from the request context.
func SessionFromRequest(r *http.Request) *Session {
	session, ok := r.Context().Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}
	return r.URL.Query().Get("token")
}
