package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fraction12/wireflow/internal/typeid"
)

type contextKey string

const SessionKey contextKey = "session"

// Authenticate resolves the session of a request from its Bearer header,
// or from the token query parameter, which browsers use for websockets.
// With authentication disabled every request gets a fresh anonymous
// session.
func (s *Service) Authenticate(r *http.Request) (Session, error) {
	if !s.Enabled() {
		return Session{ID: typeid.NewSessionID(), Name: "Anonymous"}, nil
	}

	token := r.URL.Query().Get("token")
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return Session{}, errors.New("invalid authorization format")
		}
		token = parts[1]
	}
	if token == "" {
		return Session{}, errors.New("missing authorization header")
	}
	return s.ValidateToken(token)
}

func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Authenticate(r)
		if err != nil {
			msg := err.Error()
			if errors.Is(err, ErrInvalidToken) {
				msg = "invalid token"
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msg})
			return
		}

		ctx := context.WithValue(r.Context(), SessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(SessionKey).(Session)
	return session, ok
}
