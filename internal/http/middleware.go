package http

import (
	"context"
	"errors"
	"net/http"

	"moneta/internal/auth"
	"moneta/internal/core"
	"moneta/internal/log"
)

type contextKey string

const userContextKey contextKey = "user"

// currentUser resolves the caller from the action body token, falling back to
// the Authorization header. Action routes carry the JWT inside the JSON body;
// header auth covers everything else.
func (s *Server) currentUser(r *http.Request, bodyToken string) (core.User, error) {
	token := bodyToken
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		return core.User{}, auth.ErrInvalidToken
	}
	return s.auth.Authenticate(r.Context(), token)
}

// unauthorized writes the 401 response for a failed token check, choosing the
// message by the verification failure.
func unauthorized(w http.ResponseWriter, err error) {
	msg := "invalid token"
	if errors.Is(err, auth.ErrExpiredToken) {
		msg = "token expired"
	}
	writeError(w, http.StatusUnauthorized, msg)
}

// requireAdmin authenticates via the Authorization header and rejects
// non-admin callers. The resolved user is stored in the request context.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.currentUser(r, "")
		if err != nil {
			unauthorized(w, err)
			return
		}
		if !user.Admin {
			s.logger.WarnContext(r.Context(), "Admin route denied",
				log.FieldUserID, user.ID, log.FieldPath, r.URL.Path)
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the user stored by requireAdmin.
func userFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userContextKey).(core.User)
	return u, ok
}
