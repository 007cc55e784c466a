package server

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated user (password hash stripped
	// from serialization by the model's tags).
	ContextKeyUser ContextKey = "user"
	// ContextKeyCorrelationID stores the request correlation id
	ContextKeyCorrelationID ContextKey = "correlation_id"
)

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok
}

// RequireAuth is the request gate: it validates the bearer access token and
// attaches the caller's user record to the request context. It fails
// closed - a missing or malformed Authorization header never falls through
// to the handler.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		user, err := s.auth.Authenticate(r.Context(), accessToken)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUser, user)
		next(w, r.WithContext(ctx))
	}
}

// ForceReloginMiddleware re-confirms the caller's password before a
// destructive operation. Chain it after RequireAuth. It consumes the
// request body, which is expected to carry only the password field.
func (s *Server) ForceReloginMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		var body struct {
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err != nil || body.Password == "" {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		if !users.CheckPasswordHash(body.Password, user.PasswordHash) {
			s.respondError(w, r, apierrors.ErrInvalidCredentials)
			return
		}

		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
