package server

import (
	"net/http"

	"github.com/chobi-social/chobi-server/auth"
	apierrors "github.com/chobi-social/chobi-server/internal/errors"
)

// sessionResponse is the body returned by login and refresh.
type sessionResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// RegisterHandler creates a new account.
// POST /api/auth/register
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		if _, err := s.auth.Register(r.Context(), req); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "You are now registered")
	}
}

// LoginHandler verifies credentials, rotates the whitelist and sets the
// refresh cookie.
// POST /api/auth/login
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &body); err != nil {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		session, err := s.auth.Login(r.Context(), auth.LoginRequest{
			Username:          body.Username,
			Password:          body.Password,
			PriorRefreshToken: refreshCookieValue(r),
		})
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		s.setRefreshCookie(w, session.RefreshToken)
		s.respondJSON(w, http.StatusOK, sessionResponse{
			ID:       session.User.ID,
			Username: session.User.Username,
			Email:    session.User.Email,
			Token:    session.AccessToken,
		})
	}
}

// LogoutHandler ends the session held by the refresh cookie. Logging out
// of a non-session succeeds with no content.
// GET /api/auth/logout
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := refreshCookieValue(r)
		if refreshToken == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		ended, err := s.auth.Logout(r.Context(), refreshToken)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		s.clearRefreshCookie(w)
		if !ended {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.respondJSON(w, http.StatusOK, "logged out successfully")
	}
}

// RefreshHandler rotates the refresh token from the session cookie. The
// presented cookie is consumed regardless of outcome.
// GET /api/auth/refresh
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := refreshCookieValue(r)
		if refreshToken == "" {
			s.respondError(w, r, apierrors.ErrNoSession)
			return
		}

		// Single-use semantics: the old cookie is cleared up front and only
		// a successful rotation sets a new one.
		s.clearRefreshCookie(w)

		session, err := s.auth.Refresh(r.Context(), refreshToken)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		s.setRefreshCookie(w, session.RefreshToken)
		s.respondJSON(w, http.StatusOK, sessionResponse{
			ID:       session.User.ID,
			Username: session.User.Username,
			Email:    session.User.Email,
			Token:    session.AccessToken,
		})
	}
}
