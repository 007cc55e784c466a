package server

import (
	"net/http"

	apierrors "github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/users"
)

// CurrentUserHandler returns the authenticated user's own record.
// GET /api/user
func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}
		s.respondJSON(w, http.StatusOK, user)
	}
}

// GetUserHandler returns a user's public profile by id.
// GET /api/user/{id}
func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !isObjectIDHex(id) {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		user, err := s.users.GetByID(r.Context(), id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, user)
	}
}

// UpdateUserHandler applies profile changes. Only the account owner or an
// admin may update a profile.
// PUT /api/user/update/{id}
func (s *Server) UpdateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}
		id := r.PathValue("id")
		if caller.ID != id && !caller.IsAdmin {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		var update users.ProfileUpdate
		if err := decodeJSON(r, &update); err != nil {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}
		if update.Username != nil {
			normalized := users.NormalizeUsername(*update.Username)
			if normalized == "" {
				s.respondError(w, r, apierrors.ErrMissingFields)
				return
			}
			update.Username = &normalized
		}

		updated, err := s.users.UpdateProfile(r.Context(), id, update)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, updated)
	}
}

// ResetPasswordHandler changes the caller's password after re-verifying
// the current one. The new password must differ from the old and meet the
// strength rules.
// PUT /api/user/reset
func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		var body struct {
			OldPassword string `json:"oldpassword"`
			NewPassword string `json:"newpassword"`
		}
		if err := decodeJSON(r, &body); err != nil || body.OldPassword == "" || body.NewPassword == "" {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		if !users.CheckPasswordHash(body.OldPassword, caller.PasswordHash) {
			s.respondError(w, r, apierrors.ErrInvalidCredentials)
			return
		}
		if body.NewPassword == body.OldPassword {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}
		if err := users.ValidatePasswordStrength(body.NewPassword); err != nil {
			s.respondError(w, r, apierrors.ErrMissingFields)
			return
		}

		hash, err := users.HashPassword(body.NewPassword)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if err := s.users.UpdatePassword(r.Context(), caller.ID, hash); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "password updated successfully")
	}
}

// DeleteUserHandler removes an account. The route is chained behind
// ForceReloginMiddleware, which has already re-verified the caller's
// password from the request body.
// DELETE /api/user/delete/{id}
func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}
		id := r.PathValue("id")
		if caller.ID != id && !caller.IsAdmin {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		if err := s.users.Delete(r.Context(), id); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "account deleted successfully")
	}
}

// FollowHandler adds the target to the caller's following set.
// PUT /api/user/follow
func (s *Server) FollowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		targetID, err := decodeTargetID(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if targetID == caller.ID {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		target, err := s.users.GetByID(r.Context(), targetID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if target.IsFollowedBy(caller.ID) {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		if err := s.users.Follow(r.Context(), caller.ID, targetID); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "user followed")
	}
}

// UnfollowHandler removes the target from the caller's following set.
// PUT /api/user/unfollow
func (s *Server) UnfollowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := UserFromContext(r.Context())
		if !ok {
			s.respondError(w, r, apierrors.ErrUnauthorized)
			return
		}

		targetID, err := decodeTargetID(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if targetID == caller.ID {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		target, err := s.users.GetByID(r.Context(), targetID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if !target.IsFollowedBy(caller.ID) {
			s.respondError(w, r, apierrors.ErrForbidden)
			return
		}

		if err := s.users.Unfollow(r.Context(), caller.ID, targetID); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.respondJSON(w, http.StatusOK, "user unfollowed")
	}
}

func decodeTargetID(r *http.Request) (string, error) {
	var body struct {
		ID string `json:"_id"`
	}
	if err := decodeJSON(r, &body); err != nil || !isObjectIDHex(body.ID) {
		return "", apierrors.ErrMissingFields
	}
	return body.ID, nil
}
