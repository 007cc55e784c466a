package auth

import (
	"context"
	"fmt"

	"github.com/go-playground/validator"
	"github.com/pkg/errors"

	apierrors "github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/token"
	"github.com/chobi-social/chobi-server/users"
)

// Session is the result of a successful login or refresh: a fresh token
// pair plus the authenticated user (password hash never leaves the store
// layer serialized).
type Session struct {
	User         *users.User
	AccessToken  string
	RefreshToken string
}

// SessionService orchestrates the session protocol over the credential
// store and the token codec. It holds no state of its own; the store is the
// single source of truth, which keeps multi-instance deployments correct.
type SessionService struct {
	users users.UserRepo
	codec *token.Codec
	v     *validator.Validate
}

// NewSessionService initializes a new SessionService with required dependencies.
func NewSessionService(userRepo users.UserRepo, codec *token.Codec) (*SessionService, error) {
	if userRepo == nil {
		return nil, errors.New("[NewSessionService] user repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionService] token codec is required")
	}
	return &SessionService{
		users: userRepo,
		codec: codec,
		v:     validator.New(),
	}, nil
}

// RegisterRequest carries the registration fields. Validation mirrors the
// store schema: username 6-20 chars, valid email, strong password.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=6,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account. Duplicate usernames or emails fail with
// ErrConflict.
func (s *SessionService) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	req.Username = users.NormalizeUsername(req.Username)
	req.Email = users.NormalizeEmail(req.Email)

	if err := s.v.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrMissingFields, err)
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrMissingFields, err)
	}

	passwordHash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Register] hash password")
	}

	user := &users.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apierrors.Is(err, apierrors.ErrConflict) {
			return nil, apierrors.ErrConflict
		}
		return nil, errors.Wrap(err, "[Register] create user")
	}
	return user, nil
}

// LoginRequest carries the login credentials plus the refresh token from a
// prior session cookie, when the caller presented one.
type LoginRequest struct {
	Username string
	Password string
	// PriorRefreshToken is the jwt cookie value sent alongside the login,
	// empty when absent.
	PriorRefreshToken string
}

// Login verifies credentials and issues a fresh token pair. The user's
// whitelist is reconciled in a single persisted operation: the prior cookie
// value is removed (or, when the prior token is unknown to the store - a
// reuse signal - the whole whitelist is cleared) and the new refresh token
// appended.
//
// An unknown username and a wrong password both fail with
// ErrInvalidCredentials so the response cannot be used as a user-existence
// oracle.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if req.Username == "" || req.Password == "" {
		return nil, apierrors.ErrMissingFields
	}

	user, err := s.users.GetByUsername(ctx, users.NormalizeUsername(req.Username))
	if apierrors.Is(err, apierrors.ErrNotFound) {
		return nil, apierrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Login] get user")
	}

	if !users.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apierrors.ErrInvalidCredentials
	}

	newRefreshToken, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] issue refresh token")
	}

	if req.PriorRefreshToken == "" {
		if err := s.users.AddRefreshToken(ctx, user.ID, newRefreshToken); err != nil {
			return nil, errors.Wrap(err, "[Login] persist refresh token")
		}
	} else {
		// A prior session cookie was presented. If its token is no longer in
		// any whitelist it was already consumed - the same theft signal as a
		// refresh reuse - so the whole chain is invalidated defensively.
		clearAll := false
		if _, lookupErr := s.users.GetByRefreshToken(ctx, req.PriorRefreshToken); lookupErr != nil {
			if !apierrors.Is(lookupErr, apierrors.ErrNotFound) {
				return nil, errors.Wrap(lookupErr, "[Login] prior token lookup")
			}
			clearAll = true
		}
		if err := s.users.RotateRefreshTokens(ctx, user.ID, req.PriorRefreshToken, clearAll, newRefreshToken); err != nil {
			return nil, errors.Wrap(err, "[Login] rotate refresh tokens")
		}
	}

	accessToken, err := s.codec.IssueAccess(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] issue access token")
	}

	return &Session{User: user, AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Refresh rotates a refresh token and issues a new token pair.
//
// A token that is absent from every whitelist was rotated away already:
// presenting it again is treated as theft, and every session of the subject
// it decodes to is revoked. All failure modes surface as ErrForbidden so
// the caller cannot distinguish "expired" from "stolen and revoked".
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apierrors.ErrNoSession
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if apierrors.Is(err, apierrors.ErrNotFound) {
		return nil, s.revokeOnReuse(ctx, refreshToken)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh] token lookup")
	}

	subjectID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		// Expired or corrupt entry: prune it from the whitelist and reject.
		if pruneErr := s.users.RemoveRefreshToken(ctx, user.ID, refreshToken); pruneErr != nil && !apierrors.Is(pruneErr, apierrors.ErrNotFound) {
			return nil, errors.Wrap(pruneErr, "[Refresh] prune stale token")
		}
		return nil, apierrors.ErrForbidden
	}

	// The whitelist invariant says this cannot happen; guard anyway against
	// store corruption.
	if subjectID != user.ID {
		return nil, apierrors.ErrForbidden
	}

	newRefreshToken, err := s.codec.IssueRefresh(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh] issue refresh token")
	}

	// Compare-and-swap the old token for the new one. Losing this swap means
	// a concurrent refresh already consumed the token, which is the same
	// reuse signal as the lookup miss above.
	if err := s.users.SwapRefreshToken(ctx, user.ID, refreshToken, newRefreshToken); err != nil {
		if apierrors.Is(err, apierrors.ErrNotFound) {
			return nil, s.revokeOnReuse(ctx, refreshToken)
		}
		return nil, errors.Wrap(err, "[Refresh] swap refresh token")
	}

	accessToken, err := s.codec.IssueAccess(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Refresh] issue access token")
	}

	return &Session{User: user, AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// revokeOnReuse handles a refresh token that is valid-looking but no longer
// whitelisted. If its signature still verifies, every session of the
// claimed subject is revoked. Always returns ErrForbidden for the caller.
func (s *SessionService) revokeOnReuse(ctx context.Context, refreshToken string) error {
	subjectID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return apierrors.ErrForbidden
	}
	hackedUser, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return apierrors.ErrForbidden
	}
	if err := s.users.ClearRefreshTokens(ctx, hackedUser.ID); err != nil && !apierrors.Is(err, apierrors.ErrNotFound) {
		return errors.Wrap(err, "[Refresh] revoke sessions on reuse")
	}
	return apierrors.ErrForbidden
}

// Logout removes exactly the presented refresh token from its owner's
// whitelist, leaving other sessions for the same user intact. Logging out
// of a non-session is not an error; the returned bool reports whether a
// session actually ended.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}

	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if apierrors.Is(err, apierrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "[Logout] token lookup")
	}

	if err := s.users.RemoveRefreshToken(ctx, user.ID, refreshToken); err != nil && !apierrors.Is(err, apierrors.ErrNotFound) {
		return false, errors.Wrap(err, "[Logout] remove refresh token")
	}
	return true, nil
}

// Authenticate resolves a bearer access token to its user for the request
// gate. Missing token fails with ErrUnauthorized; an invalid token, or a
// valid token whose subject no longer exists, fails with ErrForbidden.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*users.User, error) {
	if accessToken == "" {
		return nil, apierrors.ErrUnauthorized
	}

	subjectID, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, apierrors.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, subjectID)
	if apierrors.Is(err, apierrors.ErrNotFound) {
		// A deleted account holding a still-valid token.
		return nil, apierrors.ErrForbidden
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Authenticate] get user")
	}
	return user, nil
}
