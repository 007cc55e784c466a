package users

import "context"

// UserRepo manages persisted user records, including the per-user refresh
// token whitelist. Implementations must make every whitelist mutation a
// single conditional store operation, never a read followed by a blind
// overwrite, so that concurrent rotations and revocations cannot lose
// writes.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// GetByRefreshToken finds the user whose whitelist contains the exact
	// token value.
	GetByRefreshToken(ctx context.Context, token string) (*User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Delete(ctx context.Context, id string) error

	// AddRefreshToken appends a token to the user's whitelist.
	AddRefreshToken(ctx context.Context, id string, token string) error
	// RemoveRefreshToken removes exactly the given token, leaving other
	// concurrent sessions intact.
	RemoveRefreshToken(ctx context.Context, id string, token string) error
	// SwapRefreshToken atomically replaces oldToken with newToken and fails
	// with ErrNotFound when oldToken is no longer whitelisted. This is the
	// compare-and-swap that decides the winner of concurrent refreshes.
	SwapRefreshToken(ctx context.Context, id string, oldToken, newToken string) error
	// RotateRefreshTokens removes dropToken (or the whole whitelist when
	// clearAll is set) and appends newToken in one persisted operation.
	RotateRefreshTokens(ctx context.Context, id string, dropToken string, clearAll bool, newToken string) error
	// ClearRefreshTokens empties the whitelist, revoking every session.
	ClearRefreshTokens(ctx context.Context, id string) error

	// Follow adds target to the user's following set and the user to the
	// target's followers set.
	Follow(ctx context.Context, userID, targetID string) error
	Unfollow(ctx context.Context, userID, targetID string) error
}
