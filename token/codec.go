package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/chobi-social/chobi-server/internal/config"
	"github.com/chobi-social/chobi-server/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Codec creates and verifies the two token classes used by the session
// protocol. Access and refresh tokens are signed with independent secrets so
// that compromise of one class cannot mint the other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec builds a Codec from the auth configuration.
func NewCodec(cfg config.AuthConfig) *Codec {
	return &Codec{
		accessSecret:  []byte(cfg.GetAccessTokenSecret()),
		refreshSecret: []byte(cfg.GetRefreshTokenSecret()),
		accessTTL:     cfg.GetAccessTokenTTL(),
		refreshTTL:    cfg.GetRefreshTokenTTL(),
	}
}

// IssueAccess creates a short lived access token for the given subject.
func (c *Codec) IssueAccess(subjectID string) (string, error) {
	return issue(subjectID, c.accessSecret, c.accessTTL)
}

// IssueRefresh creates a refresh token for the given subject.
func (c *Codec) IssueRefresh(subjectID string) (string, error) {
	return issue(subjectID, c.refreshSecret, c.refreshTTL)
}

// VerifyAccess checks signature and expiry of an access token and returns
// the subject id. All expected failure modes surface as ErrInvalidToken.
func (c *Codec) VerifyAccess(raw string) (string, error) {
	return verify(raw, c.accessSecret)
}

// VerifyRefresh checks signature and expiry of a refresh token and returns
// the subject id.
func (c *Codec) VerifyRefresh(raw string) (string, error) {
	return verify(raw, c.refreshSecret)
}

func issue(subjectID string, secret []byte, ttl time.Duration) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrapf(err, "token sign")
	}
	return signed, nil
}

func verify(raw string, secret []byte) (string, error) {
	parsed, err := jwtlib.ParseWithClaims(raw, &jwtlib.RegisteredClaims{}, func(t *jwtlib.Token) (interface{}, error) {
		if t.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, errors.ErrInvalidToken
		}
		return secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))

	if err != nil || !parsed.Valid {
		return "", errors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwtlib.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.ErrInvalidToken
	}
	return claims.Subject, nil
}
