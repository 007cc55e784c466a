package config

import (
	"errors"
	"time"
)

type AuthConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	// GetRefreshCookieMaxAge is derived from the refresh token TTL so the
	// cookie can never outlive the token it carries.
	GetRefreshCookieMaxAge() int
	Validate() error
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAccessTokenSecret() string {
	return GetEnv("ACCESS_TOKEN_SECRET", "")
}

func (Auth) GetRefreshTokenSecret() string {
	return GetEnv("REFRESH_TOKEN_SECRET", "")
}

func (Auth) GetAccessTokenTTL() time.Duration {
	return getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (a Auth) GetRefreshTokenTTL() time.Duration {
	return getDurationEnv("REFRESH_TOKEN_TTL", 24*time.Hour)
}

func (a Auth) GetRefreshCookieMaxAge() int {
	return int(a.GetRefreshTokenTTL() / time.Second)
}

// Validate is run once at startup. A misconfigured deployment should fail
// to boot rather than issue tokens that behave unexpectedly.
func (a Auth) Validate() error {
	if a.GetAccessTokenSecret() == "" {
		return errors.New("ACCESS_TOKEN_SECRET must be set")
	}
	if a.GetRefreshTokenSecret() == "" {
		return errors.New("REFRESH_TOKEN_SECRET must be set")
	}
	if a.GetAccessTokenSecret() == a.GetRefreshTokenSecret() {
		return errors.New("access and refresh token secrets must be independent")
	}
	if a.GetAccessTokenTTL() <= 0 || a.GetRefreshTokenTTL() <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if a.GetAccessTokenTTL() >= a.GetRefreshTokenTTL() {
		return errors.New("access token TTL must be shorter than refresh token TTL")
	}
	return nil
}

func getDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := GetEnv(envVar, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
