package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chobi-social/chobi-server/internal/config"
)

func setValidAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")
}

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_NAME", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DATABASE", "")
	t.Setenv("ENV", "")

	c := config.New()
	require.Equal(t, ":3030", c.GetPort())
	require.Equal(t, "Chobi", c.GetAppName())
	require.Equal(t, "mongodb://localhost:27017", c.GetMongoURI())
	require.Equal(t, "chobi", c.GetMongoDatabase())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestPortIsPrefixedWithColon(t *testing.T) {
	t.Setenv("PORT", "8080")
	require.Equal(t, ":8080", config.New().GetPort())

	t.Setenv("PORT", ":9090")
	require.Equal(t, ":9090", config.New().GetPort())
}

func TestTokenTTLs(t *testing.T) {
	setValidAuthEnv(t)
	c := config.New()

	require.Equal(t, 15*time.Minute, c.GetAccessTokenTTL())
	require.Equal(t, 24*time.Hour, c.GetRefreshTokenTTL())

	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "72h")
	require.Equal(t, 5*time.Minute, c.GetAccessTokenTTL())
	require.Equal(t, 72*time.Hour, c.GetRefreshTokenTTL())

	// Unparseable durations fall back to the defaults.
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	require.Equal(t, 15*time.Minute, c.GetAccessTokenTTL())
}

func TestRefreshCookieMaxAgeTracksRefreshTTL(t *testing.T) {
	setValidAuthEnv(t)
	t.Setenv("REFRESH_TOKEN_TTL", "90m")

	require.Equal(t, 90*60, config.New().GetRefreshCookieMaxAge())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "valid",
			env:  map[string]string{},
		},
		{
			name:    "missing access secret",
			env:     map[string]string{"ACCESS_TOKEN_SECRET": ""},
			wantErr: true,
		},
		{
			name:    "missing refresh secret",
			env:     map[string]string{"REFRESH_TOKEN_SECRET": ""},
			wantErr: true,
		},
		{
			name:    "shared secret",
			env:     map[string]string{"REFRESH_TOKEN_SECRET": "access-secret"},
			wantErr: true,
		},
		{
			name:    "access outlives refresh",
			env:     map[string]string{"ACCESS_TOKEN_TTL": "48h"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setValidAuthEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := config.New().Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://chobi.example.com")

	origins := config.New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("http://localhost:3000"))
	require.True(t, origins.IsAllowedOrigin("https://chobi.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
}
