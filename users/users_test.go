package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chobi-social/chobi-server/users"
)

func TestValidatePasswordStrength(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		require.NoError(t, users.ValidatePasswordStrength("Password123!"))
	})

	t.Run("too short", func(t *testing.T) {
		err := users.ValidatePasswordStrength("Pw1!")
		require.Error(t, err)
	})

	t.Run("no uppercase", func(t *testing.T) {
		require.Error(t, users.ValidatePasswordStrength("password123!"))
	})

	t.Run("no lowercase", func(t *testing.T) {
		require.Error(t, users.ValidatePasswordStrength("PASSWORD123!"))
	})

	t.Run("no digit", func(t *testing.T) {
		require.Error(t, users.ValidatePasswordStrength("Password!!!"))
	})

	t.Run("no special character", func(t *testing.T) {
		require.Error(t, users.ValidatePasswordStrength("Password123"))
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := users.HashPassword("Password123!")
	require.NoError(t, err)
	require.NotEqual(t, "Password123!", hash)

	require.True(t, users.CheckPasswordHash("Password123!", hash))
	require.False(t, users.CheckPasswordHash("Password124!", hash))
}

func TestNormalization(t *testing.T) {
	require.Equal(t, "johndoe", users.NormalizeUsername("  JohnDoe "))
	require.Equal(t, "john@example.com", users.NormalizeEmail(" John@Example.COM "))
}

func TestUserHelpers(t *testing.T) {
	u := &users.User{
		ID:            "u1",
		Followers:     []string{"u2"},
		Following:     []string{"u3"},
		RefreshTokens: []string{"tok-a"},
	}

	require.True(t, u.IsFollowedBy("u2"))
	require.False(t, u.IsFollowedBy("u3"))
	require.True(t, u.IsFollowing("u3"))
	require.False(t, u.IsFollowing("u2"))
	require.True(t, u.HasRefreshToken("tok-a"))
	require.False(t, u.HasRefreshToken("tok-b"))
}
