package fakeuserrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	apierrors "github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/users"
	fakeuserrepo "github.com/chobi-social/chobi-server/users/repofake"
)

func newUser(t *testing.T, repo *fakeuserrepo.FakeUserRepo, username string) *users.User {
	t.Helper()
	u := &users.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func TestSwapRefreshTokenIsSingleWinner(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	ctx := context.Background()
	u := newUser(t, repo, "johndoe")

	require.NoError(t, repo.AddRefreshToken(ctx, u.ID, "old"))

	require.NoError(t, repo.SwapRefreshToken(ctx, u.ID, "old", "new"))
	// The second swap of the same token loses.
	require.ErrorIs(t, repo.SwapRefreshToken(ctx, u.ID, "old", "other"), apierrors.ErrNotFound)

	got, err := repo.GetByRefreshToken(ctx, "new")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	_, err = repo.GetByRefreshToken(ctx, "old")
	require.ErrorIs(t, err, apierrors.ErrNotFound)
}

func TestRotateRefreshTokens(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	ctx := context.Background()
	u := newUser(t, repo, "johndoe")

	require.NoError(t, repo.AddRefreshToken(ctx, u.ID, "device-a"))
	require.NoError(t, repo.AddRefreshToken(ctx, u.ID, "device-b"))

	// Drop one session, keep the rest.
	require.NoError(t, repo.RotateRefreshTokens(ctx, u.ID, "device-a", false, "device-a2"))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"device-b", "device-a2"}, got.RefreshTokens)

	// clearAll wipes every session before appending.
	require.NoError(t, repo.RotateRefreshTokens(ctx, u.ID, "", true, "only"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, got.RefreshTokens)
}

func TestCreateRejectsDuplicateIdentity(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	ctx := context.Background()
	newUser(t, repo, "johndoe")

	err := repo.Create(ctx, &users.User{Username: "johndoe", Email: "other@example.com"})
	require.ErrorIs(t, err, apierrors.ErrConflict)

	err = repo.Create(ctx, &users.User{Username: "janedoe", Email: "johndoe@example.com"})
	require.ErrorIs(t, err, apierrors.ErrConflict)
}

func TestReturnedUsersAreCopies(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	ctx := context.Background()
	u := newUser(t, repo, "johndoe")
	require.NoError(t, repo.AddRefreshToken(ctx, u.ID, "tok"))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.RefreshTokens[0] = "mutated"

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"tok"}, again.RefreshTokens)
}

func TestFollowGraphIsBidirectional(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	ctx := context.Background()
	alice := newUser(t, repo, "alice")
	bob := newUser(t, repo, "bob")

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

	gotAlice, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	gotBob, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Contains(t, gotAlice.Following, bob.ID)
	require.Contains(t, gotBob.Followers, alice.ID)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	gotAlice, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotContains(t, gotAlice.Following, bob.ID)
}
