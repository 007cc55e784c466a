package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chobi-social/chobi-server/auth"
	apierrors "github.com/chobi-social/chobi-server/internal/errors"
	"github.com/chobi-social/chobi-server/token"
	"github.com/chobi-social/chobi-server/users"
	fakeuserrepo "github.com/chobi-social/chobi-server/users/repofake"
)

const (
	testUsername = "johndoe"
	testEmail    = "john.doe@example.com"
	testPassword = "Password123!"
)

type testAuthConfig struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (testAuthConfig) GetAccessTokenSecret() string  { return "test-access-secret" }
func (testAuthConfig) GetRefreshTokenSecret() string { return "test-refresh-secret" }
func (c testAuthConfig) GetAccessTokenTTL() time.Duration {
	return c.accessTTL
}
func (c testAuthConfig) GetRefreshTokenTTL() time.Duration {
	return c.refreshTTL
}
func (c testAuthConfig) GetRefreshCookieMaxAge() int { return int(c.refreshTTL.Seconds()) }
func (testAuthConfig) Validate() error               { return nil }

// testFixture holds all test dependencies plus a controllable clock, so
// that consecutive issues never collide on second-resolution claims and
// expiry can be exercised deterministically.
type testFixture struct {
	userRepo users.UserRepo
	service  *auth.SessionService

	clockMu sync.Mutex
	now     time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	fx := &testFixture{
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	prevNow := token.NowTimeFunc
	token.NowTimeFunc = func() time.Time {
		fx.clockMu.Lock()
		defer fx.clockMu.Unlock()
		return fx.now
	}
	t.Cleanup(func() { token.NowTimeFunc = prevNow })

	codec := token.NewCodec(testAuthConfig{accessTTL: 15 * time.Minute, refreshTTL: 24 * time.Hour})
	service, err := auth.NewSessionService(fx.userRepo, codec)
	require.NoError(t, err)
	fx.service = service
	return fx
}

func (fx *testFixture) advance(d time.Duration) {
	fx.clockMu.Lock()
	defer fx.clockMu.Unlock()
	fx.now = fx.now.Add(d)
}

func (fx *testFixture) register(t *testing.T, username, email string) *users.User {
	t.Helper()
	user, err := fx.service.Register(context.Background(), auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

func (fx *testFixture) login(t *testing.T, username string) *auth.Session {
	t.Helper()
	session, err := fx.service.Login(context.Background(), auth.LoginRequest{
		Username: username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return session
}

func (fx *testFixture) whitelist(t *testing.T, userID string) []string {
	t.Helper()
	user, err := fx.userRepo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.RefreshTokens
}

func TestRegisterValidation(t *testing.T) {
	fx := setupTestFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  auth.RegisterRequest
	}{
		{"short username", auth.RegisterRequest{Username: "abc", Email: testEmail, Password: testPassword}},
		{"bad email", auth.RegisterRequest{Username: testUsername, Email: "not-an-email", Password: testPassword}},
		{"missing password", auth.RegisterRequest{Username: testUsername, Email: testEmail}},
		{"weak password", auth.RegisterRequest{Username: testUsername, Email: testEmail, Password: "password"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.service.Register(ctx, tc.req)
			require.ErrorIs(t, err, apierrors.ErrMissingFields)
		})
	}
}

func TestRegisterNormalizesAndRejectsDuplicates(t *testing.T) {
	fx := setupTestFixture(t)

	user := fx.register(t, "  JohnDoe ", "John.Doe@Example.COM")
	require.Equal(t, testUsername, user.Username)
	require.Equal(t, testEmail, user.Email)
	require.NotEqual(t, testPassword, user.PasswordHash)

	_, err := fx.service.Register(context.Background(), auth.RegisterRequest{
		Username: "JOHNDOE",
		Email:    "other@example.com",
		Password: testPassword,
	})
	require.ErrorIs(t, err, apierrors.ErrConflict)
}

func TestLoginIssuesTokenPairAndWhitelistsRefresh(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)

	session := fx.login(t, testUsername)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	require.Equal(t, user.ID, session.User.ID)
	require.Equal(t, []string{session.RefreshToken}, fx.whitelist(t, user.ID))
}

func TestLoginBadCredentialsAreIndistinguishable(t *testing.T) {
	fx := setupTestFixture(t)
	fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	_, unknownUserErr := fx.service.Login(ctx, auth.LoginRequest{Username: "nosuchuser", Password: testPassword})
	_, wrongPasswordErr := fx.service.Login(ctx, auth.LoginRequest{Username: testUsername, Password: "Wrong123!pass"})

	require.ErrorIs(t, unknownUserErr, apierrors.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPasswordErr, apierrors.ErrInvalidCredentials)
	require.Equal(t, unknownUserErr.Error(), wrongPasswordErr.Error())
}

func TestLoginWithPriorCookieReplacesOnlyThatSession(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	first := fx.login(t, testUsername)
	fx.advance(time.Second)
	second := fx.login(t, testUsername) // other device
	fx.advance(time.Second)

	relogin, err := fx.service.Login(ctx, auth.LoginRequest{
		Username:          testUsername,
		Password:          testPassword,
		PriorRefreshToken: first.RefreshToken,
	})
	require.NoError(t, err)

	whitelist := fx.whitelist(t, user.ID)
	require.Len(t, whitelist, 2)
	require.NotContains(t, whitelist, first.RefreshToken)
	require.Contains(t, whitelist, second.RefreshToken)
	require.Contains(t, whitelist, relogin.RefreshToken)
}

func TestLoginWithConsumedPriorCookieClearsAllSessions(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	stolen := fx.login(t, testUsername)
	fx.advance(time.Second)
	fx.login(t, testUsername)
	fx.advance(time.Second)

	// Simulate the cookie's token having been consumed elsewhere already.
	require.NoError(t, fx.userRepo.RemoveRefreshToken(ctx, user.ID, stolen.RefreshToken))

	relogin, err := fx.service.Login(ctx, auth.LoginRequest{
		Username:          testUsername,
		Password:          testPassword,
		PriorRefreshToken: stolen.RefreshToken,
	})
	require.NoError(t, err)
	require.Equal(t, []string{relogin.RefreshToken}, fx.whitelist(t, user.ID))
}

func TestRefreshRotatesSingleUseToken(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	session := fx.login(t, testUsername)
	fx.advance(time.Second)

	rotated, err := fx.service.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	require.Equal(t, []string{rotated.RefreshToken}, fx.whitelist(t, user.ID))
}

func TestRefreshReuseRevokesAllSessions(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	stolen := fx.login(t, testUsername)
	fx.advance(time.Second)
	other := fx.login(t, testUsername) // second device, must also be revoked
	fx.advance(time.Second)

	_, err := fx.service.Refresh(ctx, stolen.RefreshToken)
	require.NoError(t, err)
	fx.advance(time.Second)

	// Presenting the already-rotated token again is a theft signal.
	_, err = fx.service.Refresh(ctx, stolen.RefreshToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.Empty(t, fx.whitelist(t, user.ID))

	// Every session died, including the untouched second device.
	_, err = fx.service.Refresh(ctx, other.RefreshToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestRefreshReuseDoesNotAffectOtherUsers(t *testing.T) {
	fx := setupTestFixture(t)
	alice := fx.register(t, "alice-user", "alice@example.com")
	bob := fx.register(t, "bob-user12", "bob@example.com")
	ctx := context.Background()

	aliceSession := fx.login(t, "alice-user")
	fx.advance(time.Second)
	bobSession := fx.login(t, "bob-user12")
	fx.advance(time.Second)

	_, err := fx.service.Refresh(ctx, aliceSession.RefreshToken)
	require.NoError(t, err)
	fx.advance(time.Second)
	_, err = fx.service.Refresh(ctx, aliceSession.RefreshToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)

	require.Empty(t, fx.whitelist(t, alice.ID))
	require.Equal(t, []string{bobSession.RefreshToken}, fx.whitelist(t, bob.ID))
}

func TestRefreshExpiredTokenIsPrunedAndRejected(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)

	session := fx.login(t, testUsername)
	fx.advance(25 * time.Hour)

	_, err := fx.service.Refresh(context.Background(), session.RefreshToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.Empty(t, fx.whitelist(t, user.ID))
}

func TestRefreshMissingTokenIsNoSession(t *testing.T) {
	fx := setupTestFixture(t)

	_, err := fx.service.Refresh(context.Background(), "")
	require.ErrorIs(t, err, apierrors.ErrNoSession)
}

func TestRefreshGarbageTokenIsForbidden(t *testing.T) {
	fx := setupTestFixture(t)

	_, err := fx.service.Refresh(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestConcurrentRefreshHasExactlyOneWinner(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	session := fx.login(t, testUsername)
	fx.advance(time.Second)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.service.Refresh(ctx, session.RefreshToken)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, apierrors.ErrForbidden)
		}
	}
	require.Equal(t, 1, winners)

	// Losing racers are reuse signals, so the whole whitelist is gone.
	require.Empty(t, fx.whitelist(t, user.ID))
}

func TestLogoutRemovesOnlyPresentedSession(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	first := fx.login(t, testUsername)
	fx.advance(time.Second)
	second := fx.login(t, testUsername)

	ended, err := fx.service.Logout(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.True(t, ended)
	require.Equal(t, []string{second.RefreshToken}, fx.whitelist(t, user.ID))

	// Logout is idempotent.
	ended, err = fx.service.Logout(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.False(t, ended)

	ended, err = fx.service.Logout(ctx, "")
	require.NoError(t, err)
	require.False(t, ended)
}

func TestAuthenticateGate(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	session := fx.login(t, testUsername)

	resolved, err := fx.service.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)

	_, err = fx.service.Authenticate(ctx, "")
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)

	_, err = fx.service.Authenticate(ctx, "garbage-token")
	require.ErrorIs(t, err, apierrors.ErrForbidden)

	// Refresh tokens are signed with a different secret and must not pass
	// the access gate.
	_, err = fx.service.Authenticate(ctx, session.RefreshToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)

	fx.advance(16 * time.Minute)
	_, err = fx.service.Authenticate(ctx, session.AccessToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestAuthenticateDeletedSubjectIsForbidden(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	session := fx.login(t, testUsername)
	require.NoError(t, fx.userRepo.Delete(ctx, user.ID))

	_, err := fx.service.Authenticate(ctx, session.AccessToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}

func TestSessionLifecycleScenario(t *testing.T) {
	fx := setupTestFixture(t)
	user := fx.register(t, testUsername, testEmail)
	ctx := context.Background()

	session := fx.login(t, testUsername)
	current := session.RefreshToken

	// A healthy client rotating through several refreshes.
	for i := 0; i < 3; i++ {
		fx.advance(time.Minute)
		rotated, err := fx.service.Refresh(ctx, current)
		require.NoError(t, err)
		require.Equal(t, []string{rotated.RefreshToken}, fx.whitelist(t, user.ID))
		current = rotated.RefreshToken
	}

	// Then the original cookie leaks and gets replayed.
	fx.advance(time.Minute)
	_, err := fx.service.Refresh(ctx, session.RefreshToken)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
	require.Empty(t, fx.whitelist(t, user.ID))

	// The legitimate client's current token died with the rest.
	fx.advance(time.Minute)
	_, err = fx.service.Refresh(ctx, current)
	require.ErrorIs(t, err, apierrors.ErrForbidden)
}
