package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/auth/authtest"
	"github.com/playtube/playtube-backend/config"
	"github.com/playtube/playtube-backend/models"
)

func newTestService(t *testing.T) (*auth.Service, *authtest.Store, *models.User) {
	t.Helper()

	store := authtest.NewStore()
	user := store.MustAddUser("alice", "alice@example.com", "correct-pw")
	issuer := auth.NewTokenIssuer(config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    14 * 24 * time.Hour,
	})
	return auth.NewService(issuer, store, store), store, user
}

func TestLogin_PersistsRefreshToken(t *testing.T) {
	t.Parallel()

	svc, store, user := newTestService(t)
	ctx := context.Background()

	got, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	persisted, err := store.PersistedRefreshToken(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, persisted)
}

func TestLogin_ByEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, pair, err := svc.Login(context.Background(), "alice@example.com", "correct-pw")
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestLogin_WrongPasswordAndUnknownUserIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, errWrongPw := svc.Login(ctx, "alice", "wrong-pw")
	_, _, errNoUser := svc.Login(ctx, "nobody", "correct-pw")

	require.ErrorIs(t, errWrongPw, auth.ErrInvalidCredentials)
	require.ErrorIs(t, errNoUser, auth.ErrInvalidCredentials)
	require.Equal(t, errWrongPw.Error(), errNoUser.Error())
}

func TestLogin_OverwritesPreviousSession(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, first, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	// The first session's refresh token no longer matches the slot.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenReused)
}

func TestRefresh_RotatesPair(t *testing.T) {
	t.Parallel()

	svc, store, user := newTestService(t)
	ctx := context.Background()

	_, first, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.NotEqual(t, first.AccessToken, second.AccessToken)

	persisted, err := store.PersistedRefreshToken(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, second.RefreshToken, persisted)
}

func TestRefresh_StaleTokenReportedAsReused(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, first, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	// Replaying the rotated-away token signals reuse.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenReused)
}

func TestRefresh_EmptyToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestRefresh_GarbageToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Refresh(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefresh_DeletedIdentity(t *testing.T) {
	t.Parallel()

	svc, store, user := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	store.RemoveUser(user.ID.Hex())

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrUnknownIdentity)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	t.Parallel()

	svc, store, user := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID.Hex()))

	persisted, err := store.PersistedRefreshToken(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.Empty(t, persisted)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenReused)
}

func TestChangePassword_RevokesSessionAndSwapsHash(t *testing.T) {
	t.Parallel()

	svc, _, user := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user.ID.Hex(), "correct-pw", "brand-new-pw"))

	_, _, err = svc.Login(ctx, "alice", "correct-pw")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "alice", "brand-new-pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrTokenReused)
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	t.Parallel()

	svc, _, user := newTestService(t)

	err := svc.ChangePassword(context.Background(), user.ID.Hex(), "wrong-pw", "brand-new-pw")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticate_ResolvesUser(t *testing.T) {
	t.Parallel()

	svc, _, user := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestAuthenticate_RefreshTokenRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRefresh_ConcurrentRotationSingleWinner(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Login(ctx, "alice", "correct-pw")
	require.NoError(t, err)

	const attempts = 8
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := svc.Refresh(ctx, pair.RefreshToken)
			results <- err
		}()
	}

	var succeeded int
	for i := 0; i < attempts; i++ {
		if err := <-results; err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, auth.ErrTokenReused)
		}
	}
	// Last-write-wins storage admits at least one winner; losers all see
	// the reuse signal rather than corrupted state.
	require.GreaterOrEqual(t, succeeded, 1)
}
