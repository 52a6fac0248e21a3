package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/playtube/playtube-backend/auth"
	"github.com/playtube/playtube-backend/config"
)

func testIssuer(accessTTL, refreshTTL time.Duration) *auth.TokenIssuer {
	return auth.NewTokenIssuer(config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
}

func TestTokenIssuer_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(time.Hour, 24*time.Hour)

	tok, err := issuer.IssueAccessToken("user-123")
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
}

func TestTokenIssuer_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(time.Hour, 24*time.Hour)

	tok, err := issuer.IssueRefreshToken("user-123")
	require.NoError(t, err)

	claims, err := issuer.VerifyRefreshToken(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
}

func TestTokenIssuer_ExpiredAccessTokenRejected(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(-1*time.Second, 24*time.Hour)

	tok, err := issuer.IssueAccessToken("user-123")
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(tok)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_CrossSecretRejected(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(time.Hour, 24*time.Hour)

	refresh, err := issuer.IssueRefreshToken("user-123")
	require.NoError(t, err)
	access, err := issuer.IssueAccessToken("user-123")
	require.NoError(t, err)

	// A refresh token must never pass as an access token, and vice versa.
	_, err = issuer.VerifyAccessToken(refresh)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = issuer.VerifyRefreshToken(access)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_WrongSecretRejected(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(time.Hour, 24*time.Hour)
	other := auth.NewTokenIssuer(config.AuthConfig{
		AccessSecret:  "different-access-secret",
		RefreshSecret: "different-refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})

	tok, err := issuer.IssueAccessToken("user-123")
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(tok)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_MalformedRejected(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(time.Hour, 24*time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb"} {
		_, err := issuer.VerifyAccessToken(tok)
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	}
}

func TestTokenIssuer_ConsecutiveTokensDiffer(t *testing.T) {
	t.Parallel()

	issuer := testIssuer(time.Hour, 24*time.Hour)

	first, err := issuer.IssueRefreshToken("user-123")
	require.NoError(t, err)
	second, err := issuer.IssueRefreshToken("user-123")
	require.NoError(t, err)

	// Minted within the same second, yet never byte-identical.
	require.NotEqual(t, first, second)
}
