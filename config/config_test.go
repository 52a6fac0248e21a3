package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/playtube/playtube-backend/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "playtube")
	t.Setenv("AUTH_ACCESS_SECRET", "access-secret")
	t.Setenv("AUTH_REFRESH_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	require.Equal(t, "playtube", cfg.Mongo.Database)
	require.Equal(t, "access-secret", cfg.Auth.AccessSecret)
	require.Equal(t, "refresh-secret", cfg.Auth.RefreshSecret)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 14*24*time.Hour, cfg.Auth.RefreshTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, 100, cfg.GCS.MaxUploadSizeMB)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_ACCESS_TTL_MINUTES", "5")
	t.Setenv("AUTH_REFRESH_TTL_DAYS", "30")
	t.Setenv("GCS_BUCKET", "playtube-media")
	t.Setenv("GCS_CREDENTIALS_FILE", "/etc/playtube/sa.json")
	t.Setenv("COOKIE_DOMAIN", "example.com")
	t.Setenv("ALLOWED_ORIGINS", "https://playtube.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTTL)
	require.Equal(t, "playtube-media", cfg.GCS.Bucket)
	require.Equal(t, "/etc/playtube/sa.json", cfg.GCS.CredentialsFile)
	require.Equal(t, "example.com", cfg.CookieDomain)
	require.Equal(t, []string{"https://playtube.example"}, cfg.Origins())
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "playtube")
	t.Setenv("AUTH_ACCESS_SECRET", "")
	t.Setenv("AUTH_REFRESH_SECRET", "")

	_, err := config.Load()
	require.ErrorContains(t, err, "AUTH_ACCESS_SECRET")
}

func TestLoad_IdenticalSecretsRejected(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_REFRESH_SECRET", "access-secret")

	_, err := config.Load()
	require.ErrorContains(t, err, "must differ")
}

func TestOrigins(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{AllowedOrigins: "https://a.example, https://b.example ,,"}
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())

	empty := &config.Config{}
	require.Empty(t, empty.Origins())
}
