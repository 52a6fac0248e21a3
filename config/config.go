// Package config loads process configuration from environment variables into
// an immutable struct at startup. Signing secrets are read here once and
// injected into the auth components; nothing reads the environment after Load.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port           string `koanf:"port"`
	AllowedOrigins string `koanf:"allowed_origins"` // comma-separated

	Mongo MongoConfig `koanf:"mongodb"`
	Auth  AuthConfig  `koanf:"auth"`
	GCS   GCSConfig   `koanf:"gcs"`

	CookieDomain string `koanf:"cookie_domain"`
	CookieSecure bool   `koanf:"cookie_secure"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

// AuthConfig carries the two signing secrets and their token lifetimes.
// Access and refresh tokens are signed with distinct secrets so one class of
// token can never be presented as the other.
type AuthConfig struct {
	AccessSecret     string        `koanf:"access_secret"`
	RefreshSecret    string        `koanf:"refresh_secret"`
	AccessTTLMinutes int           `koanf:"access_ttl_minutes"`
	RefreshTTLDays   int           `koanf:"refresh_ttl_days"`
	AccessTTL        time.Duration `koanf:"-"`
	RefreshTTL       time.Duration `koanf:"-"`
}

type GCSConfig struct {
	Bucket          string `koanf:"bucket"`
	CredentialsFile string `koanf:"credentials_file"`
	MaxUploadSizeMB int    `koanf:"max_upload_mb"`
}

// envSections are the env-var prefixes that map onto nested config structs.
var envSections = map[string]bool{
	"mongodb": true,
	"auth":    true,
	"gcs":     true,
}

// envKey maps an environment variable name to a koanf key. Only the leading
// section prefix becomes a nesting level; the remainder stays a single flat
// segment, so AUTH_ACCESS_SECRET loads as auth -> access_secret.
func envKey(s string) string {
	key := strings.ToLower(s)
	if section, rest, ok := strings.Cut(key, "_"); ok && envSections[section] {
		return section + "." + rest
	}
	return key
}

// Origins splits the comma-separated ALLOWED_ORIGINS value.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	cfg := &Config{
		Port:         "8080",
		CookieSecure: true,
		Auth: AuthConfig{
			AccessTTLMinutes: 15,
			RefreshTTLDays:   14,
		},
		GCS: GCSConfig{
			MaxUploadSizeMB: 100,
		},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.AccessTTLMinutes <= 0 {
		cfg.Auth.AccessTTLMinutes = 15
	}
	if cfg.Auth.RefreshTTLDays <= 0 {
		cfg.Auth.RefreshTTLDays = 14
	}
	cfg.Auth.AccessTTL = time.Duration(cfg.Auth.AccessTTLMinutes) * time.Minute
	cfg.Auth.RefreshTTL = time.Duration(cfg.Auth.RefreshTTLDays) * 24 * time.Hour

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("missing MONGODB_URI")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("missing MONGODB_DATABASE")
	}
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("missing AUTH_ACCESS_SECRET")
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("missing AUTH_REFRESH_SECRET")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return fmt.Errorf("AUTH_ACCESS_SECRET and AUTH_REFRESH_SECRET must differ")
	}
	return nil
}
