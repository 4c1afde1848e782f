package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 5*time.Millisecond, cfg.Presenter.RevealInterval)
	assert.Equal(t, 3*time.Second, cfg.Presenter.ErrorDuration)
	assert.Equal(t, HasherLocal, cfg.Hasher.Backend)
	assert.Equal(t, []string{"*"}, cfg.Security.Origins())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHAGEN_PORT", "9090")
	t.Setenv("SHAGEN_ERROR_DURATION", "1500ms")
	t.Setenv("SHAGEN_HASHER", "remote")
	t.Setenv("SHAGEN_REMOTE_URL", "http://hasher.internal/api/v1/digest")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 1500*time.Millisecond, cfg.Presenter.ErrorDuration)
	assert.Equal(t, HasherRemote, cfg.Hasher.Backend)
	assert.Equal(t, "http://hasher.internal/api/v1/digest", cfg.Hasher.Remote.URL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
host: "127.0.0.1"
port: 8888
presenter:
  reveal_interval: 10ms
  error_duration: 2s
security:
  cors_origins: "https://a.example, https://b.example"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, 10*time.Millisecond, cfg.Presenter.RevealInterval)
	assert.Equal(t, 2*time.Second, cfg.Presenter.ErrorDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.Origins())
	assert.Equal(t, 24*time.Hour, cfg.Session.Expiry, "unset values keep defaults")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8888\n"), 0o644))
	t.Setenv("SHAGEN_PORT", "7777")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Port = 0 }},
		{"reveal interval", func(c *Config) { c.Presenter.RevealInterval = 0 }},
		{"error duration", func(c *Config) { c.Presenter.ErrorDuration = -time.Second }},
		{"backend", func(c *Config) { c.Hasher.Backend = "md5" }},
		{"remote url", func(c *Config) { c.Hasher.Backend = HasherRemote }},
		{"remote relative url", func(c *Config) {
			c.Hasher.Backend = HasherRemote
			c.Hasher.Remote.URL = "/digest"
		}},
		{"secret", func(c *Config) { c.Session.Secret = "" }},
		{"expiry", func(c *Config) { c.Session.Expiry = 0 }},
		{"rate limit", func(c *Config) { c.Security.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			require.NoError(t, cfg.Validate())

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
