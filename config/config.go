// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	HasherLocal  = "local"
	HasherRemote = "remote"
)

// Config holds all application configuration.
type Config struct {
	Host string `envconfig:"SHAGEN_HOST" yaml:"host"`
	Port int    `envconfig:"SHAGEN_PORT" yaml:"port"`

	Presenter PresenterConfig `yaml:"presenter"`
	Hasher    HasherConfig    `yaml:"hasher"`
	Session   SessionConfig   `yaml:"session"`
	Security  SecurityConfig  `yaml:"security"`
}

// PresenterConfig holds reveal and notice timings.
type PresenterConfig struct {
	RevealInterval time.Duration `envconfig:"SHAGEN_REVEAL_INTERVAL" yaml:"reveal_interval"`
	ErrorDuration  time.Duration `envconfig:"SHAGEN_ERROR_DURATION" yaml:"error_duration"`
}

// HasherConfig selects the digest backend.
type HasherConfig struct {
	Backend string       `envconfig:"SHAGEN_HASHER" yaml:"backend"`
	Remote  RemoteConfig `yaml:"remote"`
}

// RemoteConfig describes the external digest endpoint and its breaker.
type RemoteConfig struct {
	URL                 string        `envconfig:"SHAGEN_REMOTE_URL" yaml:"url"`
	Timeout             time.Duration `envconfig:"SHAGEN_REMOTE_TIMEOUT" yaml:"timeout"`
	MaxRequests         uint32        `envconfig:"SHAGEN_REMOTE_MAX_REQUESTS" yaml:"max_requests"`
	Interval            time.Duration `envconfig:"SHAGEN_REMOTE_INTERVAL" yaml:"interval"`
	OpenTimeout         time.Duration `envconfig:"SHAGEN_REMOTE_OPEN_TIMEOUT" yaml:"open_timeout"`
	ConsecutiveFailures uint32        `envconfig:"SHAGEN_REMOTE_CONSECUTIVE_FAILURES" yaml:"consecutive_failures"`
}

// SessionConfig holds session token settings.
type SessionConfig struct {
	Secret string        `envconfig:"SHAGEN_SESSION_SECRET" yaml:"secret"`
	Expiry time.Duration `envconfig:"SHAGEN_SESSION_EXPIRY" yaml:"expiry"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit   float64 `envconfig:"SHAGEN_RATE_LIMIT" yaml:"rate_limit"` // requests per second per client, 0 = disabled
	CORSOrigins string  `envconfig:"SHAGEN_CORS_ORIGINS" yaml:"cors_origins"`
	BodyLimit   string  `envconfig:"SHAGEN_BODY_LIMIT" yaml:"body_limit"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	setDefaults(cfg)

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Environment wins over the file.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Presenter = PresenterConfig{
		RevealInterval: 5 * time.Millisecond,
		ErrorDuration:  3 * time.Second,
	}

	cfg.Hasher = HasherConfig{
		Backend: HasherLocal,
		Remote: RemoteConfig{
			Timeout:             5 * time.Second,
			MaxRequests:         1,
			Interval:            time.Minute,
			OpenTimeout:         30 * time.Second,
			ConsecutiveFailures: 5,
		},
	}

	cfg.Session = SessionConfig{
		Secret: "change-me-in-production",
		Expiry: 24 * time.Hour,
	}

	cfg.Security = SecurityConfig{
		RateLimit:   20,
		CORSOrigins: "*",
		BodyLimit:   "1M",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Presenter.RevealInterval <= 0 {
		errs = append(errs, "reveal_interval must be positive")
	}
	if c.Presenter.ErrorDuration <= 0 {
		errs = append(errs, "error_duration must be positive")
	}

	switch c.Hasher.Backend {
	case HasherLocal:
	case HasherRemote:
		u, err := url.Parse(c.Hasher.Remote.URL)
		if c.Hasher.Remote.URL == "" || err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "remote hasher requires an absolute url")
		}
		if c.Hasher.Remote.Timeout <= 0 {
			errs = append(errs, "remote timeout must be positive")
		}
		if c.Hasher.Remote.ConsecutiveFailures < 1 {
			errs = append(errs, "remote consecutive_failures must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid hasher backend: %s (must be local or remote)", c.Hasher.Backend))
	}

	if c.Session.Secret == "" {
		errs = append(errs, "session secret is required")
	}
	if c.Session.Expiry <= 0 {
		errs = append(errs, "session expiry must be positive")
	}

	if c.Security.RateLimit < 0 {
		errs = append(errs, "rate_limit must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits the comma separated CORS origins.
func (s SecurityConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(s.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
