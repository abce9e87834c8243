package auditkit

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config carries everything the Builder needs. Zero values fall back to the
// defaults below, so a Config with only BaseURL set is usable.
type Config struct {
	// BaseURL is the platform API root, e.g. "https://audit.example.com".
	BaseURL string `envconfig:"BASE_URL"`

	// RequestTimeout bounds every single HTTP request.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`

	// CredentialPath overrides where the file-backed credential store
	// writes. Empty means the user config directory.
	CredentialPath string `envconfig:"CREDENTIAL_PATH"`

	Redis         RedisConfig
	Notifications NotificationsConfig
	Metrics       MetricsConfig
}

// RedisConfig, when Addr is set, switches credential persistence to the
// Redis-backed store (headless and CI deployments sharing a token cache).
type RedisConfig struct {
	Addr     string `envconfig:"ADDR" yaml:"addr"`
	Password string `envconfig:"PASSWORD" yaml:"password"`
	DB       int    `envconfig:"DB" yaml:"db"`
	Prefix   string `envconfig:"PREFIX" yaml:"prefix"`
}

// NotificationsConfig tunes the dispatcher behind the notification sinks.
type NotificationsConfig struct {
	Enabled    bool `envconfig:"ENABLED" yaml:"enabled"`
	BufferSize int  `envconfig:"BUFFER" yaml:"buffer_size"`
	DropIfFull bool `envconfig:"DROP_IF_FULL" yaml:"drop_if_full"`
}

// MetricsConfig tunes the in-process counters.
type MetricsConfig struct {
	Enabled       bool `envconfig:"ENABLED" yaml:"enabled"`
	EnableLatency bool `envconfig:"LATENCY" yaml:"enable_latency"`
}

// DefaultConfig returns the baseline configuration. BaseURL must still be
// provided by the caller.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		Notifications: NotificationsConfig{
			Enabled:    true,
			BufferSize: 64,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// ConfigFromEnv reads configuration from AUDITKIT_* environment variables on
// top of the defaults.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process("auditkit", &cfg); err != nil {
		return Config{}, fmt.Errorf("config from env: %w", err)
	}
	return cfg, nil
}

// fileConfig mirrors Config for YAML decoding. Durations are strings on
// disk ("45s"), which yaml.v3 cannot decode into time.Duration directly.
type fileConfig struct {
	BaseURL        string              `yaml:"base_url"`
	RequestTimeout string              `yaml:"request_timeout"`
	CredentialPath string              `yaml:"credential_path"`
	Redis          RedisConfig         `yaml:"redis"`
	Notifications  NotificationsConfig `yaml:"notifications"`
	Metrics        MetricsConfig       `yaml:"metrics"`
}

// ConfigFromFile reads a YAML configuration file on top of the defaults.
func ConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config from file: %w", err)
	}

	cfg := DefaultConfig()
	raw := fileConfig{
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.RequestTimeout.String(),
		CredentialPath: cfg.CredentialPath,
		Redis:          cfg.Redis,
		Notifications:  cfg.Notifications,
		Metrics:        cfg.Metrics,
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config from file %s: %w", path, err)
	}

	timeout, err := time.ParseDuration(raw.RequestTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("config from file %s: request_timeout: %w", path, err)
	}

	cfg.BaseURL = raw.BaseURL
	cfg.RequestTimeout = timeout
	cfg.CredentialPath = raw.CredentialPath
	cfg.Redis = raw.Redis
	cfg.Notifications = raw.Notifications
	cfg.Metrics = raw.Metrics
	return cfg, nil
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base URL required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("config: base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: base URL scheme %q not supported", u.Scheme)
	}
	if c.RequestTimeout < 0 {
		return errors.New("config: request timeout must not be negative")
	}
	return nil
}
