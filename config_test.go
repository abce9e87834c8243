package auditkit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Error(t, cfg.validate(), "default config has no base URL")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUDITKIT_BASE_URL", "https://audit.example.com")
	t.Setenv("AUDITKIT_REQUEST_TIMEOUT", "10s")
	t.Setenv("AUDITKIT_REDIS_ADDR", "localhost:6379")
	t.Setenv("AUDITKIT_METRICS_LATENCY", "true")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://audit.example.com", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Metrics.EnableLatency)
	require.NoError(t, cfg.validate())
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auditkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://audit.internal
request_timeout: 45s
credential_path: /tmp/cred.json
redis:
  addr: redis:6379
  prefix: smoke
notifications:
  enabled: false
`), 0o644))

	cfg, err := ConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://audit.internal", cfg.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/cred.json", cfg.CredentialPath)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "smoke", cfg.Redis.Prefix)
	assert.False(t, cfg.Notifications.Enabled)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.Metrics.Enabled)
}

func TestConfigFromFileErrors(t *testing.T) {
	_, err := ConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [not, a, string"), 0o644))
	_, err = ConfigFromFile(path)
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "ftp://host"
	require.Error(t, cfg.validate())

	cfg.BaseURL = "https://ok.example.com"
	cfg.RequestTimeout = -time.Second
	require.Error(t, cfg.validate())

	cfg.RequestTimeout = 0
	require.NoError(t, cfg.validate())
}
