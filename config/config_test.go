package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

func TestDefaultNeedsSecret(t *testing.T) {
	_, err := Load("")
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  ping_interval: 15s
auth:
  secret: test-secret
  issuer: printops
nats:
  url: nats://localhost:4222
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.PingInterval)
	assert.Equal(t, "test-secret", cfg.Auth.Secret)
	assert.Equal(t, "printops", cfg.Auth.Issuer)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)

	// Untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth":{"secret":"s"},"server":{"port":8888}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8888, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPSD_AUTH_SECRET", "env-secret")
	t.Setenv("OPSD_PORT", "7070")
	t.Setenv("OPSD_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  secret: file-secret\n"), 0o600))
	t.Setenv("OPSD_AUTH_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.Secret)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Auth.Secret = "s"
		return cfg
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Server.MetricsPort = cfg.Server.Port
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Reconnect.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Reconnect.MaxDelay = cfg.Reconnect.InitialDelay / 2
	assert.Error(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/opsd.yaml")
	assert.Error(t, err)
}
