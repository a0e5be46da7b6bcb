package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err, "explicit path that does not exist should fail")

	// Empty path with no config.yaml present falls back to defaults.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 10, cfg.JWT.TTLMinutes)
	assert.Equal(t, "log", cfg.Email.Sender)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
store:
  backend: bbolt
  data_dir: /var/lib/gatehouse
jwt:
  secret: super-secret
  ttl_minutes: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "bbolt", cfg.Store.Backend)
	assert.Equal(t, "/var/lib/gatehouse", cfg.Store.DataDir)
	assert.Equal(t, "super-secret", cfg.JWT.Secret)
	assert.Equal(t, 5, cfg.JWT.TTLMinutes)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GATEHOUSE_JWT_SECRET", "env-secret")
	t.Setenv("GATEHOUSE_SERVER_PORT", "9000")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store: StoreConfig{Backend: "memory"},
			JWT:   JWTConfig{Secret: "s"},
			Email: EmailConfig{Sender: "log"},
		}
	}

	t.Run("ok", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
	t.Run("missing secret", func(t *testing.T) {
		c := base()
		c.JWT.Secret = ""
		assert.Error(t, c.Validate())
	})
	t.Run("postgres without dsn", func(t *testing.T) {
		c := base()
		c.Store.Backend = "postgres"
		assert.Error(t, c.Validate())
	})
	t.Run("unknown backend", func(t *testing.T) {
		c := base()
		c.Store.Backend = "etcd"
		assert.Error(t, c.Validate())
	})
	t.Run("ses without from address", func(t *testing.T) {
		c := base()
		c.Email.Sender = "ses"
		assert.Error(t, c.Validate())
	})
}
