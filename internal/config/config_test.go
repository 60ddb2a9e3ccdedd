package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileValuesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
auth:
  signing_secret: "file-secret"
  token_ttl: 1h
db:
  driver: sqlite
  path: test.db
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "file-secret", cfg.Auth.SigningSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "test.db", cfg.DB.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, uint32(64*1024), cfg.Password.MemoryKiB)
	assert.Equal(t, uint8(2), cfg.Password.Threads)
	assert.Equal(t, 5*time.Second, cfg.Feed.PushInterval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "auth:\n  signing_secret: file-secret\n")
	t.Setenv("CONDUIT_AUTH_SIGNING_SECRET", "env-secret")
	t.Setenv("CONDUIT_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "env-secret", cfg.Auth.SigningSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\n")
	_, err := Load(viper.New(), path)
	assert.ErrorIs(t, err, ErrMissingSigningSecret)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DB:   DBConfig{Driver: DriverSQLite},
			Auth: AuthConfig{SigningSecret: "s", TokenTTL: time.Hour},
		}
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.DB.Driver = "mysql"
	assert.ErrorIs(t, c.Validate(), ErrUnknownDriver)

	c = base()
	c.DB.Driver = DriverPostgres
	assert.Error(t, c.Validate())
	c.DB.DSN = "postgres://localhost/conduit"
	assert.NoError(t, c.Validate())

	c = base()
	c.Auth.TokenTTL = 0
	assert.Error(t, c.Validate())
}
