// Package config loads runtime settings from configs/config.yml, CONDUIT_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	envPrefix = "CONDUIT"
)

// Config holds runtime settings for the API server.
type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Password PasswordConfig `mapstructure:"password"`
	Feed     FeedConfig     `mapstructure:"feed"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DBConfig selects the relational store. Path is used by sqlite, DSN by postgres.
type DBConfig struct {
	Driver         string        `mapstructure:"driver"`
	Path           string        `mapstructure:"path"`
	DSN            string        `mapstructure:"dsn"`
	ConnectRetries uint64        `mapstructure:"connect_retries"`
	ConnectBackoff time.Duration `mapstructure:"connect_backoff"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// AuthConfig is read once at startup and never changes afterwards.
type AuthConfig struct {
	SigningSecret string        `mapstructure:"signing_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// PasswordConfig is the argon2id target new hashes are produced with.
type PasswordConfig struct {
	Time       uint32 `mapstructure:"time"`
	MemoryKiB  uint32 `mapstructure:"memory_kib"`
	Threads    uint8  `mapstructure:"threads"`
	KeyLength  uint32 `mapstructure:"key_length"`
	SaltLength uint32 `mapstructure:"salt_length"`
}

// FeedConfig tunes the websocket feed stream.
type FeedConfig struct {
	PushInterval time.Duration `mapstructure:"push_interval"`
	PageSize     int           `mapstructure:"page_size"`
}

var (
	ErrMissingSigningSecret = errors.New("auth.signing_secret must be set")
	ErrUnknownDriver        = errors.New("db.driver must be sqlite or postgres")
)

// SetDefaults registers every known key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.connect_retries", 5)
	v.SetDefault("db.connect_backoff", 200*time.Millisecond)
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("auth.signing_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("password.time", 2)
	v.SetDefault("password.memory_kib", 64*1024)
	v.SetDefault("password.threads", 2)
	v.SetDefault("password.key_length", 32)
	v.SetDefault("password.salt_length", 16)

	v.SetDefault("feed.push_interval", 5*time.Second)
	v.SetDefault("feed.page_size", 20)
}

// Load reads configuration into a Config. When file is empty, configs/config.yml
// is used if present; a missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SigningSecret) == "" {
		return ErrMissingSigningSecret
	}
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownDriver, c.DB.Driver)
	}
	if c.DB.Driver == DriverPostgres && c.DB.DSN == "" {
		return errors.New("db.dsn must be set for the postgres driver")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}
