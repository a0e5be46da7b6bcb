// Package config loads service configuration from an optional YAML
// file with environment overrides. Every key can be set via the
// GATEHOUSE_ prefix, e.g. GATEHOUSE_JWT_SECRET.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
}

type StoreConfig struct {
	// Backend selects the user store: memory, bbolt, or postgres.
	Backend     string `mapstructure:"backend"`
	DataDir     string `mapstructure:"data_dir"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RedisConfig struct {
	// Addr enables Redis-backed revocation and 2FA challenge stores.
	// Empty means in-memory stores.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

type EmailConfig struct {
	// Sender selects the 2FA delivery mechanism: log or ses.
	Sender string `mapstructure:"sender"`
	From   string `mapstructure:"from"`
}

type RecaptchaConfig struct {
	Secret string `mapstructure:"secret"`
}

type HashConfig struct {
	Workers int `mapstructure:"workers"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Email     EmailConfig     `mapstructure:"email"`
	Recaptcha RecaptchaConfig `mapstructure:"recaptcha"`
	Hash      HashConfig      `mapstructure:"hash"`
}

// Load reads configuration from the given file path. An empty path
// looks for config.yaml in the working directory; a missing file is
// not an error, only environment variables and defaults apply then.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults also register each key so environment overrides reach
	// Unmarshal; a key viper has never seen is invisible to AutomaticEnv.
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.tls_cert", "")
	v.SetDefault("server.tls_key", "")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl_minutes", 10)
	v.SetDefault("email.sender", "log")
	v.SetDefault("email.from", "")
	v.SetDefault("recaptcha.secret", "")
	v.SetDefault("hash.workers", 0)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("GATEHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate checks for settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (GATEHOUSE_JWT_SECRET)")
	}
	switch c.Store.Backend {
	case "memory", "bbolt":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Email.Sender {
	case "log":
	case "ses":
		if c.Email.From == "" {
			return fmt.Errorf("email.from is required for the ses sender")
		}
	default:
		return fmt.Errorf("unknown email sender %q", c.Email.Sender)
	}
	return nil
}
