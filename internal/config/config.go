// Package config loads application settings from configs/config.yml and
// INVENTORY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory_manager/internal/credential"
	"inventory_manager/internal/repository/db"

	"github.com/spf13/viper"
)

const envPrefix = "INVENTORY"

type Config struct {
	Port       string            `mapstructure:"port"`
	LogLevel   string            `mapstructure:"log_level"`
	DB         db.Config         `mapstructure:"db"`
	Auth       Auth              `mapstructure:"auth"`
	Credential credential.Config `mapstructure:"credential"`
}

type Auth struct {
	SigningKey        string        `mapstructure:"signing_key"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	DefaultRole       string        `mapstructure:"default_role"`
	MinPasswordLength int           `mapstructure:"min_password_length"`
}

func setDefaults(v *viper.Viper) {
	cred := credential.DefaultConfig()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("db.driver", db.DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.ping_attempts", 5)
	v.SetDefault("db.ping_backoff", 200*time.Millisecond)

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.default_role", "user")
	v.SetDefault("auth.min_password_length", 8)

	v.SetDefault("credential.algorithm", cred.Algorithm)
	v.SetDefault("credential.argon2.memory", cred.Argon2.Memory)
	v.SetDefault("credential.argon2.iterations", cred.Argon2.Iterations)
	v.SetDefault("credential.argon2.parallelism", cred.Argon2.Parallelism)
	v.SetDefault("credential.argon2.salt_length", cred.Argon2.SaltLength)
	v.SetDefault("credential.argon2.key_length", cred.Argon2.KeyLength)
	v.SetDefault("credential.max_concurrent", cred.MaxConcurrent)
	v.SetDefault("credential.bcrypt_cost", cred.BcryptCost)
	v.SetDefault("credential.accept_legacy", cred.AcceptLegacy)
}

// Load reads the config file at path (any extension viper understands).
// An empty path looks for config.yml under ./configs. A missing file is not
// an error; defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
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

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.DB.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("db.driver %q is not supported", c.DB.Driver)
	}
	return nil
}
