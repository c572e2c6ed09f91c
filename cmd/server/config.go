package main

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

// AppConfig is the startup configuration. The signing key has no
// fallback: a missing secret aborts startup.
type AppConfig struct {
	ServerAddress   string   `mapstructure:"server_address"`
	DatabaseDSN     string   `mapstructure:"database_dsn"`
	SigningKey      string   `mapstructure:"signing_key"`
	TokenExpiration int      `mapstructure:"token_expiration"`
	Issuer          string   `mapstructure:"issuer"`
	Audience        []string `mapstructure:"audience"`
}

func (c *AppConfig) GetSigningKey() string { return c.SigningKey }
func (c *AppConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *AppConfig) GetIssuer() string { return c.Issuer }
func (c *AppConfig) GetAudience() []string { return c.Audience }

// LoadConfig reads configuration from config.yaml (when present) and
// the ACCOUNTS_* environment, env taking precedence.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("server_address", ":3000")
	v.SetDefault("database_dsn", "file::memory:?cache=shared")
	v.SetDefault("token_expiration", 72)
	v.SetDefault("issuer", "go-accounts")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("accounts")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read config file")
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse configuration")
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("signing key is required: set ACCOUNTS_SIGNING_KEY", errors.CategoryBadInput)
	}

	return cfg, nil
}
