package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config with env tags. Only variables that are actually
// set override earlier layers.
type envConfig struct {
	StateDBPath     string        `env:"AUTHKIT_STATE_DB"`
	AccountsDSN     string        `env:"AUTHKIT_ACCOUNTS_DSN"`
	SecretKey       string        `env:"AUTHKIT_SECRET_KEY"`
	AccessTokenTTL  time.Duration `env:"AUTHKIT_ACCESS_TOKEN_TTL"`
	RefreshTokenTTL time.Duration `env:"AUTHKIT_REFRESH_TOKEN_TTL"`
	ResetTokenTTL   time.Duration `env:"AUTHKIT_RESET_TOKEN_TTL"`
	CallTimeout     time.Duration `env:"AUTHKIT_CALL_TIMEOUT"`
}

// parseEnv overlays configuration from environment variables. Malformed
// values panic, mirroring parseJson: a broken deployment environment should
// fail loudly at startup rather than run with silently ignored settings.
func parseEnv(config *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.StateDBPath != "" {
		config.StateDBPath = c.StateDBPath
	}
	if c.AccountsDSN != "" {
		config.AccountsDSN = c.AccountsDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenTTL != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL
	}
	if c.RefreshTokenTTL != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL
	}
	if c.ResetTokenTTL != 0 {
		config.ResetTokenTTL = c.ResetTokenTTL
	}
	if c.CallTimeout != 0 {
		config.CallTimeout = c.CallTimeout
	}
}
