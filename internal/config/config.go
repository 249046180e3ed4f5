// Package config handles runtime configuration for the authkit session core,
// including defaults, JSON overlay, environment overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the session core and the CLI shell.
//
// Fields:
//   - StateDBPath: path to the local SQLite database holding the persisted session.
//   - AccountsDSN: PostgreSQL DSN for the account directory; empty selects the
//     in-memory directory (development mode).
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenTTL / RefreshTokenTTL / ResetTokenTTL: token lifetimes.
//   - CallTimeout: per-dependency-call deadline inside the session manager.
type Config struct {
	StateDBPath     string
	AccountsDSN     string
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	CallTimeout     time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.StateDBPath = "auth.db"
	c.AccountsDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenTTL = 24 * time.Hour
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.ResetTokenTTL = 15 * time.Minute
	c.CallTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values from
// an optional JSON file, environment variables, and finally command-line
// flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
