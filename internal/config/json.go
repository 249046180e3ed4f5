package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/vitalsync/authkit/internal/flagx"
	"github.com/vitalsync/authkit/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for lifetime fields, so both string values
// such as "24h" and integer nanoseconds parse. After unmarshalling, its
// fields are copied into the runtime Config.
type JsonConfig struct {
	StateDBPath     string         `json:"state_db_path"`
	AccountsDSN     string         `json:"accounts_dsn"`
	SecretKey       string         `json:"secret_key"`
	AccessTokenTTL  timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL timex.Duration `json:"refresh_token_ttl"`
	ResetTokenTTL   timex.Duration `json:"reset_token_ttl"`
	CallTimeout     timex.Duration `json:"call_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// Zero-valued fields in the file are skipped so they do not clobber defaults.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
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
	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = time.Duration(c.AccessTokenTTL.Duration)
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = time.Duration(c.RefreshTokenTTL.Duration)
	}
	if c.ResetTokenTTL.Duration != 0 {
		config.ResetTokenTTL = time.Duration(c.ResetTokenTTL.Duration)
	}
	if c.CallTimeout.Duration != 0 {
		config.CallTimeout = time.Duration(c.CallTimeout.Duration)
	}
}
