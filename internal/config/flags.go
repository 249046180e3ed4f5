package config

import (
	"flag"
	"os"
	"time"

	"github.com/vitalsync/authkit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the local session state database
//	-p string   PostgreSQL DSN for the account directory
//	-s string   JWT signing secret
//	-t int      access token lifetime in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-p", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StateDBPath, "d", cfg.StateDBPath, "path to local session state database")
	fs.StringVar(&cfg.AccountsDSN, "p", cfg.AccountsDSN, "PostgreSQL DSN for the account directory")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT signing secret")
	accessTTL := fs.Int("t", int(cfg.AccessTokenTTL.Seconds()), "access token lifetime (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AccessTokenTTL = time.Duration(*accessTTL) * time.Second
}
