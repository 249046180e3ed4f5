// Package authcli is the interactive shell over the session core. It wires
// the account directory, the token manager, and the local state store into a
// session manager and drives it from a small REPL.
package authcli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vitalsync/authkit/internal/account"
	"github.com/vitalsync/authkit/internal/config"
	"github.com/vitalsync/authkit/internal/logging"
	"github.com/vitalsync/authkit/internal/session"
	"github.com/vitalsync/authkit/internal/statestore"
	"github.com/vitalsync/authkit/internal/token"
)

type App struct {
	config  *config.Config
	session *session.Manager
	reader  *bufio.Reader

	stateDB    *sql.DB
	accountsDB *sql.DB
}

// NewApp builds the full dependency graph from cfg. An empty AccountsDSN
// selects the in-memory account directory, which only lives as long as the
// process; a PostgreSQL DSN selects the durable one and applies migrations.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	stateDB, err := statestore.Open(ctx, cfg.StateDBPath)
	if err != nil {
		return nil, err
	}

	var repo account.Repository
	var accountsDB *sql.DB
	if cfg.AccountsDSN == "" {
		repo = account.NewMemoryRepository()
	} else {
		accountsDB, err = sql.Open("pgx", cfg.AccountsDSN)
		if err != nil {
			_ = stateDB.Close()
			return nil, err
		}
		if err := account.RunMigrations(ctx, accountsDB); err != nil {
			_ = accountsDB.Close()
			_ = stateDB.Close()
			return nil, err
		}
		repo = account.NewPostgresRepository(accountsDB)
	}

	tokens := token.NewManager([]byte(cfg.SecretKey), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ResetTokenTTL)
	store := statestore.NewStore(stateDB)
	mgr := session.NewManager(account.NewStore(repo), tokens, store, log, cfg.CallTimeout)

	return &App{
		config:     cfg,
		session:    mgr,
		reader:     bufio.NewReader(os.Stdin),
		stateDB:    stateDB,
		accountsDB: accountsDB,
	}, nil
}

func (a *App) Close() {
	if a.accountsDB != nil {
		_ = a.accountsDB.Close()
	}
	if a.stateDB != nil {
		_ = a.stateDB.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.Current().IsAuthenticated
}

// Run restores any persisted session and hands control to the REPL.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.session.Initialize(ctx)
	if st := a.session.Current(); st.IsAuthenticated {
		printlnFn("Session restored for " + st.Account.Email)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) getStatus() string {
	st := a.session.Current()
	if st.IsAuthenticated && st.Account != nil {
		return "(" + st.Account.Email + ")"
	}
	return ""
}
