package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitalsync/authkit/internal/account"
	"github.com/vitalsync/authkit/internal/dbx"
)

// Keys of the persisted session triple. The three values form one logical
// session record and are written and cleared together.
const (
	KeyAuthToken    = "auth_token"
	KeyRefreshToken = "refresh_token"
	KeyAuthUser     = "auth_user"
)

// storedAccount is the JSON shape of the persisted account snapshot.
// Timestamps are stored as RFC 3339 strings; no native date type survives
// serialization, so LoadSession parses them back explicitly.
type storedAccount struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Avatar        string `json:"avatar,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
	LastLogin     string `json:"lastLogin"`
}

// Snapshot is the result of reading the persisted triple. Any field may be
// empty when the corresponding key is absent.
type Snapshot struct {
	Token        string
	RefreshToken string
	Account      *account.Account
}

// Empty reports whether nothing usable was persisted.
func (s Snapshot) Empty() bool {
	return s.Token == "" && s.RefreshToken == "" && s.Account == nil
}

// Store is the typed persistence adapter over the key/value repository.
// The triple is written inside a single transaction and cleared with a
// single statement, so a crash cannot leave a partial session record.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func encodeAccount(acc *account.Account) ([]byte, error) {
	sa := storedAccount{
		ID:            acc.ID,
		Email:         acc.Email,
		Name:          acc.Name,
		Avatar:        acc.Avatar,
		EmailVerified: acc.EmailVerified,
		CreatedAt:     acc.CreatedAt.UTC().Format(time.RFC3339Nano),
		LastLogin:     acc.LastLogin.UTC().Format(time.RFC3339Nano),
	}
	return json.Marshal(sa)
}

func decodeAccount(data []byte) (*account.Account, error) {
	var sa storedAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("failed to decode stored account: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, sa.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse createdAt: %w", err)
	}
	lastLogin, err := time.Parse(time.RFC3339Nano, sa.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lastLogin: %w", err)
	}

	return &account.Account{
		ID:            sa.ID,
		Email:         sa.Email,
		Name:          sa.Name,
		Avatar:        sa.Avatar,
		EmailVerified: sa.EmailVerified,
		CreatedAt:     createdAt,
		LastLogin:     lastLogin,
	}, nil
}

// SaveSession persists the full triple in one transaction.
func (s *Store) SaveSession(ctx context.Context, token, refreshToken string, acc *account.Account) error {
	encoded, err := encodeAccount(acc)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyAuthToken, []byte(token)); err != nil {
			return err
		}
		if err := repo.Set(ctx, KeyRefreshToken, []byte(refreshToken)); err != nil {
			return err
		}
		return repo.Set(ctx, KeyAuthUser, encoded)
	})
}

// SaveAccount re-persists only the account snapshot, leaving both tokens
// untouched. Used after profile updates.
func (s *Store) SaveAccount(ctx context.Context, acc *account.Account) error {
	encoded, err := encodeAccount(acc)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}
	return NewSQLiteRepository(s.db).Set(ctx, KeyAuthUser, encoded)
}

// LoadSession reads the persisted triple. Absent keys come back empty; a
// stored account that fails to decode is reported as an error so the caller
// can treat the session as absent.
func (s *Store) LoadSession(ctx context.Context) (Snapshot, error) {
	repo := NewSQLiteRepository(s.db)
	snap := Snapshot{}

	tokenBytes, err := repo.Get(ctx, KeyAuthToken)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Token = string(tokenBytes)

	refreshBytes, err := repo.Get(ctx, KeyRefreshToken)
	if err != nil {
		return Snapshot{}, err
	}
	snap.RefreshToken = string(refreshBytes)

	accBytes, err := repo.Get(ctx, KeyAuthUser)
	if err != nil {
		return Snapshot{}, err
	}
	if len(accBytes) > 0 {
		acc, err := decodeAccount(accBytes)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Account = acc
	}

	return snap, nil
}

// ClearSession wipes the whole table, removing all three keys in a single
// statement. The table holds exactly one session record, so there is nothing
// else to preserve.
func (s *Store) ClearSession(ctx context.Context) error {
	return NewSQLiteRepository(s.db).Clear(ctx)
}
