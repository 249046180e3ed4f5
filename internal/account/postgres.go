package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vitalsync/authkit/internal/account/migrations"
	"github.com/vitalsync/authkit/internal/common"
	"github.com/vitalsync/authkit/internal/dbx"
)

// PostgresRepository is the production account directory over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx). The unique index on email makes
// concurrent duplicate registrations resolve to exactly one winner.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// uniqueViolation reports whether err is a PostgreSQL unique-constraint error.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Account, []byte, error) {
	query :=
		`SELECT id, email, name, avatar, email_verified, created_at, last_login, password_hash
		 FROM accounts
		 WHERE email = $1
		 `

	acc := &Account{}
	var hash []byte
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&acc.ID, &acc.Email, &acc.Name, &acc.Avatar, &acc.EmailVerified,
		&acc.CreatedAt, &acc.LastLogin, &hash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}

	return acc, hash, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	query :=
		`SELECT id, email, name, avatar, email_verified, created_at, last_login
		 FROM accounts
		 WHERE id = $1
		 `

	acc := &Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.Email, &acc.Name, &acc.Avatar, &acc.EmailVerified,
		&acc.CreatedAt, &acc.LastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return acc, nil
}

func (r *PostgresRepository) Create(ctx context.Context, acc *Account, passwordHash []byte) (*Account, error) {
	query :=
		`INSERT INTO accounts (id, email, name, avatar, email_verified, created_at, last_login, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		acc.ID, acc.Email, acc.Name, acc.Avatar, acc.EmailVerified,
		acc.CreatedAt, acc.LastLogin, passwordHash)

	if err != nil {
		if uniqueViolation(err) {
			return nil, common.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return acc.Clone(), nil
}

func (r *PostgresRepository) Update(ctx context.Context, acc *Account) (*Account, error) {
	query :=
		`UPDATE accounts
		 SET name = $2, avatar = $3, email_verified = $4, last_login = $5
		 WHERE id = $1
		 RETURNING email, created_at
		 `

	updated := acc.Clone()
	err := r.db.QueryRowContext(ctx, query,
		acc.ID, acc.Name, acc.Avatar, acc.EmailVerified, acc.LastLogin).
		Scan(&updated.Email, &updated.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return updated, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, newHash []byte) error {
	query :=
		`UPDATE accounts
		 SET password_hash = $2
		 WHERE id = $1
		 RETURNING id
		 `

	var updatedID string
	err := r.db.QueryRowContext(ctx, query, id, newHash).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
