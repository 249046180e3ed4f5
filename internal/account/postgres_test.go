package account

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vitalsync/authkit/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleAccount() *Account {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Account{
		ID:        "11111111-2222-3333-4444-555555555555",
		Email:     "ann@example.com",
		Name:      "Ann",
		CreatedAt: now,
		LastLogin: now,
	}
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*email,\s*name,\s*avatar,\s*email_verified,\s*created_at,\s*last_login,\s*password_hash\)`

	acc := sampleAccount()
	mock.ExpectExec(q).
		WithArgs(acc.ID, acc.Email, acc.Name, acc.Avatar, acc.EmailVerified, acc.CreatedAt, acc.LastLogin, []byte("hash")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), acc, []byte("hash"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != acc.ID || got.Email != "ann@example.com" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestPostgresCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts`

	acc := sampleAccount()
	mock.ExpectExec(q).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), acc, []byte("hash"))
	if !errors.Is(err, common.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+accounts`

	mock.ExpectExec(q).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleAccount(), []byte("hash"))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,\s*name,\s*avatar,\s*email_verified,\s*created_at,\s*last_login,\s*password_hash\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`

	acc := sampleAccount()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "avatar", "email_verified", "created_at", "last_login", "password_hash"}).
		AddRow(acc.ID, acc.Email, acc.Name, "", false, acc.CreatedAt, acc.LastLogin, []byte("hash"))
	mock.ExpectQuery(q).WithArgs("ann@example.com").WillReturnRows(rows)

	got, hash, err := repo.FindByEmail(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != acc.ID || string(hash) != "hash" {
		t.Fatalf("unexpected result: %+v / %q", got, hash)
	}
}

func TestPostgresFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+accounts\s+WHERE\s+email`

	mock.ExpectQuery(q).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, _, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestPostgresUpdate_StaleID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts`

	mock.ExpectQuery(q).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), sampleAccount())
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestPostgresUpdatePasswordHash_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id`

	rows := sqlmock.NewRows([]string{"id"}).AddRow("u-1")
	mock.ExpectQuery(q).WithArgs("u-1", []byte("new")).WillReturnRows(rows)

	if err := repo.UpdatePasswordHash(context.Background(), "u-1", []byte("new")); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
}
