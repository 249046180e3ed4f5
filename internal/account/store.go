package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitalsync/authkit/internal/common"
)

// Store is the credential directory service. It owns validation, email
// normalization, and password hashing; the injected Repository owns storage.
type Store struct {
	repo Repository
	now  func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Register validates the fields, hashes the password, and inserts a new
// account with EmailVerified=false. The email is stored normalized.
func (s *Store) Register(ctx context.Context, name, email, password string) (*Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	acc := &Account{
		ID:            uuid.NewString(),
		Email:         NormalizeEmail(email),
		Name:          strings.TrimSpace(name),
		EmailVerified: false,
		CreatedAt:     now,
		LastLogin:     now,
	}

	return s.repo.Create(ctx, acc, hash)
}

// Verify checks the credentials for an existing account. Unknown emails yield
// common.ErrAccountNotFound; a bcrypt mismatch yields common.ErrIncorrectPassword.
func (s *Store) Verify(ctx context.Context, email, password string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	acc, hash, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, common.ErrIncorrectPassword
	}

	return acc, nil
}

// FindByEmail resolves a normalized email to an account without exposing the
// credential. Unknown emails yield common.ErrAccountNotFound.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Account, error) {
	acc, _, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// FindByID resolves an account id, mapping repository misses to
// common.ErrAccountNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*Account, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// UpdateProfile applies a partial update of name/avatar. A stale id yields
// common.ErrAccountNotFound.
func (s *Store) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Account, error) {
	acc, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if err := ValidateName(*update.Name); err != nil {
			return nil, err
		}
		acc.Name = strings.TrimSpace(*update.Name)
	}
	if update.Avatar != nil {
		acc.Avatar = *update.Avatar
	}

	updated, err := s.repo.Update(ctx, acc)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	return updated, nil
}

// UpdatePassword replaces the secret after verifying the old one and applying
// the password policy to the new one.
func (s *Store) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	acc, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	_, hash, err := s.repo.FindByEmail(ctx, acc.Email)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(oldPassword)) != nil {
		return common.ErrIncorrectPassword
	}

	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	return s.repo.UpdatePasswordHash(ctx, id, newHash)
}

// ResetPassword replaces the secret without the old one; used by the
// password-reset flow after the reset token has been validated.
func (s *Store) ResetPassword(ctx context.Context, id, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = s.repo.UpdatePasswordHash(ctx, id, newHash)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrAccountNotFound
	}
	return err
}

// TouchLastLogin stamps LastLogin with the current time.
func (s *Store) TouchLastLogin(ctx context.Context, id string) (*Account, error) {
	acc, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	acc.LastLogin = s.now()
	updated, err := s.repo.Update(ctx, acc)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, err
	}
	return updated, nil
}
