package account

import "context"

// Repository is the storage contract for the account directory. Emails are
// stored normalized (lowercase); lookups take normalized emails.
//
// Implementations must serialize concurrent Create calls for the same email:
// two simultaneous registrations for one address yield exactly one success
// and one common.ErrAccountExists.
type Repository interface {
	// FindByEmail returns the account and its password hash, or
	// common.ErrorNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*Account, []byte, error)

	// FindByID returns the account by id, or common.ErrorNotFound.
	FindByID(ctx context.Context, id string) (*Account, error)

	// Create inserts a new account with its password hash. Returns
	// common.ErrAccountExists when the normalized email is already taken.
	Create(ctx context.Context, acc *Account, passwordHash []byte) (*Account, error)

	// Update overwrites the mutable fields of an existing account.
	// Returns common.ErrorNotFound when the id is stale.
	Update(ctx context.Context, acc *Account) (*Account, error)

	// UpdatePasswordHash replaces the stored password hash.
	// Returns common.ErrorNotFound when the id is stale.
	UpdatePasswordHash(ctx context.Context, id string, newHash []byte) error
}
