// Package account implements the credential directory: account records,
// their secrets, and the repository abstraction backing them.
package account

import "time"

// Account is the public record of a registered user. The credential hash is
// stored alongside it in the repository but never leaves this package.
type Account struct {
	ID            string
	Email         string
	Name          string
	Avatar        string
	EmailVerified bool
	CreatedAt     time.Time
	LastLogin     time.Time
}

// Clone returns a copy of the account so callers cannot mutate repository state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// ProfileUpdate describes a partial update of the mutable profile fields.
// Nil pointers leave the corresponding field untouched.
type ProfileUpdate struct {
	Name   *string
	Avatar *string
}
