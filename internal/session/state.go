// Package session implements the session state machine that ties the account
// directory, the token manager, and the local state store together. It is the
// only component UI collaborators talk to.
package session

import "github.com/vitalsync/authkit/internal/account"

// State is the observable session context. IsAuthenticated holds exactly when
// a valid, unexpired token is present and its subject resolved to an account.
// IsLoading is advisory for UI gating only; it is not a mutual-exclusion lock.
type State struct {
	Account         *account.Account
	Token           string
	IsAuthenticated bool
	IsLoading       bool
	Err             error
}

func (s State) clone() State {
	c := s
	c.Account = s.Account.Clone()
	return c
}

// Credentials is the login submission.
type Credentials struct {
	Email    string
	Password string
}

// Registration is the sign-up submission.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}
