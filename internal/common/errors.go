// Package common defines shared constants and sentinel errors used across
// authkit components. Callers should use errors.Is to match these values and
// common.Kind to obtain a stable machine-readable code for rendering.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Field validation errors.
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrWeakPassword     = errors.New("password must be at least 8 characters long")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidName      = errors.New("name is required")

	// Account directory errors.
	ErrAccountNotFound   = errors.New("no account found with this email address")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrAccountExists     = errors.New("an account with this email already exists")

	// Session errors.
	ErrNotAuthenticated = errors.New("not authenticated")

	// Token lifecycle errors.
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrResetToken     = errors.New("invalid reset token")

	// Dependency call deadline exceeded.
	ErrTimeout = errors.New("operation timed out")
)

// kinds maps sentinel errors to stable codes. The codes are part of the
// external contract: UI collaborators switch on them, so they must not change
// even if the human-readable messages do.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidEmail, "invalid_email"},
	{ErrWeakPassword, "weak_password"},
	{ErrPasswordMismatch, "password_mismatch"},
	{ErrInvalidName, "invalid_name"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrIncorrectPassword, "incorrect_password"},
	{ErrAccountExists, "duplicate_account"},
	{ErrNotAuthenticated, "not_authenticated"},
	{ErrMalformedToken, "malformed_token"},
	{ErrTokenExpired, "expired_token"},
	{ErrNoRefreshToken, "no_refresh_token"},
	{ErrResetToken, "invalid_reset_token"},
	{ErrTimeout, "timeout"},
	{ErrorNotFound, "not_found"},
}

// Kind returns the stable code for err, unwrapping as needed.
// A nil error yields "". Unrecognized errors map to "internal".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
