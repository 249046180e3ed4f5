package account

import (
	"regexp"
	"strings"

	"github.com/vitalsync/authkit/internal/common"
)

// emailRe matches the local@domain.tld shape: no whitespace or extra '@',
// and at least one dot in the domain.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 8

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the email shape after normalization.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(NormalizeEmail(email)) {
		return common.ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum-length policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return common.ErrWeakPassword
	}
	return nil
}

// ValidateName requires a non-empty name after trimming.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return common.ErrInvalidName
	}
	return nil
}
