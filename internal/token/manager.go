// Package token issues, validates, and refreshes the HS256-signed bearer
// tokens used by the session core. Validation is a pure function of the token
// and the clock; it never consults the account directory.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalsync/authkit/internal/common"
)

// Subject namespaces. An access token's subject is the bare account id;
// refresh and reset tokens carry a prefixed subject so they can never be
// presented as access tokens.
const (
	refreshPrefix = "refresh:"
	resetPrefix   = "reset:"
)

// Claims are the decoded fields embedded in a token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is an access token with its paired refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Manager signs and verifies tokens with a server-held HMAC secret.
// The now field is the clock seam for expiry tests.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewManager(secret []byte, accessTTL, refreshTTL, resetTTL time.Duration) *Manager {
	return &Manager{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock overrides the manager's time source. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) sign(subject string, ttl time.Duration) (string, error) {
	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Issue mints an access token for subject together with its paired refresh
// token. The refresh token shares the account id under the refresh namespace.
func (m *Manager) Issue(subject string) (Pair, error) {
	access, err := m.sign(subject, m.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.sign(refreshPrefix+subject, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) parse(tokenString string) (Claims, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, common.ErrTokenExpired
		}
		return Claims{}, common.ErrMalformedToken
	}

	c := Claims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		c.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		c.ExpiresAt = claims.ExpiresAt.Time
	}
	return c, nil
}

// Validate decodes an access token, checking signature and expiry. Tokens
// from the refresh or reset namespaces never authorize access and are
// rejected as malformed.
func (m *Manager) Validate(tokenString string) (Claims, error) {
	c, err := m.parse(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if strings.HasPrefix(c.Subject, refreshPrefix) || strings.HasPrefix(c.Subject, resetPrefix) {
		return Claims{}, common.ErrMalformedToken
	}
	return c, nil
}

// Refresh exchanges a valid refresh token for a brand-new pair with a fresh
// IssuedAt for the same subject. An absent or malformed token yields
// common.ErrNoRefreshToken; an expired one yields common.ErrTokenExpired.
//
// The superseded access token is not revoked; it expires on its own schedule.
// Known weakness of the scheme: there is no revocation list.
func (m *Manager) Refresh(refreshToken string) (Pair, error) {
	if refreshToken == "" {
		return Pair{}, common.ErrNoRefreshToken
	}

	c, err := m.parse(refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return Pair{}, err
		}
		return Pair{}, common.ErrNoRefreshToken
	}

	subject, ok := strings.CutPrefix(c.Subject, refreshPrefix)
	if !ok {
		return Pair{}, common.ErrNoRefreshToken
	}

	return m.Issue(subject)
}

// ResetToken mints a short-lived single-purpose token for the password-reset
// accept flow.
func (m *Manager) ResetToken(subject string) (string, error) {
	return m.sign(resetPrefix+subject, m.resetTTL)
}

// ValidateResetToken checks a reset token and returns the account id it was
// minted for. Any failure yields common.ErrResetToken.
func (m *Manager) ValidateResetToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", common.ErrResetToken
	}
	c, err := m.parse(tokenString)
	if err != nil {
		return "", common.ErrResetToken
	}
	subject, ok := strings.CutPrefix(c.Subject, resetPrefix)
	if !ok {
		return "", common.ErrResetToken
	}
	return subject, nil
}
