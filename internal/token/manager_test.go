package token

import (
	"errors"
	"testing"
	"time"

	"github.com/vitalsync/authkit/internal/common"
)

func newTestManager() *Manager {
	return NewManager([]byte("super-secret"), 24*time.Hour, 7*24*time.Hour, 15*time.Minute)
}

func TestIssueAndValidate_Success(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "user-123")
	}
}

func TestIssue_ExpiryIsExactly24h(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := m.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 86400*time.Second {
		t.Fatalf("expiresAt-issuedAt = %v, expected exactly 86400s", got)
	}
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// advance the clock past the access TTL
	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	_, err = m.Validate(pair.AccessToken)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestValidate_NotYetExpired(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(23 * time.Hour) }

	claims, err := m.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("subject mismatch: got %q", claims.Subject)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	other := NewManager([]byte("wrong-secret"), 24*time.Hour, 7*24*time.Hour, 15*time.Minute)

	pair, err := m.Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = other.Validate(pair.AccessToken)
	if !errors.Is(err, common.ErrMalformedToken) {
		t.Fatalf("expected common.ErrMalformedToken, got %v", err)
	}
}

func TestValidate_MalformedString(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Validate("not.a.jwt")
	if !errors.Is(err, common.ErrMalformedToken) {
		t.Fatalf("expected common.ErrMalformedToken, got %v", err)
	}
}

func TestValidate_RejectsRefreshToken(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("u3")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = m.Validate(pair.RefreshToken)
	if !errors.Is(err, common.ErrMalformedToken) {
		t.Fatalf("refresh token must not validate as access token, got %v", err)
	}
}

func TestRefresh_SameSubjectFreshIssuedAt(t *testing.T) {
	m := newTestManager()

	base := time.Now()
	m.now = func() time.Time { return base }

	pair, err := m.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	oldClaims, err := m.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	m.now = func() time.Time { return base.Add(2 * time.Second) }

	next, err := m.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	newClaims, err := m.Validate(next.AccessToken)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if newClaims.Subject != "user-42" {
		t.Fatalf("subject mismatch after refresh: got %q", newClaims.Subject)
	}
	if !newClaims.IssuedAt.After(oldClaims.IssuedAt) {
		t.Fatalf("expected new IssuedAt %v to be after old %v", newClaims.IssuedAt, oldClaims.IssuedAt)
	}
}

func TestRefresh_EmptyToken(t *testing.T) {
	t.Parallel()

	m := newTestManager()
	_, err := m.Refresh("")
	if !errors.Is(err, common.ErrNoRefreshToken) {
		t.Fatalf("expected common.ErrNoRefreshToken, got %v", err)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("u5")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = m.Refresh(pair.AccessToken)
	if !errors.Is(err, common.ErrNoRefreshToken) {
		t.Fatalf("access token must not work as refresh token, got %v", err)
	}
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	pair, err := m.Issue("u6")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	m.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	_, err = m.Refresh(pair.RefreshToken)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestResetToken_RoundTrip(t *testing.T) {
	t.Parallel()

	m := newTestManager()

	tok, err := m.ResetToken("user-9")
	if err != nil {
		t.Fatalf("ResetToken error: %v", err)
	}

	id, err := m.ValidateResetToken(tok)
	if err != nil {
		t.Fatalf("ValidateResetToken error: %v", err)
	}
	if id != "user-9" {
		t.Fatalf("subject mismatch: got %q", id)
	}

	// an access token is not a reset token
	pair, err := m.Issue("user-9")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := m.ValidateResetToken(pair.AccessToken); !errors.Is(err, common.ErrResetToken) {
		t.Fatalf("expected common.ErrResetToken, got %v", err)
	}
}
