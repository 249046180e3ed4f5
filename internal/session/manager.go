package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitalsync/authkit/internal/account"
	"github.com/vitalsync/authkit/internal/common"
	"github.com/vitalsync/authkit/internal/logging"
	"github.com/vitalsync/authkit/internal/statestore"
	"github.com/vitalsync/authkit/internal/token"
)

// Manager is the session state machine. Mutating operations are serialized by
// opMu (single-flight per session), the improvement over the original
// last-write-wins behavior. Logout deliberately bypasses that gate: it is a
// local-state-clearing guarantee and must not wait behind a slow in-flight
// call. The epoch counter implements the stale-response guard: a call that
// finishes after an intervening logout discards its result.
type Manager struct {
	accounts    *account.Store
	tokens      *token.Manager
	store       *statestore.Store
	log         logging.Logger
	callTimeout time.Duration

	opMu sync.Mutex

	stateMu  sync.RWMutex
	cur      State
	epoch    uint64
	onChange func(State)
}

func NewManager(accounts *account.Store, tokens *token.Manager, store *statestore.Store, log logging.Logger, callTimeout time.Duration) *Manager {
	return &Manager{
		accounts:    accounts,
		tokens:      tokens,
		store:       store,
		log:         log,
		callTimeout: callTimeout,
		cur:         State{IsLoading: true},
	}
}

// Current returns a copy of the observable session state.
func (m *Manager) Current() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.cur.clone()
}

// OnChange registers a listener invoked after every published transition.
// The listener receives a copy and runs outside the manager's locks.
func (m *Manager) OnChange(fn func(State)) {
	m.stateMu.Lock()
	m.onChange = fn
	m.stateMu.Unlock()
}

// snapshotEpoch captures the epoch an operation belongs to.
func (m *Manager) snapshotEpoch() uint64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.epoch
}

// apply publishes a state mutation unless the session was logged out since
// epoch was captured. Reports whether the mutation was applied.
func (m *Manager) apply(epoch uint64, fn func(*State)) bool {
	m.stateMu.Lock()
	if m.epoch != epoch {
		m.stateMu.Unlock()
		return false
	}
	fn(&m.cur)
	st := m.cur.clone()
	cb := m.onChange
	m.stateMu.Unlock()

	if cb != nil {
		cb(st)
	}
	return true
}

// callCtx attaches the per-dependency-call deadline.
func (m *Manager) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.callTimeout)
}

// mapTimeout converts a blown deadline into the session-level timeout error.
func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.ErrTimeout
	}
	return err
}

// Initialize restores the session from the state store on process start.
// It always resolves to Authenticated or Anonymous and never returns an
// error: a broken local store means no session.
func (m *Manager) Initialize(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	epoch := m.snapshotEpoch()

	cctx, cancel := m.callCtx(ctx)
	snap, err := m.store.LoadSession(cctx)
	cancel()
	if err != nil {
		m.log.Warn(ctx, "failed to load persisted session", "error", err)
		m.apply(epoch, setAnonymous)
		return
	}
	if snap.Token == "" {
		m.apply(epoch, setAnonymous)
		return
	}

	claims, err := m.tokens.Validate(snap.Token)
	if err != nil {
		m.log.Debug(ctx, "persisted token rejected", "error", err)
		m.apply(epoch, setAnonymous)
		return
	}

	cctx, cancel = m.callCtx(ctx)
	acc, err := m.accounts.FindByID(cctx, claims.Subject)
	cancel()
	if err != nil {
		m.log.Warn(ctx, "persisted token subject did not resolve", "error", err)
		m.apply(epoch, setAnonymous)
		return
	}

	m.apply(epoch, func(s *State) {
		s.Account = acc
		s.Token = snap.Token
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Err = nil
	})
	m.log.Info(ctx, "session restored", "account_id", acc.ID)
}

func setAnonymous(s *State) {
	s.Account = nil
	s.Token = ""
	s.IsAuthenticated = false
	s.IsLoading = false
	s.Err = nil
}

// fail publishes an operation failure. Authentication fields keep their prior
// values: a failed call surfaces an error, it does not de-authenticate.
func (m *Manager) fail(epoch uint64, err error) error {
	m.apply(epoch, func(s *State) {
		s.IsLoading = false
		s.Err = err
	})
	return err
}

// Login verifies the credentials, issues a token pair, persists the session
// triple, and transitions to Authenticated.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	epoch := m.snapshotEpoch()
	m.apply(epoch, func(s *State) {
		s.IsLoading = true
		s.Err = nil
	})

	cctx, cancel := m.callCtx(ctx)
	acc, err := m.accounts.Verify(cctx, creds.Email, creds.Password)
	cancel()
	if err != nil {
		return m.fail(epoch, mapTimeout(err))
	}

	return m.establish(ctx, epoch, acc, true)
}

// Register validates the submission, inserts the account, and transitions to
// Authenticated. A duplicate email fails without mutating any state.
func (m *Manager) Register(ctx context.Context, data Registration) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	epoch := m.snapshotEpoch()
	m.apply(epoch, func(s *State) {
		s.IsLoading = true
		s.Err = nil
	})

	if data.Password != data.ConfirmPassword {
		return m.fail(epoch, common.ErrPasswordMismatch)
	}

	cctx, cancel := m.callCtx(ctx)
	acc, err := m.accounts.Register(cctx, data.Name, data.Email, data.Password)
	cancel()
	if err != nil {
		return m.fail(epoch, mapTimeout(err))
	}

	return m.establish(ctx, epoch, acc, false)
}

// establish mints tokens for acc, persists the triple, and publishes the
// Authenticated state. touchLogin stamps LastLogin first (login path; register
// already stamped it on insert).
func (m *Manager) establish(ctx context.Context, epoch uint64, acc *account.Account, touchLogin bool) error {
	if touchLogin {
		cctx, cancel := m.callCtx(ctx)
		updated, err := m.accounts.TouchLastLogin(cctx, acc.ID)
		cancel()
		if err != nil {
			return m.fail(epoch, mapTimeout(err))
		}
		acc = updated
	}

	pair, err := m.tokens.Issue(acc.ID)
	if err != nil {
		return m.fail(epoch, err)
	}

	cctx, cancel := m.callCtx(ctx)
	err = m.store.SaveSession(cctx, pair.AccessToken, pair.RefreshToken, acc)
	cancel()
	if err != nil {
		return m.fail(epoch, mapTimeout(err))
	}

	applied := m.apply(epoch, func(s *State) {
		s.Account = acc
		s.Token = pair.AccessToken
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Err = nil
	})
	if !applied {
		// A logout won the race after we persisted; honor its clearing
		// guarantee and discard this result.
		m.clearStorage(ctx)
		return nil
	}

	m.log.Info(ctx, "session established", "account_id", acc.ID)
	return nil
}

// clearStorage wipes the persisted triple, logging (not surfacing) failures.
func (m *Manager) clearStorage(ctx context.Context) {
	cctx, cancel := m.callCtx(ctx)
	defer cancel()
	if err := m.store.ClearSession(cctx); err != nil {
		m.log.Error(ctx, "failed to clear persisted session", "error", err)
	}
}

// Logout transitions to Anonymous and clears the persisted triple. It never
// surfaces an error and deliberately skips the single-flight gate so it
// cannot be delayed by an in-flight call; the epoch bump makes any such call
// discard its late result.
func (m *Manager) Logout(ctx context.Context) {
	m.stateMu.Lock()
	m.epoch++
	setAnonymous(&m.cur)
	st := m.cur.clone()
	cb := m.onChange
	m.stateMu.Unlock()

	if cb != nil {
		cb(st)
	}

	m.clearStorage(ctx)
	m.log.Info(ctx, "session terminated")
}

// UpdateProfile changes name/avatar for the authenticated account and
// re-persists the account snapshot without touching the tokens.
func (m *Manager) UpdateProfile(ctx context.Context, update account.ProfileUpdate) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	cur := m.Current()
	if !cur.IsAuthenticated || cur.Account == nil {
		return common.ErrNotAuthenticated
	}
	epoch := m.snapshotEpoch()

	cctx, cancel := m.callCtx(ctx)
	updated, err := m.accounts.UpdateProfile(cctx, cur.Account.ID, update)
	cancel()
	if err != nil {
		return m.fail(epoch, mapTimeout(err))
	}

	cctx, cancel = m.callCtx(ctx)
	err = m.store.SaveAccount(cctx, updated)
	cancel()
	if err != nil {
		return m.fail(epoch, mapTimeout(err))
	}

	m.apply(epoch, func(s *State) {
		s.Account = updated
		s.Err = nil
	})
	return nil
}

// ChangePassword replaces the authenticated account's secret after verifying
// the current one.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	cur := m.Current()
	if !cur.IsAuthenticated || cur.Account == nil {
		return common.ErrNotAuthenticated
	}
	epoch := m.snapshotEpoch()

	cctx, cancel := m.callCtx(ctx)
	err := m.accounts.UpdatePassword(cctx, cur.Account.ID, oldPassword, newPassword)
	cancel()
	if err != nil {
		return m.fail(epoch, mapTimeout(err))
	}
	return nil
}

// RefreshToken exchanges the stored refresh token for a new pair. Any failure
// forces session termination: state and storage are cleared AND the error is
// surfaced ("refresh failure forces session termination").
func (m *Manager) RefreshToken(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	epoch := m.snapshotEpoch()

	cctx, cancel := m.callCtx(ctx)
	snap, err := m.store.LoadSession(cctx)
	cancel()
	if err != nil {
		return m.forceLogout(ctx, epoch, mapTimeout(err))
	}
	if snap.RefreshToken == "" {
		return m.forceLogout(ctx, epoch, common.ErrNoRefreshToken)
	}

	pair, err := m.tokens.Refresh(snap.RefreshToken)
	if err != nil {
		return m.forceLogout(ctx, epoch, err)
	}

	acc := snap.Account
	if acc == nil {
		cur := m.Current()
		acc = cur.Account
	}
	if acc == nil {
		return m.forceLogout(ctx, epoch, common.ErrNoRefreshToken)
	}

	cctx, cancel = m.callCtx(ctx)
	err = m.store.SaveSession(cctx, pair.AccessToken, pair.RefreshToken, acc)
	cancel()
	if err != nil {
		return m.forceLogout(ctx, epoch, mapTimeout(err))
	}

	applied := m.apply(epoch, func(s *State) {
		s.Account = acc
		s.Token = pair.AccessToken
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Err = nil
	})
	if !applied {
		m.clearStorage(ctx)
		return nil
	}

	m.log.Debug(ctx, "session refreshed", "account_id", acc.ID)
	return nil
}

// forceLogout clears state and storage like Logout but, unlike Logout,
// records and returns the triggering error.
func (m *Manager) forceLogout(ctx context.Context, epoch uint64, cause error) error {
	m.stateMu.Lock()
	if m.epoch == epoch {
		m.epoch++
		setAnonymous(&m.cur)
		m.cur.Err = cause
	}
	st := m.cur.clone()
	cb := m.onChange
	m.stateMu.Unlock()

	if cb != nil {
		cb(st)
	}

	m.clearStorage(ctx)
	m.log.Warn(ctx, "refresh failed, session terminated", "error", cause)
	return cause
}

// ClearError drops the error field, returning to the prior Authenticated or
// Anonymous state without altering other fields. No I/O.
func (m *Manager) ClearError() {
	m.stateMu.Lock()
	m.cur.Err = nil
	st := m.cur.clone()
	cb := m.onChange
	m.stateMu.Unlock()

	if cb != nil {
		cb(st)
	}
}

// RequestPasswordReset accepts a reset request. Unknown emails are outwardly
// indistinguishable from known ones, so account existence never leaks; only a
// malformed email is rejected. Each request is recorded in the audit log.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if err := account.ValidateEmail(email); err != nil {
		return err
	}

	normalized := account.NormalizeEmail(email)
	m.log.Info(ctx, "password reset requested", "email", normalized)

	// Only a real account gets a reset token minted; message delivery lives
	// outside this subsystem and the caller learns nothing either way.
	cctx, cancel := m.callCtx(ctx)
	acc, err := m.accounts.FindByEmail(cctx, normalized)
	cancel()
	if err != nil {
		return nil
	}

	tok, err := m.tokens.ResetToken(acc.ID)
	if err != nil {
		m.log.Error(ctx, "failed to mint reset token", "account_id", acc.ID, "error", err)
		return nil
	}
	m.log.Debug(ctx, "password reset token minted", "account_id", acc.ID, "token", tok)

	return nil
}

// ResetPassword accepts a reset token and a new password. Structural checks
// only precede the secret replacement; token issuance and delivery are the
// reset-request flow's concern.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, password, confirmPassword string) error {
	if resetToken == "" {
		return common.ErrResetToken
	}
	if err := account.ValidatePassword(password); err != nil {
		return err
	}
	if password != confirmPassword {
		return common.ErrPasswordMismatch
	}

	id, err := m.tokens.ValidateResetToken(resetToken)
	if err != nil {
		return err
	}

	cctx, cancel := m.callCtx(ctx)
	defer cancel()
	return mapTimeout(m.accounts.ResetPassword(cctx, id, password))
}
