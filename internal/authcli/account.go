package authcli

import (
	"context"
	"os"

	"github.com/vitalsync/authkit/internal/account"
	"github.com/vitalsync/authkit/internal/common"
)

// Whoami prints the authenticated account.
func (a *App) Whoami(ctx context.Context) error {
	st := a.session.Current()
	if !st.IsAuthenticated || st.Account == nil {
		printlnFn("Not logged in")
		return common.ErrNotAuthenticated
	}

	acc := st.Account
	printlnFn("Name:          ", acc.Name)
	printlnFn("Email:         ", acc.Email)
	printlnFn("Email verified:", acc.EmailVerified)
	if acc.Avatar != "" {
		printlnFn("Avatar:        ", acc.Avatar)
	}
	printlnFn("Member since:  ", acc.CreatedAt.Format("2006-01-02"))
	if !acc.LastLogin.IsZero() {
		printlnFn("Last login:    ", acc.LastLogin.Format("2006-01-02 15:04"))
	}
	return nil
}

// Profile prompts for new name and avatar values. An empty input keeps the
// current value.
func (a *App) Profile(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "New name (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	avatar, err := getSimpleText(a.reader, "New avatar URL (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var update account.ProfileUpdate
	if name != "" {
		update.Name = &name
	}
	if avatar != "" {
		update.Avatar = &avatar
	}
	if update.Name == nil && update.Avatar == nil {
		printlnFn("Nothing to change")
		return nil
	}

	if err := a.session.UpdateProfile(ctx, update); err != nil {
		printlnFn("Update failed:", err.Error())
		a.session.ClearError()
		return err
	}
	printlnFn("Profile updated")
	return nil
}

// Passwd prompts for the current and a new password.
func (a *App) Passwd(ctx context.Context) error {
	current, err := getPassword("Current password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getPassword("New password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.session.ChangePassword(ctx, string(current), string(next)); err != nil {
		printlnFn("Password change failed:", err.Error())
		a.session.ClearError()
		return err
	}
	printlnFn("Password changed")
	return nil
}

// Refresh exchanges the stored refresh token for a fresh pair. A failed
// refresh has already terminated the session by the time it reports.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.session.RefreshToken(ctx); err != nil {
		printlnFn("Refresh failed, session terminated:", err.Error())
		a.session.ClearError()
		return err
	}
	printlnFn("Session refreshed")
	return nil
}

// Forgot submits a password reset request for an email address.
func (a *App) Forgot(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.RequestPasswordReset(ctx, email); err != nil {
		printlnFn("Request failed:", err.Error())
		return err
	}
	printlnFn("If that email is registered, a reset link has been sent")
	return nil
}

// Reset applies a reset token together with a new password.
func (a *App) Reset(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword("New password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Confirm password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if err := a.session.ResetPassword(ctx, token, string(password), string(confirm)); err != nil {
		printlnFn("Reset failed:", err.Error())
		return err
	}
	printlnFn("Password reset, you can log in now")
	return nil
}
