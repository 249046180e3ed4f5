package authcli

import (
	"context"
	"os"

	"github.com/vitalsync/authkit/internal/common"
	"github.com/vitalsync/authkit/internal/session"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a name, email, and password pair and attempts to
// create an account. On success the session is already established.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Confirm password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	err = a.session.Register(ctx, session.Registration{
		Name:            name,
		Email:           email,
		Password:        string(password),
		ConfirmPassword: string(confirm),
	})
	if err != nil {
		printlnFn("Registration failed:", err.Error())
		a.session.ClearError()
		return err
	}

	printlnFn("Welcome,", a.session.Current().Account.Name)
	return nil
}

// Login prompts for credentials and tries to authenticate.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.session.Login(ctx, session.Credentials{Email: email, Password: string(password)})
	if err != nil {
		printlnFn("Login failed:", err.Error())
		a.session.ClearError()
		return err
	}

	printlnFn("Welcome back,", a.session.Current().Account.Name)
	return nil
}

// Logout terminates the session and clears the persisted state.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out")
	return nil
}
