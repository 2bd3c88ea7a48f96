package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ymatrosov/linkstash/internal/common"
)

// getSimpleText, getOptionalText and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getOptionalText = GetOptionalText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account. The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Register(ctx, email, password)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Registered %s. You can now login.", user.Email))
	return nil
}

// Login prompts the user for credentials and authenticates against the
// server. On success the client keeps the session token in memory.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, password); err != nil {
		return err
	}

	a.email = email
	printlnFn("Logged in.")
	return nil
}

// Logout drops the in-memory session token.
func (a *App) Logout(ctx context.Context) error {
	a.api.ClearToken()
	a.email = ""
	printlnFn("Logged out.")
	return nil
}

// Whoami asks the server which identity the current token carries.
func (a *App) Whoami(ctx context.Context) error {
	id, err := a.api.Whoami(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s (%s)", id.Email, id.UserID))
	return nil
}

// Account shows the stored account record.
func (a *App) Account(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s (%s), registered %s", user.Email, user.ID, user.CreatedAt.Format("2006-01-02")))
	return nil
}

// ChangePassword prompts for a new password and stores it on the server.
func (a *App) ChangePassword(ctx context.Context) error {
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	pw := string(password)
	if _, err := a.api.UpdateMe(ctx, nil, &pw); err != nil {
		return err
	}

	printlnFn("Password changed.")
	return nil
}

// DeleteAccount removes the account and everything it owns after an
// explicit confirmation.
func (a *App) DeleteAccount(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "This deletes the account and all of its links. Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Aborted.")
		return nil
	}

	if err := a.api.DeleteMe(ctx); err != nil {
		return err
	}

	a.email = ""
	printlnFn("Account deleted.")
	return nil
}
