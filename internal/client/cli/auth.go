package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/scanvault/internal/common"
)

// Input helpers behind variables so tests can swap them.
var (
	getSimpleText = GetSimpleText
	getConfirm    = GetConfirm
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var errCancelled = errors.New("cancelled")

// Register prompts for email, name and password and creates an account.
// The new account is logged in.
func (a *App) Register(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Register(ctx, email, string(password), name)
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", user.Email)
	return nil
}

// Login prompts for credentials and authenticates. The token stays in
// memory only.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

func (a *App) Logout(_ context.Context, _ []string) error {
	a.api.Logout()
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context, _ []string) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "#%d %s <%s>\n", user.ID, user.Name, user.Email)
	return nil
}
