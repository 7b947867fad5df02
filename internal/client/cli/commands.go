package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/shortlink-auth/internal/client/authclient"
	"github.com/dmitrijs2005/shortlink-auth/internal/common"
)

var errUsage = errors.New("usage: authctl [-a addr] [-t seconds] [register|login|refresh|revoke|validate] [flags]")

func (a *App) runCommand(ctx context.Context, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch name {
	case "register":
		p := authclient.RegisterParams{}
		fs.StringVar(&p.FirstName, "first", "", "first name")
		fs.StringVar(&p.LastName, "last", "", "last name")
		fs.StringVar(&p.Email, "email", "", "email")
		fs.StringVar(&p.PhoneNumber, "phone", "", "phone number (optional)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return a.register(ctx, p)

	case "login":
		email := fs.String("email", "", "email")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return a.login(ctx, *email)

	case "refresh", "revoke", "validate":
		token := fs.String("token", "", "token")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *token == "" {
			return fmt.Errorf("%s: -token is required", name)
		}
		return a.withToken(ctx, name, *token)

	default:
		return errUsage
	}
}

// register prompts for missing fields and the password, then creates the
// account.
func (a *App) register(ctx context.Context, p authclient.RegisterParams) error {
	prompts := []struct {
		field  *string
		prompt string
	}{
		{&p.FirstName, "Enter first name"},
		{&p.LastName, "Enter last name"},
		{&p.Email, "Enter email"},
	}
	for _, pr := range prompts {
		if *pr.field != "" {
			continue
		}
		v, err := getSimpleText(a.reader, pr.prompt, a.out)
		if err != nil {
			return err
		}
		*pr.field = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	p.Password = string(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.api.Register(ctx, p)
	if err != nil {
		return err
	}
	return a.printJSON(s)
}

func (a *App) login(ctx context.Context, email string) error {
	if email == "" {
		v, err := getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
		email = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}
	return a.printJSON(s)
}

func (a *App) withToken(ctx context.Context, name, token string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	switch name {
	case "refresh":
		s, err := a.api.RefreshWith(ctx, token)
		if err != nil {
			return err
		}
		return a.printJSON(s)
	case "revoke":
		if err := a.api.RevokeToken(ctx, token); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Revoked")
		return nil
	default:
		id, err := a.api.ValidateWith(ctx, token)
		if err != nil {
			return err
		}
		return a.printJSON(id)
	}
}
