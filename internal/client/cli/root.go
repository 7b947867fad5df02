package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	s := a.api.Session()
	if s == nil {
		return ""
	}
	return fmt.Sprintf("(%s) ", s.Email)
}

// Root runs the interactive shell until EOF or "exit".
//
//	Not logged in:  help, register, login, exit
//	Logged in:      help, refresh, validate, whoami, logout, exit
//
// Command errors are printed and the loop continues.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "shortlink authctl (type 'help' for commands)")

	for {
		fmt.Fprintf(a.out, "authctl %s> ", a.getStatus())
		// prompts inside commands read from the same reader
		line, rerr := a.reader.ReadString('\n')
		if rerr != nil && line == "" {
			break
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		var err error
		switch cmd := parts[0]; cmd {
		case "help":
			if a.api.Session() != nil {
				fmt.Fprintln(a.out, "Available commands: refresh, validate, whoami, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: register, login, exit")
			}
		case "register", "login":
			err = a.runCommand(ctx, cmd, parts[1:])
		case "refresh":
			err = a.sessionCall(ctx, func(ctx context.Context) (any, error) { return a.api.Refresh(ctx) })
		case "validate":
			err = a.sessionCall(ctx, func(ctx context.Context) (any, error) { return a.api.Validate(ctx) })
		case "whoami":
			if s := a.api.Session(); s != nil {
				err = a.printJSON(s)
			} else {
				fmt.Fprintln(a.out, "Not logged in")
			}
		case "logout":
			err = a.sessionCall(ctx, func(ctx context.Context) (any, error) { return nil, a.api.Logout(ctx) })
			if err == nil {
				fmt.Fprintln(a.out, "Logged out")
			}
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}

		if err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
	}
}

func (a *App) sessionCall(ctx context.Context, fn func(ctx context.Context) (any, error)) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	v, err := fn(ctx)
	if err != nil || v == nil {
		return err
	}
	return a.printJSON(v)
}
