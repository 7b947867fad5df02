package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/shortlink-auth/internal/client/authclient"
	"github.com/dmitrijs2005/shortlink-auth/internal/client/config"
)

// AuthAPI is the client surface the commands use.
type AuthAPI interface {
	Register(ctx context.Context, p authclient.RegisterParams) (*authclient.Session, error)
	Login(ctx context.Context, email, password string) (*authclient.Session, error)
	Refresh(ctx context.Context) (*authclient.Session, error)
	RefreshWith(ctx context.Context, refreshToken string) (*authclient.Session, error)
	Logout(ctx context.Context) error
	RevokeToken(ctx context.Context, refreshToken string) error
	Validate(ctx context.Context) (*authclient.Identity, error)
	ValidateWith(ctx context.Context, accessToken string) (*authclient.Identity, error)
	Session() *authclient.Session
	Close() error
}

// getSimpleText and getPassword point to the interactive input helpers and
// can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	config *config.Config
	api    AuthAPI
	reader *bufio.Reader
	out    io.Writer
}

// NewApp connects to the configured server.
func NewApp(c *config.Config) (*App, error) {
	api, err := authclient.New(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, api, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, api AuthAPI, in io.Reader, out io.Writer) *App {
	return &App{config: c, api: api, reader: bufio.NewReader(in), out: out}
}

// Run executes the subcommand in args, or the interactive shell when there is
// none, and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	defer a.api.Close()

	if len(args) == 0 {
		a.Root(ctx)
		return 0
	}

	if err := a.runCommand(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(a.out, "error:", err)
		return 1
	}
	return 0
}

// withTimeout bounds one RPC by the configured request timeout.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CommandArgs drops the global configuration flags (-a, -t, -c, -config)
// and their values, leaving the subcommand and its own flags.
func CommandArgs(args []string) []string {
	global := map[string]struct{}{"-a": {}, "-t": {}, "-c": {}, "-config": {}, "--config": {}}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if _, ok := global[args[i]]; ok {
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}
