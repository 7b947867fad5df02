// Package server assembles the auth service: configuration, logging, tracing,
// storage, the event bus, the auth service itself and its gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/shortlink-auth/internal/dbx"
	"github.com/dmitrijs2005/shortlink-auth/internal/flagx"
	"github.com/dmitrijs2005/shortlink-auth/internal/logging"
	"github.com/dmitrijs2005/shortlink-auth/internal/otelx"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/auth"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/config"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/events"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/users"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/shortlink-auth/internal/server/grpc"
)

const serviceName = "shortlink-auth"

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	shutdown otelx.ShutdownFunc
	users    users.Repository
	server   *gs.GRPCServer
}

// NewApp opens the database, applies migrations and wires every component.
// Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSON(w, c.LogLevel)

	shutdown, err := otelx.Setup(ctx, c.OTelEndpoint, serviceName)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	dialect, err := dbx.DialectFor(c.DatabaseDriver)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	db, err := dbx.Open(ctx, dialect, c.DatabaseDSN)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, shutdown: shutdown}

	rm, err := repomanager.NewRepositoryManager(db, dialect)
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	if err := rm.RunMigrations(ctx); err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.users = rm.Users()

	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.TokenIssuer, c.TokenAudience, c.AccessTokenValidityDuration)
	ledger := rm.RefreshTokens(tokens.IssueRefreshTokenValue, refreshtokens.WithTTL(c.RefreshTokenValidityDuration))

	svc, err := services.NewAuthService(
		app.users,
		ledger,
		tokens,
		auth.NewPasswordHasher(c.PasswordIterations),
		app.publisher(),
		logger,
		services.WithRevokeChainOnReuse(c.RevokeChainOnReuse),
		services.WithPublishTimeout(c.PublishTimeout),
	)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("auth service init error: %w", err)
	}

	app.server = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc)
	return app, nil
}

// publisher picks the Redis event bus when configured, otherwise events are
// only logged.
func (app *App) publisher() events.Publisher {
	if app.config.RedisAddr == "" {
		return events.NewLogPublisher(app.logger)
	}
	app.redis = redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	return events.NewRedisPublisher(app.redis, app.config.EventChannelPrefix)
}

// Run serves gRPC until ctx is cancelled, then releases resources.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.Close(context.WithoutCancel(ctx))
	app.logger.Info(ctx, "App stopped")
	return err
}

// GrantRole gives an existing account one more role, such as Admin. Roles
// are never granted over the wire; this is the operator path.
func (app *App) GrantRole(ctx context.Context, email, role string) error {
	user, err := app.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("user %s: %w", email, err)
	}
	if err := app.users.AddRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("grant %s: %w", role, err)
	}
	app.logger.Info(ctx, "role granted", "user_id", user.ID, "role", role)
	return nil
}

// Close releases the database, the Redis client and the tracer provider.
func (app *App) Close(ctx context.Context) {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.shutdown != nil {
		errs = append(errs, app.shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Warn(ctx, "close error", "error", err)
	}
}

// Main loads configuration and runs the app; it returns the process exit code.
// "grant-role" as the first argument runs that command instead of serving.
func Main(ctx context.Context, args []string) int {
	if len(args) > 0 && args[0] == "grant-role" {
		return grantRole(ctx, args[1:])
	}

	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	app, err := NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		return 1
	}
	return 0
}

// grantRole handles "grant-role -email <email> -role <role>". The usual
// configuration sources select the database.
func grantRole(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("grant-role", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	email := fs.String("email", "", "account email")
	role := fs.String("role", "", "role to grant")

	err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-role"}))
	if err != nil || *email == "" || *role == "" {
		fmt.Fprintln(os.Stderr, "usage: grant-role -email <email> -role <role> [config flags]")
		return 2
	}

	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	app, err := NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer app.Close(context.WithoutCancel(ctx))

	if err := app.GrantRole(ctx, *email, *role); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
