// Package repomanager vends the SQL-backed repositories for a configured
// dialect and applies the embedded schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/shortlink-auth/internal/dbx"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/migrations"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// RepositoryManager builds repositories that share one database handle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	RefreshTokens(newValue func() (string, error), opts ...refreshtokens.Option) refreshtokens.Ledger
}

// SQLRepositoryManager vends repositories bound to db and dialect.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// NewRepositoryManager constructs a manager for an already opened database.
func NewRepositoryManager(db *sql.DB, dialect dbx.Dialect) (RepositoryManager, error) {
	if db == nil || dialect == nil {
		return nil, fmt.Errorf("repository manager: db and dialect are required")
	}
	return &SQLRepositoryManager{db: db, dialect: dialect}, nil
}

// Users returns the user directory.
func (m *SQLRepositoryManager) Users() users.Repository {
	return users.NewStore(m.db, m.dialect)
}

// RefreshTokens returns the refresh-token ledger; newValue generates token values.
func (m *SQLRepositoryManager) RefreshTokens(newValue func() (string, error), opts ...refreshtokens.Option) refreshtokens.Ledger {
	return refreshtokens.NewStore(m.db, m.dialect, newValue, opts...)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed database.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}
