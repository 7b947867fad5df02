package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the few places where repositories have to know which SQL
// engine they talk to. Queries themselves are written to run unchanged on
// both PostgreSQL and SQLite ($N placeholders, RETURNING, BIGINT timestamps).
type Dialect interface {
	// DriverName is the database/sql driver name.
	DriverName() string
	// GooseDialect is the dialect name understood by goose.SetDialect.
	GooseDialect() string
	// LockKey serializes concurrent transactions that touch the same key.
	// It must be called inside a transaction and holds until commit/rollback.
	LockKey(ctx context.Context, tx DBTX, key string) error
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation(err error) bool
	// PrepareDSN adds the connection options the repositories rely on.
	PrepareDSN(dsn string) string
}

const pgUniqueViolation = "23505"

// Postgres is the production dialect, backed by pgx's database/sql driver.
type Postgres struct{}

func (Postgres) DriverName() string   { return "pgx" }
func (Postgres) GooseDialect() string { return "pgx" }

// LockKey takes a transaction-scoped advisory lock derived from key.
func (Postgres) LockKey(ctx context.Context, tx DBTX, key string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

func (Postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (Postgres) PrepareDSN(dsn string) string { return dsn }

// SQLite is used for single-node deployments and tests. Every transaction is
// started with BEGIN IMMEDIATE, so writers are serialized database-wide and
// LockKey has nothing left to do.
type SQLite struct{}

func (SQLite) DriverName() string   { return "sqlite" }
func (SQLite) GooseDialect() string { return "sqlite3" }

func (SQLite) LockKey(context.Context, DBTX, string) error { return nil }

func (SQLite) IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (SQLite) PrepareDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
}

// DialectFor resolves a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens and pings a database for the given dialect.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName(), d.PrepareDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
