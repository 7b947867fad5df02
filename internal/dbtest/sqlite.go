// Package dbtest opens throwaway SQLite databases with the auth schema
// applied, for repository and service tests that need real transactions.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/shortlink-auth/internal/dbx"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/migrations"
	"github.com/pressly/goose/v3"
)

// NewSQLite returns a migrated file-backed SQLite database in a temp dir.
// The database is closed when the test ends.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.SQLite{}, "file:"+filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		t.Fatalf("goose provider: %v", err)
	}
	if _, err := p.Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// InsertUser adds a bare users row so refresh tokens can reference it.
func InsertUser(t testing.TB, db *sql.DB, id, email string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO users (id, email, first_name, last_name, password_hash, password_salt, created_at)
		VALUES ($1, $2, 'Test', 'User', 'hash', 'salt', $3)
	`, id, email, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("insert user %s: %v", id, err)
	}
}

// CountActive returns the number of unrevoked, unexpired refresh tokens of userID at now.
func CountActive(t testing.TB, db *sql.DB, userID string, now time.Time) int {
	t.Helper()

	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
	`, userID, now.UnixMilli()).Scan(&n)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	return n
}
