package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/shortlink-auth/internal/dbx"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewRepositoryManager(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewRepositoryManager(db, dbx.Postgres{})
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = NewRepositoryManager(nil, dbx.Postgres{})
	require.Error(t, err)
	_, err = NewRepositoryManager(db, nil)
	require.Error(t, err)
}

func TestFactories_ReturnRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewRepositoryManager(db, dbx.Postgres{})
	require.NoError(t, err)

	assert.NotNil(t, m.Users())
	assert.NotNil(t, m.RefreshTokens(func() (string, error) { return "v", nil }))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{db: db, dialect: dbx.Postgres{}}
	require.NoError(t, m.RunMigrations(context.Background()))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{db: db, dialect: dbx.Postgres{}}
	err := m.RunMigrations(context.Background())
	require.EqualError(t, err, "boom")
}

func TestRunMigrations_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.SQLite{}, "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()

	m, err := NewRepositoryManager(db, dbx.SQLite{})
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx))
	// applying twice is a no-op
	require.NoError(t, m.RunMigrations(ctx))

	var roles int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM roles`).Scan(&roles))
	assert.Equal(t, 2, roles)

	u, err := m.Users().CreateUser(ctx, models.NewUser{
		Email:        "ann@x.com",
		FirstName:    "Ann",
		LastName:     "Lee",
		PasswordHash: "hash",
		PasswordSalt: "salt",
	})
	require.NoError(t, err)

	ledger := m.RefreshTokens(func() (string, error) { return "only-value", nil })
	rt, err := ledger.IssueFor(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "only-value", rt.Value)
}
