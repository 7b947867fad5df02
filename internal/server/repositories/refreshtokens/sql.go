package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	"github.com/dmitrijs2005/shortlink-auth/internal/dbx"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/models"
	"github.com/google/uuid"
)

// DefaultTTL is the refresh token lifetime used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

const tokenColumns = `id, user_id, token, created_at, expires_at, revoked_at, replaced_by_token`

// Store is the SQL implementation of Ledger. Timestamps are stored as Unix
// milliseconds so the same statements run on PostgreSQL and SQLite.
type Store struct {
	db       *sql.DB
	dialect  dbx.Dialect
	newValue func() (string, error)
	now      func() time.Time
	ttl      time.Duration
}

var _ Ledger = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithTTL sets the lifetime of newly issued tokens.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore builds a ledger over db. newValue produces fresh token values,
// normally TokenIssuer.IssueRefreshTokenValue.
func NewStore(db *sql.DB, dialect dbx.Dialect, newValue func() (string, error), opts ...Option) *Store {
	s := &Store{
		db:       db,
		dialect:  dialect,
		newValue: newValue,
		now:      time.Now,
		ttl:      DefaultTTL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IssueFor implements Ledger.
func (s *Store) IssueFor(ctx context.Context, userID string) (*models.RefreshToken, error) {
	var issued *models.RefreshToken

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.dialect.LockKey(ctx, tx, userID); err != nil {
			return err
		}

		value, err := s.newValue()
		if err != nil {
			return fmt.Errorf("generate value: %w", err)
		}
		now := s.now()

		query := `
			UPDATE refresh_tokens
			SET revoked_at = $1, replaced_by_token = $2
			WHERE user_id = $3 AND revoked_at IS NULL AND expires_at > $1
		`
		if _, err := tx.ExecContext(ctx, query, now.UnixMilli(), value, userID); err != nil {
			return fmt.Errorf("revoke previous: %w", err)
		}

		issued, err = s.insert(ctx, tx, userID, value, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Rotate implements Ledger.
func (s *Store) Rotate(ctx context.Context, presented string) (*models.RefreshToken, error) {
	var rotated *models.RefreshToken

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.find(ctx, tx, presented)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if err := s.dialect.LockKey(ctx, tx, current.UserID); err != nil {
			return err
		}

		value, err := s.newValue()
		if err != nil {
			return fmt.Errorf("generate value: %w", err)
		}
		now := s.now()

		query := `
			UPDATE refresh_tokens
			SET revoked_at = $1, replaced_by_token = $2
			WHERE token = $3 AND revoked_at IS NULL AND expires_at > $1
		`
		res, err := tx.ExecContext(ctx, query, now.UnixMilli(), value, presented)
		if err != nil {
			return fmt.Errorf("rotate: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rotate: %w", err)
		}
		if n == 0 {
			// lost the race or the token was never usable; re-read under the lock
			latest, err := s.find(ctx, tx, presented)
			if err != nil {
				return err
			}
			if latest.IsRotated() {
				return &ReuseError{UserID: latest.UserID}
			}
			return common.ErrInvalidToken
		}

		rotated, err = s.insert(ctx, tx, current.UserID, value, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rotated, nil
}

// Revoke implements Ledger.
func (s *Store) Revoke(ctx context.Context, presented string) (*models.RefreshToken, error) {
	var revoked *models.RefreshToken

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			UPDATE refresh_tokens
			SET revoked_at = $1
			WHERE token = $2 AND revoked_at IS NULL
			RETURNING ` + tokenColumns

		t, err := scanToken(tx.QueryRowContext(ctx, query, s.now().UnixMilli(), presented))
		if err == nil {
			revoked = t
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("revoke: %w", err)
		}

		if _, err := s.find(ctx, tx, presented); err != nil {
			return err
		}
		return common.ErrAlreadyRevoked
	})
	if err != nil {
		return nil, err
	}
	return revoked, nil
}

// FindActive implements Ledger.
func (s *Store) FindActive(ctx context.Context, userID string) (*models.RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	t, err := scanToken(s.db.QueryRowContext(ctx, query, userID, s.now().UnixMilli()))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, err
}

// RevokeAllFor implements Ledger.
func (s *Store) RevokeAllFor(ctx context.Context, userID string) (int64, error) {
	var n int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.dialect.LockKey(ctx, tx, userID); err != nil {
			return err
		}

		query := `
			UPDATE refresh_tokens
			SET revoked_at = $1
			WHERE user_id = $2 AND revoked_at IS NULL
		`
		res, err := tx.ExecContext(ctx, query, s.now().UnixMilli(), userID)
		if err != nil {
			return fmt.Errorf("revoke all: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Find returns the token with the given value regardless of its state.
func (s *Store) Find(ctx context.Context, value string) (*models.RefreshToken, error) {
	return s.find(ctx, s.db, value)
}

func (s *Store) find(ctx context.Context, db dbx.DBTX, value string) (*models.RefreshToken, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM refresh_tokens
		WHERE token = $1
	`
	t, err := scanToken(db.QueryRowContext(ctx, query, value))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, err
}

func (s *Store) insert(ctx context.Context, tx dbx.DBTX, userID, value string, now time.Time) (*models.RefreshToken, error) {
	t := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Value:     value,
		CreatedAt: time.UnixMilli(now.UnixMilli()),
		ExpiresAt: time.UnixMilli(now.Add(s.ttl).UnixMilli()),
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, t.ID, t.UserID, t.Value, t.CreatedAt.UnixMilli(), t.ExpiresAt.UnixMilli())
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return nil, fmt.Errorf("insert refresh token: %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}
	return t, nil
}

func scanToken(row *sql.Row) (*models.RefreshToken, error) {
	var (
		t                    models.RefreshToken
		createdAt, expiresAt int64
		revokedAt            sql.NullInt64
		replacedBy           sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Value, &createdAt, &expiresAt, &revokedAt, &replacedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	t.CreatedAt = time.UnixMilli(createdAt)
	t.ExpiresAt = time.UnixMilli(expiresAt)
	if revokedAt.Valid {
		ts := time.UnixMilli(revokedAt.Int64)
		t.RevokedAt = &ts
	}
	if replacedBy.Valid {
		v := replacedBy.String
		t.ReplacedByToken = &v
	}
	return &t, nil
}
