package users

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

const userColumns = `id, email, first_name, last_name, phone_number, password_hash, password_salt, created_at`

// Store implements Repository over database/sql.
type Store struct {
	db      *sql.DB
	dialect dbx.Dialect
	now     func() time.Time
}

var _ Repository = (*Store)(nil)

// NewStore constructs a directory bound to db.
func NewStore(db *sql.DB, dialect dbx.Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func (s *Store) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        nu.Email,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		PhoneNumber:  nu.PhoneNumber,
		PasswordHash: nu.PasswordHash,
		PasswordSalt: nu.PasswordSalt,
		CreatedAt:    time.UnixMilli(s.now().UnixMilli()),
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `
			INSERT INTO users (` + userColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.ExecContext(ctx, query,
			user.ID, user.Email, user.FirstName, user.LastName, user.PhoneNumber,
			user.PasswordHash, user.PasswordSalt, user.CreatedAt.UnixMilli())
		if err != nil {
			if s.dialect.IsUniqueViolation(err) {
				return common.ErrorAlreadyExists
			}
			return fmt.Errorf("db error: %w", err)
		}

		return addRole(ctx, tx, user.ID, common.DefaultRole)
	})
	if err != nil {
		return nil, err
	}

	user.Roles = []string{common.DefaultRole}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *Store) AddRole(ctx context.Context, userID, role string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1`, userID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		return addRole(ctx, tx, userID, role)
	})
}

func addRole(ctx context.Context, tx dbx.DBTX, userID, role string) error {
	var roleID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, role).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("role %s: %w", role, common.ErrorNotFound)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("assign role %s: %w", role, err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	var (
		u         models.User
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PhoneNumber,
		&u.PasswordHash, &u.PasswordSalt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt)

	roles, err := s.roles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (s *Store) roles(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}
