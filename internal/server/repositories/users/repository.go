// Package users is the SQL-backed user directory: accounts, their stored
// password digests and role assignments.
package users

import (
	"context"

	"github.com/dmitrijs2005/shortlink-auth/internal/server/models"
)

// Repository is the user directory contract consumed by the auth service.
type Repository interface {
	// CreateUser stores a new account with the default role. A taken email
	// yields common.ErrorAlreadyExists.
	CreateUser(ctx context.Context, u models.NewUser) (*models.User, error)
	// GetUserByEmail returns common.ErrorNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns common.ErrorNotFound for unknown ids.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// AddRole grants a known role to the user; granting twice is a no-op.
	AddRole(ctx context.Context, userID, role string) error
}
