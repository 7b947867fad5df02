// Package refreshtokens is the refresh-token ledger: the persistent record
// of issued refresh tokens and their lifecycle. A token is created Active,
// moves to Revoked at most once (optionally linked to its replacement) and
// is never deleted.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	"github.com/dmitrijs2005/shortlink-auth/internal/server/models"
)

// Ledger defines the lifecycle operations on refresh tokens. At most one
// token per user is active at any time.
type Ledger interface {
	// IssueFor creates a new active token for userID, revoking the user's
	// current active token (linked to the new one) in the same transaction.
	IssueFor(ctx context.Context, userID string) (*models.RefreshToken, error)

	// Rotate atomically replaces the active token with value presented by a
	// new one for the same user. It fails with common.ErrInvalidToken if the
	// token is unknown, revoked or expired; a replay of an already rotated
	// token is reported as *ReuseError.
	Rotate(ctx context.Context, presented string) (*models.RefreshToken, error)

	// Revoke marks the token revoked without a replacement. It returns
	// common.ErrorNotFound for unknown values and common.ErrAlreadyRevoked
	// if the token was revoked before.
	Revoke(ctx context.Context, presented string) (*models.RefreshToken, error)

	// FindActive returns the user's active token or common.ErrorNotFound.
	FindActive(ctx context.Context, userID string) (*models.RefreshToken, error)

	// RevokeAllFor revokes every unrevoked token of userID and returns how
	// many were changed.
	RevokeAllFor(ctx context.Context, userID string) (int64, error)
}

// ReuseError reports that an already rotated token was presented again,
// which usually means the token leaked.
type ReuseError struct {
	UserID string
}

func (e *ReuseError) Error() string {
	return "refresh token reuse detected"
}

// Unwrap makes a ReuseError match common.ErrInvalidToken.
func (e *ReuseError) Unwrap() error {
	return common.ErrInvalidToken
}
