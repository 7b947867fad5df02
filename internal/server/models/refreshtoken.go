// Package models defines server-side data models persisted in the database.
package models

import "time"

// RefreshToken is one entry of the refresh-token ledger. Once RevokedAt is
// set it never changes again; ReplacedByToken is set only when the token was
// rotated or superseded by a newer issuance.
type RefreshToken struct {
	ID              string
	UserID          string
	Value           string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	RevokedAt       *time.Time
	ReplacedByToken *string
}

// IsActive reports whether the token is unrevoked and unexpired at now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// IsRotated reports whether the token was revoked in favour of a successor.
func (t *RefreshToken) IsRotated() bool {
	return t.RevokedAt != nil && t.ReplacedByToken != nil
}
