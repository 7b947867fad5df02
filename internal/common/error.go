// Package common defines shared constants, sentinel errors and small helpers
// used across the auth service layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid, expired, revoked or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Refresh token lifecycle errors.
	ErrAlreadyRevoked = errors.New("token already revoked")
)
