// Package events publishes refresh-token and account lifecycle events to the
// rest of the platform. Delivery is best effort: callers log failures and
// carry on.
package events

import (
	"context"
	"time"
)

// Topics published by the auth service.
const (
	TopicUserRegistered     = "user-registered"
	TopicUserLoggedIn       = "user-logged-in"
	TopicTokenRefreshed     = "token-refreshed"
	TopicTokenRevoked       = "token-revoked"
	TopicRefreshTokenReused = "refresh-token-reused"
)

// Publisher sends a structured payload on a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// UserRegistered is published after a successful registration.
type UserRegistered struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// UserLoggedIn is published after a successful login.
type UserLoggedIn struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

// TokenRefreshed is published after a refresh token was rotated.
type TokenRefreshed struct {
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// TokenRevoked is published after an explicit revocation (logout).
type TokenRevoked struct {
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RefreshTokenReused is published when an already rotated refresh token is
// presented again. RevokedCount is the number of live tokens revoked in
// response, zero when chain revocation is disabled.
type RefreshTokenReused struct {
	UserID       string    `json:"userId"`
	RevokedCount int64     `json:"revokedCount"`
	OccurredAt   time.Time `json:"occurredAt"`
}
