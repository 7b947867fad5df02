// Package auth holds the credential primitives of the service: password
// hashing and verification, and access/refresh token issuance.
package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshTokenSize is the number of random bytes behind a refresh token value.
const refreshTokenSize = 64

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *AccessClaims) UserID() string { return c.Subject }

// TokenIssuer mints HS256 access tokens and opaque refresh token values, and
// validates access tokens it (or a peer with the same secret) issued.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// IssuerOption customizes a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock replaces time.Now; used by tests to move time.
func WithClock(now func() time.Time) IssuerOption {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer builds an issuer. The secret length is enforced by config
// validation, not here.
func NewTokenIssuer(secret []byte, issuer, audience string, ttl time.Duration, opts ...IssuerOption) *TokenIssuer {
	t := &TokenIssuer{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ExpiresIn is the access token lifetime in whole seconds.
func (t *TokenIssuer) ExpiresIn() int64 {
	return int64(t.ttl / time.Second)
}

// IssueAccessToken signs a token for the user and returns it with its expiry.
func (t *TokenIssuer) IssueAccessToken(userID, email string, roles []string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := AccessClaims{
		Email: email,
		Roles: dedupe(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// IssueRefreshTokenValue returns a new opaque refresh token value.
func (t *TokenIssuer) IssueRefreshTokenValue() (string, error) {
	b := common.GenerateRandByteArray(refreshTokenSize)
	if b == nil {
		return "", fmt.Errorf("generate refresh token: %w", common.ErrorInternal)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateAccessToken checks signature, algorithm, issuer, audience and
// expiry. Every failure is reported as common.ErrInvalidToken.
func (t *TokenIssuer) ValidateAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func dedupe(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
