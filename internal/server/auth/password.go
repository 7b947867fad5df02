package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shortlink-auth/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 work factor used when none is configured.
	DefaultIterations = 100_000
	saltSize          = 16
	keySize           = 32
)

var errEmptySalt = errors.New("empty salt")

// PasswordHasher derives and verifies password digests with
// PBKDF2-HMAC-SHA256. Salts and digests are standard base64 strings.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher returns a hasher with the given work factor; values <= 0
// fall back to DefaultIterations.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &PasswordHasher{iterations: iterations}
}

// NewSalt returns a fresh random salt.
func (h *PasswordHasher) NewSalt() (string, error) {
	salt, err := common.MakeRandBase64String(saltSize, base64.StdEncoding)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Hash derives the digest of password under salt.
func (h *PasswordHasher) Hash(password, salt string) (string, error) {
	key, err := h.derive(password, salt)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Verify recomputes the digest and compares it in constant time. Malformed
// salts or digests never verify.
func (h *PasswordHasher) Verify(password, salt, expected string) bool {
	want, err := base64.StdEncoding.DecodeString(expected)
	if err != nil || len(want) != keySize {
		return false
	}
	got, err := h.derive(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func (h *PasswordHasher) derive(password, salt string) ([]byte, error) {
	s, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if len(s) == 0 {
		return nil, errEmptySalt
	}
	return pbkdf2.Key([]byte(password), s, h.iterations, keySize, sha256.New), nil
}
