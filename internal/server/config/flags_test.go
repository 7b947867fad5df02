package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	c := defaults()
	args := []string{
		"-a", ":8080",
		"-D", "sqlite",
		"-d", "file:auth.db",
		"-s", "flag-secret-flag-secret-flag-secret-xx",
		"-i", "iss",
		"-u", "aud",
		"-t", "5",
		"-r", "60",
		"-k", "localhost:6379",
		"-l", "warn",
		"-c", "ignored.json",
		"-unknown", "x",
	}
	require.NoError(t, parseFlags(&c, args))

	assert.Equal(t, ":8080", c.EndpointAddrGRPC)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "file:auth.db", c.DatabaseDSN)
	assert.Equal(t, "flag-secret-flag-secret-flag-secret-xx", c.SecretKey)
	assert.Equal(t, "iss", c.TokenIssuer)
	assert.Equal(t, "aud", c.TokenAudience)
	assert.Equal(t, 5*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestParseFlags_NoArgsKeepsDefaults(t *testing.T) {
	c := defaults()
	require.NoError(t, parseFlags(&c, nil))
	assert.Equal(t, defaults(), c)
}

func TestParseFlags_BadInt(t *testing.T) {
	c := defaults()
	require.Error(t, parseFlags(&c, []string{"-t", "soon"}))
}
