package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("SHORTLINK_AUTH_GRPC_ADDR", ":6000")
	t.Setenv("SHORTLINK_AUTH_JWT_AUDIENCE", "gateway")
	t.Setenv("SHORTLINK_AUTH_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("SHORTLINK_AUTH_PASSWORD_ITERATIONS", "200000")
	t.Setenv("SHORTLINK_AUTH_LOG_LEVEL", "debug")

	c := defaults()
	require.NoError(t, parseEnv(&c))

	assert.Equal(t, ":6000", c.EndpointAddrGRPC)
	assert.Equal(t, "gateway", c.TokenAudience)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 200000, c.PasswordIterations)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "shortlink-auth", c.TokenIssuer)
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("SHORTLINK_AUTH_REFRESH_TOKEN_TTL", "a week")

	c := defaults()
	require.Error(t, parseEnv(&c))
}
