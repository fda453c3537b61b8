package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "secret-token", bearerToken("Bearer secret-token"))
	assert.Equal(t, "secret-token", bearerToken("Bearer secret-token "))
	assert.Equal(t, "", bearerToken(""))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken("Basic dXNlcjpwYXNz"))
	assert.Equal(t, "", bearerToken("bearer lowercase-prefix"))
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/risk/watchlist", nil)
	r.RemoteAddr = "203.0.113.7:52431"
	assert.Equal(t, "203.0.113.7", getClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", getClientIP(r))

	// X-Forwarded-For wins, first hop only.
	r.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", getClientIP(r))
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	assert.True(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-a"))
	assert.True(t, rl.Allow("client-a"))
	assert.False(t, rl.Allow("client-a"))

	// Limits are per key.
	assert.True(t, rl.Allow("client-b"))
}

func TestConfig_Address(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 9090
	assert.Equal(t, "127.0.0.1:9090", cfg.Address())
}
