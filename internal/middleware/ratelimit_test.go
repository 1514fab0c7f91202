package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRateLimitBypassed(t *testing.T) {
	for _, env := range []string{"", "test", "development", "stress"} {
		assert.True(t, RateLimitBypassed(env), env)
	}
	for _, env := range []string{"production", "staging"} {
		assert.False(t, RateLimitBypassed(env), env)
	}
}

func TestCheckRateLimit(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := CheckRateLimit(ctx, rdb, "token", "ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := CheckRateLimit(ctx, rdb, "token", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, mr.TTL("rl:token:ip:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)
	allowed, err = CheckRateLimit(ctx, rdb, "token", "ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "window expired")

	allowed, err = CheckRateLimit(ctx, nil, "token", "ip:1.2.3.4", 2, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	get := func(t *testing.T, app *fiber.App, path string) int {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("Bypass in test mode", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", RateLimit(nil, "test", 1, time.Minute), ok)
		assert.Equal(t, http.StatusOK, get(t, app, "/test"))
		assert.Equal(t, http.StatusOK, get(t, app, "/test"))
	})

	t.Run("Throttles in production", func(t *testing.T) {
		rdb, _ := newRedis(t)
		app := fiber.New()
		app.Get("/token", RateLimit(rdb, "production", 1, time.Minute, "auth"), ok)
		assert.Equal(t, http.StatusOK, get(t, app, "/token"))
		assert.Equal(t, http.StatusTooManyRequests, get(t, app, "/token"))
	})

	t.Run("FailOpen with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		app.Get("/test", RateLimit(nil, "production", 1, time.Minute), ok)
		assert.Equal(t, http.StatusOK, get(t, app, "/test"))
	})

	t.Run("FailClosed with nil redis in production", func(t *testing.T) {
		app := fiber.New()
		app.Get("/sensitive", RateLimitWithPolicy(nil, "production", 1, time.Minute, FailClosed), ok)
		assert.Equal(t, http.StatusServiceUnavailable, get(t, app, "/sensitive"))
	})
}
