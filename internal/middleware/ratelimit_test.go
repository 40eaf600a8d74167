package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestCheckRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		nilRedis      bool
		calls         int
		expectedAllow bool
		expectErr     bool
	}{
		{name: "test environment bypass", env: "test", calls: 5, expectedAllow: true},
		{name: "development environment bypass", env: "development", nilRedis: true, calls: 5, expectedAllow: true},
		{name: "nil redis in production", env: "production", nilRedis: true, calls: 1, expectErr: true},
		{name: "under limit", env: "production", calls: 2, expectedAllow: true},
		{name: "over limit", env: "production", calls: 3, expectedAllow: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)

			var rdb *redis.Client
			if !tt.nilRedis {
				rdb, _ = newTestRedis(t)
			}

			var allowed bool
			var err error
			for i := 0; i < tt.calls; i++ {
				allowed, err = CheckRateLimit(context.Background(), rdb, "share", "ip:1", 2, time.Minute)
			}

			if tt.expectErr {
				assert.ErrorIs(t, err, ErrNoRedis)
				assert.False(t, allowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAllow, allowed)
		})
	}
}

func TestCheckRateLimit_WindowExpires(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb, mr := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 1, time.Minute)
		require.NoError(t, err)
	}
	allowed, _ := CheckRateLimit(ctx, rdb, "login", "ip:1", 1, time.Minute)
	assert.False(t, allowed)

	mr.FastForward(2 * time.Minute)
	allowed, err := CheckRateLimit(ctx, rdb, "login", "ip:1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb, _ := newTestRedis(t)

	app := fiber.New()
	limiter := RateLimit(rdb, 1, time.Minute, "comment")
	app.Post("/api/comment", limiter, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Post("/comment", limiter, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	app.Get("/comment", limiter, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/comment", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/api/comment", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/comment", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/comment", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "reads are not limited")
}

func TestRateLimitMiddleware_FailClosed(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	app := fiber.New()
	app.Post("/api/login", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed, "login"),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Post("/api/open", RateLimit(nil, 1, time.Minute, "open"),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/api/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/api/open", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
