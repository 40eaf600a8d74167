package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"myblog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrNoRedis is returned when rate limiting is attempted without a client.
var ErrNoRedis = errors.New("redis client is nil")

func limitsDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit counts one hit for id against resource in a fixed window and
// reports whether the hit is within limit. Limits are off outside staging
// and production.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if limitsDisabled() {
		return true, nil
	}
	if rdb == nil {
		return false, ErrNoRedis
	}

	key := "rl:" + resource + ":" + id
	pipe := rdb.TxPipeline()
	hits := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	// A fresh key, or one whose expiry was lost, starts a new window.
	if ttl.Val() < 0 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return hits.Val() <= int64(limit), nil
}

// RateLimit limits form and API submissions to limit per window, keyed by
// the signed-in user or else the client IP. It fails open without Redis.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name)
}

// RateLimitWithPolicy is RateLimit with an explicit Redis failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only submissions count against the budget.
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if uid, ok := CurrentUserID(c); ok {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, name, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit unavailable",
					"resource", name, "error", err.Error())
				return rejectRequest(c, fiber.StatusServiceUnavailable, "rate limit unavailable")
			}
			return c.Next()
		}

		if !allowed {
			observability.RateLimited.WithLabelValues(name).Inc()
			return rejectRequest(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}

func rejectRequest(c *fiber.Ctx, status int, msg string) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).SendString(msg)
}
