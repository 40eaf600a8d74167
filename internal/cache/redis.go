// Package cache connects to Redis, which backs rate limiting and token revocation.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"myblog/internal/middleware"
	"myblog/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// NewClient builds a client for addr, which may be "host:port" or a redis:// URL.
func NewClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	// Not every server implements the maintenance notifications handshake.
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})
	return client, nil
}

// InitRedis connects and pings. It returns nil when Redis is unreachable so
// the app can run without rate limiting or server-side logout.
func InitRedis(addr string) *redis.Client {
	client, err := NewClient(addr)
	if err != nil {
		middleware.Logger.Warn("invalid REDIS_URL, continuing without redis", "addr", addr, "error", err.Error())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without it", "error", err.Error())
		_ = client.Close()
		return nil
	}
	middleware.Logger.Info("Redis connected successfully")
	return client
}
