package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocations stores revoked token IDs under "blacklist:<jti>".
type RedisRevocations struct {
	rdb *redis.Client
}

// NewRedisRevocations returns a Redis-backed RevocationStore.
func NewRedisRevocations(rdb *redis.Client) *RedisRevocations {
	return &RedisRevocations{rdb: rdb}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, "blacklist:"+jti, "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, "blacklist:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
