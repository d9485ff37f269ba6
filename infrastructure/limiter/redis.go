package limiter

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "renderd:ratelimit:"

// Redis is a fixed-window limiter backed by a shared Redis instance,
// for deployments running more than one replica. The window lives in
// the key TTL: the first INCR of a window sets an expiry, so idle
// keys are reclaimed by Redis itself.
type Redis struct {
	cfg    Config
	client redis.UniversalClient
}

// NewRedis returns a Redis limiter using the given client.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{cfg: cfg.withDefaults(), client: client}
}

// Admit implements Limiter.
func (r *Redis) Admit(ctx context.Context, key string) (Decision, error) {
	k := redisKeyPrefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		// Availability of the limiter store must not take the service
		// down unless configured to fail closed.
		return Decision{Allowed: r.cfg.FailOpen}, fmt.Errorf("limiter: redis: %w", err)
	}

	count := int(incr.Val())
	if count > r.cfg.MaxRequests {
		ttl, err := r.client.TTL(ctx, k).Result()
		if err != nil || ttl < 0 {
			ttl = r.cfg.Window
		}
		return Decision{RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: r.cfg.MaxRequests - count}, nil
}
