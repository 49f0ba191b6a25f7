package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// RateLimiter implements a fixed-window counter per key, shared across every
// API process through Redis. On backend failure it fails open: a Redis
// outage must degrade to unlimited ingest, never to a dead ingest.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a RateLimiter. Keys are stored under the prefix.
func NewRateLimiter(c *Client, prefix string, logger *slog.Logger) *RateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RateLimiter{
		rdb:    c.Underlying(),
		prefix: prefix,
		logger: logger.With(slog.String("component", "ratelimit")),
	}
}

// Allow increments the key's window counter and reports whether it is still
// within the limit. The window expiry is set when the counter is created.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}
	redisKey := rl.prefix + ":" + key

	pipe := rl.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX keeps the first increment's deadline; later hits must not slide
	// the window forward.
	pipe.ExpireNX(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn("limiter unavailable, failing open",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return true
	}
	return incr.Val() <= int64(limit)
}
