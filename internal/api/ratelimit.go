package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TenantLimiter enforces a per-tenant request budget per minute window using
// an atomic Redis INCR, so concurrent requests cannot both slip past the
// limit the way a read-then-compare check would allow. A nil limiter, a
// missing Redis client, or a Redis error all fail open.
type TenantLimiter struct {
	redis     *redis.Client
	perMinute int
	logger    zerolog.Logger
}

func NewTenantLimiter(redisClient *redis.Client, perMinute int, logger zerolog.Logger) *TenantLimiter {
	return &TenantLimiter{
		redis:     redisClient,
		perMinute: perMinute,
		logger:    logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow reports whether the tenant is within its budget for the current
// minute window.
func (l *TenantLimiter) Allow(ctx context.Context, tenantID string) bool {
	if l == nil || l.redis == nil || l.perMinute <= 0 {
		return true
	}

	key := fmt.Sprintf("ratelimit:%s:%d", tenantID, time.Now().Unix()/60)
	n, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn().Err(err).Msg("rate limit check failed; allowing request")
		return true
	}
	if n == 1 {
		// First request in the window owns the expiry.
		l.redis.Expire(ctx, key, 2*time.Minute)
	}
	return n <= int64(l.perMinute)
}
