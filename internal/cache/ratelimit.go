package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	// rateLimitPrefix is the Redis key prefix for per-user rate limits.
	rateLimitPrefix = "ratelimit:user:"
	// rateLimitWindow is the length of the counting window.
	rateLimitWindow = time.Minute
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// CheckUserRateLimit counts a request against the caller's fixed window
// and reports whether it is allowed. A perMinute of 0 means unlimited.
func (c *Cache) CheckUserRateLimit(ctx context.Context, userID string, perMinute int) (*RateLimitResult, error) {
	if perMinute == 0 {
		return &RateLimitResult{Allowed: true}, nil
	}

	key := rateLimitPrefix + userID

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit incr: %w", err)
	}

	// First hit in the window owns the expiry.
	if count == 1 {
		if err := c.client.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
			return nil, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	if count > int64(perMinute) {
		ttl, err := c.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = rateLimitWindow
		}
		return &RateLimitResult{Allowed: false, RetryAfter: ttl}, nil
	}

	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(perMinute) - count,
	}, nil
}
