package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowLua string

// RateLimiter is a sliding-window limiter shared by every dashboard
// instance. Each client key owns a sorted set of request times; the window
// is trimmed and counted atomically in Lua.
type RateLimiter struct {
	rdb    *redis.Client
	window *redis.Script
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a RateLimiter on c.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.rdb, window: redis.NewScript(slidingWindowLua)}
}

// Allow records the request and reports true while fewer than limit
// requests from client fell inside window. Rejected requests are not
// recorded.
func (rl *RateLimiter) Allow(ctx context.Context, client string, limit int, window time.Duration) (bool, error) {
	res, err := rl.window.Run(ctx, rl.rdb,
		[]string{key("ratelimit", client)},
		time.Now().UnixMicro(), window.Microseconds(), limit,
	).Int64Slice()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", client, err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("redis: rate limit %s: got %d values from script", client, len(res))
	}
	return res[0] == 1, nil
}
