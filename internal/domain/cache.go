package domain

import (
	"context"
	"time"
)

// SnapshotCache stores JSON-encoded read results for a short time.
type SnapshotCache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ChangeFeed delivers raw change payloads published on a channel until
// ctx is cancelled.
type ChangeFeed interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// SignalBus provides pub/sub between dashboard instances and the engine.
type SignalBus interface {
	ChangeFeed
	Publish(ctx context.Context, channel string, payload []byte) error
}
