// Package redis backs the snapshot cache, the API rate limiter and the
// cross-instance position change bus with go-redis/v9.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// keyspace prefixes every key this package writes.
const keyspace = "tradedash"

// Options configure Dial.
type Options struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLS        bool
}

// Client is a connected go-redis client shared by the cache, limiter and
// change bus.
type Client struct {
	rdb *redis.Client
}

// Dial connects and pings. A failed ping closes the client.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	ro := &redis.Options{
		Addr:       opts.Addr,
		Password:   opts.Password,
		DB:         opts.DB,
		PoolSize:   opts.PoolSize,
		MaxRetries: opts.MaxRetries,
	}
	if opts.TLS {
		ro.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: dial %s: %w", opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Close closes the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// key joins parts under the package keyspace:
//
//	tradedash:snapshot:production:portfolio
func key(parts ...string) string {
	return keyspace + ":" + strings.Join(parts, ":")
}
