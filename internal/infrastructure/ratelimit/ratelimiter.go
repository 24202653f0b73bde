// Package ratelimit throttles auth endpoints with sliding windows kept in
// Redis.
package ratelimit

import (
	"context"
	"time"
)

// Config limits per window. A zero limit disables that window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, cfg Config) (bool, error)
	GetCount(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
