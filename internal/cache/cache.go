// Package cache stores JSON-encoded values with a TTL, in Redis when
// configured and in process memory otherwise.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get decodes the value stored under key into dest. It reports false on
	// a miss.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Driver names the backend, used as a metrics label.
	Driver() string
}
