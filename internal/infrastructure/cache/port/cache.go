package port

import (
	"context"
	"errors"
	"time"
)

// Cache is the key-value contract used for hot lookups such as conversation
// membership. Implementations must be safe for concurrent use.
//
// Values are strings so the port stays free of serialization concerns.
type Cache interface {
	// Get returns ErrMiss when the key is absent or expired; any other error
	// is a transport or server failure.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes one or more keys and returns the number of keys removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way so callers can tell it apart
// from transport errors.
var ErrMiss = errors.New("cache: miss")
