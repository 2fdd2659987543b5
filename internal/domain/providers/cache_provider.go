package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// DirectoryCachePattern matches every key written by the cached directory repositories.
const DirectoryCachePattern = "directory:*"

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern such as "directory:*"
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// Counter is implemented by caches that can increment a windowed counter
// atomically. Incr returns the count after incrementing and the time left
// until the window resets.
type Counter interface {
	Incr(ctx context.Context, key string, windowSeconds int) (int64, time.Duration, error)
}
