// Package cache stores raw API responses for the twill client.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the server
//
// All backends implement [Cache]. Keys are built by a [Keyer] so that every
// caller namespaces entries the same way; [ScopedKeyer] adds a prefix for
// per-user or per-tenant isolation.
package cache

import (
	"context"
	"time"
)

// Default TTLs by entry kind.
const (
	// TTLHTTP is the lifetime of a cached API response.
	TTLHTTP = 10 * time.Minute

	// TTLDocument is the lifetime of a cached transform output.
	TTLDocument = time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
