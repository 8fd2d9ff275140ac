package cache

import (
	"context"
	"time"

	"github.com/matzehuels/twill/pkg/observability"
)

// NullCache stores nothing. It backs the "none" backend and the --no-cache
// flag, so every lookup is reported to the cache hooks as a miss.
//
// NullCache does not implement [Clearer]; callers read that as "caching
// disabled".
type NullCache struct{}

// NewNullCache returns a cache with caching disabled.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	observability.Cache().OnCacheMiss(ctx, keyType(key))
	return nil, false, nil
}

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                      { return nil }
func (NullCache) Close() error                                              { return nil }

var _ Cache = NullCache{}
