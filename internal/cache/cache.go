// Package cache provides the TTL key/value store shared by the catalog and
// availability services. Two backends exist: an in-process map and a
// best-effort Redis client. Values are stored JSON-encoded so either backend
// can hold arbitrary response shapes.
package cache

import (
	"context"
	"strings"
	"time"
)

// Store is a TTL cache. Get reports a miss for absent and expired keys alike;
// an entry must never be returned after its TTL has elapsed. Overlapping
// writes to the same key are last-writer-wins, which is acceptable because
// every entry is re-derivable from the origin provider.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key joins cache key segments with the conventional separator.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
