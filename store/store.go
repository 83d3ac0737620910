package store

import (
	"context"
	"time"
)

// CounterCache defines the interface for expiring counter backends.
//
// Keys are opaque strings scoped by a namespace. A backend must apply
// Increment atomically per key: create the key at zero with the given TTL when
// it is absent, then add step. Incrementing an existing key does not refresh
// its expiry.
type CounterCache interface {
	// Increment adds step to the counter for key, creating it at zero with the
	// given TTL when absent, and returns the new value.
	Increment(ctx context.Context, namespace, key string, ttl time.Duration, step int64) (current int64, err error)

	// Get returns the counter value for key. ok is false when the key is
	// absent or has expired; an absent key is distinct from a zero count.
	Get(ctx context.Context, namespace, key string) (current int64, ok bool, err error)

	// Close releases any resources held by the cache.
	Close() error
}

// TTLSeconds converts a TTL to whole seconds, never returning less than one.
func TTLSeconds(ttl time.Duration) int64 {
	s := int64(ttl / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// JoinKey composes a namespaced cache key the way the Memcached adapter always
// has: namespace and key joined by a colon.
func JoinKey(namespace, key string) string {
	return namespace + ":" + key
}
