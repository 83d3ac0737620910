// Package memcache provides a CounterCache backed by Memcached.
package memcache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/ryhazerus/swc/store"
)

// Compile-time interface check.
var _ store.CounterCache = (*MemcacheStore)(nil)

// MemcacheStore is a CounterCache backed by Memcached. Increment issues an
// "add" of zero with the TTL followed by "incr"; Memcached's incr does not
// extend the key's expiry, which is what the counter relies on.
//
// The two commands are not one atomic step: a bucket evicted between them
// loses that increment. The window in which that can happen is tiny and
// the counter tolerates approximate counts.
type MemcacheStore struct {
	client *memcache.Client
	now    func() time.Time
}

// Option configures a MemcacheStore.
type Option func(*MemcacheStore)

// WithTimeSource overrides the clock used to compute absolute expirations.
func WithTimeSource(now func() time.Time) Option {
	return func(m *MemcacheStore) {
		m.now = now
	}
}

// NewMemcacheStore creates a store on top of an existing client.
func NewMemcacheStore(client *memcache.Client, opts ...Option) *MemcacheStore {
	m := &MemcacheStore{client: client, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// maxRelativeExpiration is the longest expiration Memcached reads as seconds
// from now. Anything larger is taken as a unix timestamp.
const maxRelativeExpiration = 30 * 24 * 60 * 60

// expiration converts ttl to the value of an item's Expiration field.
func expiration(ttl time.Duration, now time.Time) int32 {
	s := store.TTLSeconds(ttl)
	if s <= maxRelativeExpiration {
		return int32(s)
	}
	at := now.Unix() + s
	if at > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(at)
}

// parseCount reads a counter value. incr pads shrinking values with
// trailing spaces.
func parseCount(b []byte) (int64, bool) {
	count, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Increment adds step to the counter for key, creating it at zero with the
// given TTL if absent. Negative steps decrement; Memcached clamps at zero.
func (m *MemcacheStore) Increment(_ context.Context, namespace, key string, ttl time.Duration, step int64) (int64, error) {
	k := store.JoinKey(namespace, key)

	err := m.client.Add(&memcache.Item{
		Key:        k,
		Value:      []byte("0"),
		Expiration: expiration(ttl, m.now()),
	})
	if err != nil && !errors.Is(err, memcache.ErrNotStored) {
		return 0, fmt.Errorf("swc/store/memcache: add: %w", err)
	}

	var v uint64
	if step >= 0 {
		v, err = m.client.Increment(k, uint64(step))
	} else {
		v, err = m.client.Decrement(k, uint64(-step))
	}
	if err != nil {
		return 0, fmt.Errorf("swc/store/memcache: increment: %w", err)
	}
	return int64(v), nil
}

// Get returns the counter value for key, or ok == false on a cache miss.
func (m *MemcacheStore) Get(_ context.Context, namespace, key string) (int64, bool, error) {
	item, err := m.client.Get(store.JoinKey(namespace, key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("swc/store/memcache: get: %w", err)
	}

	count, ok := parseCount(item.Value)
	return count, ok, nil
}

// Close is a no-op; the client is owned by the caller.
func (m *MemcacheStore) Close() error {
	return nil
}
