package store

import (
	"context"
	"time"
)

// Compile-time interface check.
var _ CounterCache = (*TieredStore)(nil)

// TieredStore wraps an in-memory store (fast path) with a persistent backend
// (durable path). Writes go to both stores (write-through); reads check memory
// first and fall back to the persistent store on a miss.
//
// A key this process has written is served from memory until its TTL runs
// out. Increments other processes make to the same backend in the meantime
// are not seen until this process increments the key again.
type TieredStore struct {
	memory      *MemoryStore
	persistent  CounterCache
	now         func() time.Time
	backfillTTL time.Duration
}

// TieredOption configures a TieredStore.
type TieredOption func(*TieredStore)

// WithBackfillTTL sets how long a value read from the persistent backend is
// served from memory. The persistent expiry is not known on a read, so the
// backfilled copy is kept short. Defaults to one second.
func WithBackfillTTL(d time.Duration) TieredOption {
	return func(t *TieredStore) {
		t.backfillTTL = d
	}
}

// WithTieredTimeSource overrides the time source of the store and its
// in-memory tier.
func WithTieredTimeSource(now func() time.Time) TieredOption {
	return func(t *TieredStore) {
		t.now = now
	}
}

// NewTieredStore creates a TieredStore backed by the given persistent store.
// An internal MemoryStore is created automatically.
func NewTieredStore(persistent CounterCache, opts ...TieredOption) *TieredStore {
	t := &TieredStore{
		persistent:  persistent,
		now:         time.Now,
		backfillTTL: time.Second,
	}
	for _, o := range opts {
		o(t)
	}
	t.memory = NewMemoryStore(WithTimeSource(t.now))
	return t
}

// Increment writes through to the persistent backend and mirrors the result
// in memory. The persistent store is the source of truth for the returned count.
func (t *TieredStore) Increment(ctx context.Context, namespace, key string, ttl time.Duration, step int64) (int64, error) {
	count, err := t.persistent.Increment(ctx, namespace, key, ttl, step)
	if err != nil {
		return 0, err
	}

	// Only mirror keys whose expiry we know: either memory already tracks the
	// key, or this increment created it.
	if exp, ok := t.memory.expiry(namespace, key); ok && t.now().Before(exp) {
		t.memory.set(namespace, key, count, exp)
	} else if count == step {
		t.memory.set(namespace, key, count, t.now().Add(time.Duration(TTLSeconds(ttl))*time.Second))
	}

	return count, nil
}

// Get reads from memory first. On a miss it falls back to the persistent
// store and backfills memory for the backfill TTL.
func (t *TieredStore) Get(ctx context.Context, namespace, key string) (int64, bool, error) {
	count, ok, err := t.memory.Get(ctx, namespace, key)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return count, true, nil
	}

	count, ok, err = t.persistent.Get(ctx, namespace, key)
	if err != nil || !ok {
		return 0, ok, err
	}

	if t.backfillTTL > 0 {
		t.memory.set(namespace, key, count, t.now().Add(t.backfillTTL))
	}
	return count, true, nil
}

// Close closes the persistent backend. The in-memory store needs no cleanup.
func (t *TieredStore) Close() error {
	return t.persistent.Close()
}
