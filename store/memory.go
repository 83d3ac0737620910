package store

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count     int64
	expiresAt time.Time
}

// Compile-time interface check.
var _ CounterCache = (*MemoryStore)(nil)

// MemoryStore is an in-process CounterCache with per-key expiry.
// It is safe for concurrent use. Counters are lost on process restart.
// Expired keys are evicted lazily on access, or in bulk by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTimeSource overrides the time source used to evaluate expiry.
// Tests use it together with a manual clock.
func WithTimeSource(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Increment atomically adds step to the counter, creating it at zero with the
// given TTL if it is absent or expired.
func (m *MemoryStore) Increment(_ context.Context, namespace, key string, ttl time.Duration, step int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := JoinKey(namespace, key)

	e, ok := m.entries[k]
	if !ok || !now.Before(e.expiresAt) {
		e = &entry{expiresAt: now.Add(time.Duration(TTLSeconds(ttl)) * time.Second)}
		m.entries[k] = e
	}

	e.count += step
	return e.count, nil
}

// Get returns the counter value for key, or ok == false if it is absent or expired.
func (m *MemoryStore) Get(_ context.Context, namespace, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := JoinKey(namespace, key)
	e, ok := m.entries[k]
	if !ok {
		return 0, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, k)
		return 0, false, nil
	}
	return e.count, true, nil
}

// Sweep removes every expired key and returns how many were evicted.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var n int
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of keys currently held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// set stores an exact value with an absolute expiry. TieredStore uses it to
// mirror the persistent backend.
func (m *MemoryStore) set(namespace, key string, count int64, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[JoinKey(namespace, key)] = &entry{count: count, expiresAt: expiresAt}
}

// expiry returns the absolute expiry of a live key.
func (m *MemoryStore) expiry(namespace, key string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[JoinKey(namespace, key)]
	if !ok {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
