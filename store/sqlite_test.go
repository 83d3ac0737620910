package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T, clock *fakeTime) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", WithSQLiteTimeSource(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	runContract(t, func(t *testing.T, clock *fakeTime) CounterCache {
		return newTestSQLiteStore(t, clock)
	})
}

func TestSQLiteStoreSweep(t *testing.T) {
	clock := newFakeTime()
	s := newTestSQLiteStore(t, clock)
	ctx := context.Background()

	s.Increment(ctx, "ns", "a", time.Minute, 1)
	s.Increment(ctx, "ns", "b", time.Minute, 1)
	s.Increment(ctx, "ns", "c", time.Hour, 1)

	clock.Advance(time.Minute)

	n, err := s.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("swept %d, want 2", n)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	clock := newFakeTime()
	path := filepath.Join(t.TempDir(), "counters.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(path, WithSQLiteTimeSource(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	s1.Increment(ctx, "ns", "key", time.Hour, 3)
	s1.Close()

	s2, err := NewSQLiteStore(path, WithSQLiteTimeSource(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	got, ok, err := s2.Get(ctx, "ns", "key")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 3 {
		t.Errorf("after reopen: got (%d, %v), want (3, true)", got, ok)
	}
}
