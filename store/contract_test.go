package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeTime is a settable time source.
type fakeTime struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeTime() *fakeTime {
	return &fakeTime{t: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// runContract exercises the behaviour every CounterCache must share.
func runContract(t *testing.T, newCache func(t *testing.T, clock *fakeTime) CounterCache) {
	t.Run("increment accumulates steps", func(t *testing.T) {
		s := newCache(t, newFakeTime())
		ctx := context.Background()

		for i, step := range []int64{2, 3, 5} {
			got, err := s.Increment(ctx, "ns", "key", time.Minute, step)
			if err != nil {
				t.Fatal(err)
			}
			want := []int64{2, 5, 10}[i]
			if got != want {
				t.Errorf("increment %d: got %d, want %d", i+1, got, want)
			}
		}
	})

	t.Run("get distinguishes absent from zero", func(t *testing.T) {
		s := newCache(t, newFakeTime())
		ctx := context.Background()

		_, ok, err := s.Get(ctx, "ns", "key")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Error("initial get: key should be absent")
		}

		if _, err := s.Increment(ctx, "ns", "key", time.Minute, 0); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get(ctx, "ns", "key")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != 0 {
			t.Errorf("after zero step: got (%d, %v), want (0, true)", got, ok)
		}
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		s := newCache(t, newFakeTime())
		ctx := context.Background()

		s.Increment(ctx, "a", "key", time.Minute, 7)
		s.Increment(ctx, "b", "key", time.Minute, 1)

		got, _, _ := s.Get(ctx, "a", "key")
		if got != 7 {
			t.Errorf("namespace a: got %d, want 7", got)
		}
		got, _, _ = s.Get(ctx, "b", "key")
		if got != 1 {
			t.Errorf("namespace b: got %d, want 1", got)
		}
	})

	t.Run("expired key reads absent and restarts at zero", func(t *testing.T) {
		clock := newFakeTime()
		s := newCache(t, clock)
		ctx := context.Background()

		s.Increment(ctx, "ns", "key", time.Minute, 4)
		clock.Advance(30 * time.Second)
		s.Increment(ctx, "ns", "key", time.Minute, 4)

		// Incrementing does not extend the expiry set at creation.
		clock.Advance(31 * time.Second)
		if _, ok, _ := s.Get(ctx, "ns", "key"); ok {
			t.Fatal("key should have expired one minute after creation")
		}

		got, err := s.Increment(ctx, "ns", "key", time.Minute, 1)
		if err != nil {
			t.Fatal(err)
		}
		if got != 1 {
			t.Errorf("after expiry: got %d, want 1", got)
		}
	})
}
