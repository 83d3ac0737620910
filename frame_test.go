package swc

import (
	"reflect"
	"testing"
)

func TestFrameTextbookExample(t *testing.T) {
	f := NewFrame(135, 60)

	if f.Time() != 135 {
		t.Errorf("time = %d, want 135", f.Time())
	}
	if f.Start() != 120 {
		t.Errorf("start = %d, want 120", f.Start())
	}

	want := map[int64]int64{60: 45, 120: 15}
	if got := f.OverlapMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("overlap = %v, want %v", got, want)
	}
}

func TestFrameOverlap(t *testing.T) {
	tests := []struct {
		name       string
		time       int64
		windowSize int64
		wantStart  int64
		want       [2]Overlap
	}{
		{
			name:       "inside bucket",
			time:       104729,
			windowSize: 7200,
			wantStart:  100800,
			want:       [2]Overlap{{93600, 3271}, {100800, 3929}},
		},
		{
			name:       "on boundary takes the whole previous bucket",
			time:       100800,
			windowSize: 7200,
			wantStart:  100800,
			want:       [2]Overlap{{93600, 7200}, {100800, 0}},
		},
		{
			name:       "one second after boundary",
			time:       100801,
			windowSize: 7200,
			wantStart:  100800,
			want:       [2]Overlap{{93600, 7199}, {100800, 1}},
		},
		{
			name:       "one second before boundary",
			time:       100799,
			windowSize: 7200,
			wantStart:  93600,
			want:       [2]Overlap{{86400, 1}, {93600, 7199}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(tt.time, tt.windowSize)

			if f.Start() != tt.wantStart {
				t.Errorf("start = %d, want %d", f.Start(), tt.wantStart)
			}
			if f.Start() > f.Time() {
				t.Errorf("start %d after time %d", f.Start(), f.Time())
			}
			if got := f.Overlap(); got != tt.want {
				t.Errorf("overlap = %v, want %v", got, tt.want)
			}
		})
	}
}

// Every logical frame must cover exactly one window, and no material bucket
// may be used by more than two frames or for more than one window in total.
func TestFrameOverlapCoversOneWindow(t *testing.T) {
	const windowSize = 11

	used := make(map[int64]int64)
	seen := make(map[int64]int)

	for time := int64(104729); time <= 104729+300; time += windowSize {
		f := NewFrame(time, windowSize)
		o := f.Overlap()

		if sum := o[0].Seconds + o[1].Seconds; sum != windowSize {
			t.Fatalf("frame %d: overlap sums to %d, want %d", time, sum, windowSize)
		}
		if o[0].Start == o[1].Start {
			t.Fatalf("frame %d: both overlaps point at bucket %d", time, o[0].Start)
		}

		for _, seg := range o {
			used[seg.Start] += seg.Seconds
			seen[seg.Start]++

			if seen[seg.Start] > 2 {
				t.Errorf("bucket %d used by %d frames", seg.Start, seen[seg.Start])
			}
			if used[seg.Start] > windowSize {
				t.Errorf("bucket %d used for %d seconds", seg.Start, used[seg.Start])
			}
		}
	}
}

func TestFrameCacheKey(t *testing.T) {
	f := NewFrame(104729, 7200)
	if got := f.CacheKey("test", 1234567); got != "test:1234567:7200:14" {
		t.Errorf("cache key = %q", got)
	}

	// 27644437 / 60 = 460740.6
	if got := NewFrame(27644437, 60).CacheKey("test", 1000); got != "test:1000:60:460740" {
		t.Errorf("cache key = %q", got)
	}
}

func TestFrameCacheKeySharedWithinBucket(t *testing.T) {
	a := NewFrame(120, 60).CacheKey("ip", 3600)
	b := NewFrame(179, 60).CacheKey("ip", 3600)
	c := NewFrame(180, 60).CacheKey("ip", 3600)

	if a != b {
		t.Errorf("same bucket, different keys: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different buckets share key %q", a)
	}
}

func TestFrameValue(t *testing.T) {
	f := NewFrame(100800, 7200)

	if !f.HasNullValue() {
		t.Error("new frame should have a null value")
	}
	if f.Value() != 0 {
		t.Errorf("null value = %v, want 0", f.Value())
	}

	f.SetValue(123.1)
	if f.HasNullValue() || f.Value() != 123.1 {
		t.Errorf("after set: (%v, null=%v)", f.Value(), f.HasNullValue())
	}

	f.SetValue(0)
	if f.HasNullValue() {
		t.Error("an observed zero is not null")
	}

	f.ClearValue()
	if !f.HasNullValue() {
		t.Error("cleared frame should be null")
	}
}
