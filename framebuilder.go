package swc

import "iter"

// FrameBuilder generates the frames covering a time range for one counter
// configuration. It holds no state besides its configuration and clock.
type FrameBuilder struct {
	windowSize        int64
	observationPeriod int64
	clock             Clock
}

// NewFrameBuilder creates a builder for buckets of windowSize seconds kept for
// observationPeriod seconds.
func NewFrameBuilder(windowSize, observationPeriod int64, clock Clock) *FrameBuilder {
	return &FrameBuilder{
		windowSize:        windowSize,
		observationPeriod: observationPeriod,
		clock:             clock,
	}
}

// NewFrame builds a frame at the given unix time.
func (b *FrameBuilder) NewFrame(time int64) *Frame {
	return NewFrame(time, b.windowSize)
}

// GenerateFrames returns the frames covering [start, end].
// It fails with ErrInvalidRange when end precedes start or start lies in the
// future.
func (b *FrameBuilder) GenerateFrames(start, end int64) (*FrameIterator, error) {
	if end < start {
		return nil, rangeError("end time cannot be before start time (start: %d, end: %d)", start, end)
	}
	return b.generate(start, end, b.clock.Now().Unix())
}

// GenerateFramesToNow returns the frames covering [start, now].
func (b *FrameBuilder) GenerateFramesToNow(start int64) (*FrameIterator, error) {
	now := b.clock.Now().Unix()
	return b.generate(start, now, now)
}

func (b *FrameBuilder) generate(start, end, now int64) (*FrameIterator, error) {
	if start > end {
		return nil, rangeError("start time cannot be in the future (start: %d, end: %d)", start, end)
	}

	// Nothing older than the observation period is still cached.
	horizon := now - b.observationPeriod
	start = max(start, horizon)

	boundary := start % b.windowSize
	start -= boundary

	// The bucket holding the horizon is already gone: increments never extend
	// a bucket's expiry, so it expired exactly observationPeriod after creation.
	if start < horizon {
		start += b.windowSize
	}

	return &FrameIterator{
		builder:  b,
		cursor:   start,
		end:      end,
		boundary: boundary,
	}, nil
}

// FrameIterator walks the frames of a range in ascending order. It always
// yields at least one frame. Frames keep the phase of the requested start
// time; the cursor stays aligned to bucket starts.
type FrameIterator struct {
	builder  *FrameBuilder
	cursor   int64
	end      int64
	boundary int64
	started  bool
	done     bool
	frame    *Frame
}

// Next advances to the next frame and reports whether there is one.
func (it *FrameIterator) Next() bool {
	if it.done {
		return false
	}
	if it.started {
		it.cursor += it.builder.windowSize
		if it.cursor > it.end {
			it.done = true
			it.frame = nil
			return false
		}
	}
	it.started = true
	it.frame = it.builder.NewFrame(it.cursor + it.boundary)
	return true
}

// Frame returns the current frame.
func (it *FrameIterator) Frame() *Frame {
	return it.frame
}

// Cursor returns the aligned bucket start of the current frame.
func (it *FrameIterator) Cursor() int64 {
	return it.cursor
}

// All drains the iterator as a sequence.
func (it *FrameIterator) All() iter.Seq[*Frame] {
	return func(yield func(*Frame) bool) {
		for it.Next() {
			if !yield(it.frame) {
				return
			}
		}
	}
}
