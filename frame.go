package swc

import "strconv"

// Overlap is the number of seconds a logical frame draws from the material
// bucket starting at Start.
type Overlap struct {
	Start   int64
	Seconds int64
}

// Frame is one logical sampling instant and the value of the material bucket
// it falls into. Times are unix seconds.
//
// A frame at time t covers (t - windowSize, t]: the tail of the previous
// bucket and the head of the current one.
type Frame struct {
	time       int64
	windowSize int64
	value      float64
	hasValue   bool
}

// NewFrame creates a frame at the given time. windowSize must be positive.
func NewFrame(time, windowSize int64) *Frame {
	return &Frame{time: time, windowSize: windowSize}
}

// Time returns the logical frame reference time.
func (f *Frame) Time() int64 { return f.time }

// WindowSize returns the bucket size in seconds.
func (f *Frame) WindowSize() int64 { return f.windowSize }

// Start returns the start of the material bucket containing Time.
func (f *Frame) Start() int64 {
	return f.time - f.time%f.windowSize
}

// bucketIndex is the cache window ID.
func (f *Frame) bucketIndex() int64 {
	return f.time / f.windowSize
}

// Overlap returns the two material buckets this frame draws from, oldest
// first, and how many seconds it takes from each. The seconds always sum to
// the window size. On a bucket boundary the whole window falls on the
// previous bucket and the current one contributes zero seconds.
func (f *Frame) Overlap() [2]Overlap {
	start := f.Start()
	current := f.time - start
	return [2]Overlap{
		{Start: start - f.windowSize, Seconds: f.windowSize - current},
		{Start: start, Seconds: current},
	}
}

// OverlapMap returns Overlap keyed by bucket start.
func (f *Frame) OverlapMap() map[int64]int64 {
	o := f.Overlap()
	return map[int64]int64{
		o[0].Start: o[0].Seconds,
		o[1].Start: o[1].Seconds,
	}
}

// CacheKey returns the cache key of the frame's material bucket:
// bucketKey, observation period, window size and bucket index joined by
// colons. Frames in the same bucket share a key. Other processes reading the
// same cache depend on this exact layout.
func (f *Frame) CacheKey(bucketKey string, observationPeriod int64) string {
	b := make([]byte, 0, len(bucketKey)+32)
	b = append(b, bucketKey...)
	b = append(b, ':')
	b = strconv.AppendInt(b, observationPeriod, 10)
	b = append(b, ':')
	b = strconv.AppendInt(b, f.windowSize, 10)
	b = append(b, ':')
	b = strconv.AppendInt(b, f.bucketIndex(), 10)
	return string(b)
}

// SetValue records the material value fetched for this frame.
func (f *Frame) SetValue(v float64) *Frame {
	f.value = v
	f.hasValue = true
	return f
}

// ClearValue marks the frame as having no material value.
func (f *Frame) ClearValue() *Frame {
	f.value = 0
	f.hasValue = false
	return f
}

// HasNullValue reports whether no material value was recorded.
func (f *Frame) HasNullValue() bool {
	return !f.hasValue
}

// Value returns the material value, or 0 if none was recorded. Use
// HasNullValue to tell a missing bucket from an observed zero.
func (f *Frame) Value() float64 {
	return f.value
}
