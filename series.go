package swc

import "iter"

// Point is one value of a time series at a unix time.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Series lazily reconstructs the sliding-window values of a counter, in
// ascending time order. Each point is the sum of the two buckets its window
// overlaps, weighted by the overlap. Buckets are fetched as the series
// advances.
//
// A Series is single use: it captured the current time when it was created.
type Series struct {
	frames     *materialFrames
	windowSize int64
	now        int64
	previous   *Frame
	point      Point
	err        error
}

// Next advances to the next point and reports whether there is one. It
// returns false at the end of the range or on a cache error; check Err.
func (s *Series) Next() bool {
	if s.err != nil {
		return false
	}
	for s.frames.Next() {
		f := s.frames.Frame()

		// The oldest frame only seeds the window: extrapolating it would
		// need the bucket before it, which is unbounded.
		if s.previous == nil {
			s.previous = f
			continue
		}

		s.point = Point{Time: f.Time(), Value: s.extrapolate(f)}
		s.previous = f
		return true
	}
	s.err = s.frames.Err()
	return false
}

func (s *Series) extrapolate(f *Frame) float64 {
	window := float64(s.windowSize)

	var sum float64
	for _, o := range f.Overlap() {
		switch {
		case o.Start == s.previous.Start():
			sum += s.previous.Value() * float64(o.Seconds) / window
		case f.Start()+o.Seconds >= s.now:
			// The newest bucket is still filling up; scaling it down would
			// under-count.
			sum += f.Value()
		default:
			sum += f.Value() * float64(o.Seconds) / window
		}
	}
	return sum
}

// Point returns the current point.
func (s *Series) Point() Point { return s.point }

// Err returns the error that stopped the series, if any.
func (s *Series) Err() error { return s.err }

// All returns the remaining points as a sequence of (time, value) pairs.
// Check Err after ranging.
func (s *Series) All() iter.Seq2[int64, float64] {
	return func(yield func(int64, float64) bool) {
		for s.Next() {
			if !yield(s.point.Time, s.point.Value) {
				return
			}
		}
	}
}

// Collect drains the series into a slice.
func (s *Series) Collect() ([]Point, error) {
	var out []Point
	for s.Next() {
		out = append(out, s.point)
	}
	return out, s.err
}
