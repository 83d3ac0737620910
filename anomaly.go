package swc

import (
	"encoding/json"
	"math"
)

// Direction is the side of the expected range an anomalous value falls on.
type Direction string

const (
	// DirectionNone means the value is within the expected range.
	DirectionNone Direction = "none"
	// DirectionUp means the value is above the high bound.
	DirectionUp Direction = "up"
	// DirectionDown means the value is below the low bound.
	DirectionDown Direction = "down"
)

// DefaultSensitivity is the number of standard deviations used when the
// caller has no preference: 3 = low (99.7%), 2 = standard (95%), 1 = high (68%).
const DefaultSensitivity = 2

// AnomalyResult classifies the latest value of a series against its historic
// mean and standard deviation. It is computed once, at construction.
type AnomalyResult struct {
	stdDev      float64
	mean        float64
	sensitivity int
	low         float64
	high        float64
	latest      float64
	direction   Direction
	hops        float64
}

// NewAnomalyResult classifies latest. The expected range is
// [floor(mean - sensitivity*stdDev), ceil(mean + sensitivity*stdDev)];
// outside it, hops is the distance from the mean in standard deviations, or
// zero when the baseline has no variance.
func NewAnomalyResult(stdDev, mean, latest float64, sensitivity int) *AnomalyResult {
	r := &AnomalyResult{
		stdDev:      stdDev,
		mean:        mean,
		sensitivity: sensitivity,
		latest:      latest,
		direction:   DirectionNone,
		high:        math.Ceil(mean + float64(sensitivity)*stdDev),
		low:         math.Floor(mean - float64(sensitivity)*stdDev),
	}

	// NaN bounds (no usable history) compare false both ways and stay "none".
	switch {
	case latest < r.low:
		r.direction = DirectionDown
	case latest > r.high:
		r.direction = DirectionUp
	default:
		return r
	}

	if stdDev > 0 {
		r.hops = math.Abs(mean-latest) / stdDev
	}
	return r
}

// IsAnomaly reports whether the latest value is outside the expected range.
func (r *AnomalyResult) IsAnomaly() bool { return r.direction != DirectionNone }

// StandardDeviation returns the historic standard deviation.
func (r *AnomalyResult) StandardDeviation() float64 { return r.stdDev }

// Mean returns the historic mean.
func (r *AnomalyResult) Mean() float64 { return r.mean }

// Sensitivity returns the number of standard deviations the bounds allow.
func (r *AnomalyResult) Sensitivity() int { return r.sensitivity }

// Low returns the low bound.
func (r *AnomalyResult) Low() float64 { return r.low }

// High returns the high bound.
func (r *AnomalyResult) High() float64 { return r.high }

// Latest returns the value that was classified.
func (r *AnomalyResult) Latest() float64 { return r.latest }

// Direction returns the direction of the anomaly.
func (r *AnomalyResult) Direction() Direction { return r.direction }

// Hops returns the distance from the mean in standard deviations (the
// anomaly score).
func (r *AnomalyResult) Hops() float64 { return r.hops }

// AnomalySnapshot is a flat, rounded copy of an AnomalyResult. Without
// enough history the mean, deviation and bounds are NaN; they marshal to
// JSON as null.
type AnomalySnapshot struct {
	StdDev      float64   `json:"std_dev"`
	Mean        float64   `json:"mean"`
	Sensitivity int       `json:"sensitivity"`
	Low         float64   `json:"low"`
	High        float64   `json:"high"`
	Latest      float64   `json:"latest"`
	Direction   Direction `json:"direction"`
	Hops        float64   `json:"hops"`
}

// Snapshot returns every field with floats rounded to precision decimal
// places, half away from zero.
func (r *AnomalyResult) Snapshot(precision int) AnomalySnapshot {
	return AnomalySnapshot{
		StdDev:      round(r.stdDev, precision),
		Mean:        round(r.mean, precision),
		Sensitivity: r.sensitivity,
		Low:         round(r.low, precision),
		High:        round(r.high, precision),
		Latest:      round(r.latest, precision),
		Direction:   r.direction,
		Hops:        round(r.hops, precision),
	}
}

// MarshalJSON encodes non-finite floats as null.
func (s AnomalySnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StdDev      *float64  `json:"std_dev"`
		Mean        *float64  `json:"mean"`
		Sensitivity int       `json:"sensitivity"`
		Low         *float64  `json:"low"`
		High        *float64  `json:"high"`
		Latest      *float64  `json:"latest"`
		Direction   Direction `json:"direction"`
		Hops        *float64  `json:"hops"`
	}{
		StdDev:      finite(s.StdDev),
		Mean:        finite(s.Mean),
		Sensitivity: s.Sensitivity,
		Low:         finite(s.Low),
		High:        finite(s.High),
		Latest:      finite(s.Latest),
		Direction:   s.Direction,
		Hops:        finite(s.Hops),
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func round(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}
