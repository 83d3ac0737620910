package swc

import "go.uber.org/zap"

// Option configures the Counter.
type Option func(*Counter)

// WithLogger sets the logger for cache failures and detected anomalies.
// If not provided, logging is disabled.
func WithLogger(l *zap.Logger) Option {
	return func(c *Counter) {
		c.logger = l
	}
}

// WithOnAnomaly sets a callback that fires whenever a transport rule detects
// an anomaly, regardless of strategy. It is the primary mechanism for LogOnly
// rules.
func WithOnAnomaly(fn func(Rule, *AnomalyResult)) Option {
	return func(c *Counter) {
		c.onAnomaly = fn
	}
}

// WithFrameBuilder replaces the frame builder derived from the configuration.
// The builder must use the counter's window size.
func WithFrameBuilder(b *FrameBuilder) Option {
	return func(c *Counter) {
		c.frames = b
	}
}

// RangeOption narrows the time range of a query.
type RangeOption func(*timeRange)

type timeRange struct {
	start    int64
	end      int64
	hasStart bool
	hasEnd   bool
}

// Since sets the start of the range. Without it, queries start at the oldest
// bucket that still holds data and skip the empty buckets before it.
func Since(unix int64) RangeOption {
	return func(r *timeRange) {
		r.start = unix
		r.hasStart = true
	}
}

// Until sets the end of the range. Defaults to the current time.
func Until(unix int64) RangeOption {
	return func(r *timeRange) {
		r.end = unix
		r.hasEnd = true
	}
}

func resolveRange(opts []RangeOption) timeRange {
	var r timeRange
	for _, o := range opts {
		o(&r)
	}
	return r
}
