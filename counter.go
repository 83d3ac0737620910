package swc

import (
	"context"
	"fmt"
	"time"

	"github.com/ryhazerus/swc/stats"
	"github.com/ryhazerus/swc/store"
	"go.uber.org/zap"
)

// Config describes a counter. It is fixed for the counter's lifetime.
type Config struct {
	// Namespace scopes every bucket in the cache, e.g. "login-attempts".
	Namespace string
	// WindowSize is the bucket granularity. Truncated to whole seconds.
	WindowSize time.Duration
	// ObservationPeriod is how long buckets live in the cache and how far
	// back queries look. Truncated to whole seconds.
	ObservationPeriod time.Duration
}

// Counter counts events per key in fixed-size buckets kept in an expiring
// cache, and reconstructs a sliding-window time series from them.
//
// The counter keeps no state of its own; it is safe for concurrent use as
// long as the cache is.
type Counter struct {
	namespace         string
	windowSize        int64
	observationPeriod int64
	cache             store.CounterCache
	clock             Clock
	frames            *FrameBuilder
	logger            *zap.Logger
	onAnomaly         func(Rule, *AnomalyResult)
}

// New creates a Counter. Production callers pass SystemClock{}.
func New(cfg Config, cache store.CounterCache, clock Clock, opts ...Option) (*Counter, error) {
	windowSize := int64(cfg.WindowSize / time.Second)
	observationPeriod := int64(cfg.ObservationPeriod / time.Second)

	switch {
	case cfg.Namespace == "":
		return nil, fmt.Errorf("%w: namespace expected to be a non-blank string", ErrConfiguration)
	case windowSize < 1:
		return nil, fmt.Errorf("%w: window size expected to be at least one second, received: %s", ErrConfiguration, cfg.WindowSize)
	case observationPeriod < 1:
		return nil, fmt.Errorf("%w: observation period expected to be at least one second, received: %s", ErrConfiguration, cfg.ObservationPeriod)
	case cache == nil:
		return nil, fmt.Errorf("%w: counter cache is required", ErrConfiguration)
	case clock == nil:
		return nil, fmt.Errorf("%w: clock is required", ErrConfiguration)
	}

	c := &Counter{
		namespace:         cfg.Namespace,
		windowSize:        windowSize,
		observationPeriod: observationPeriod,
		cache:             cache,
		clock:             clock,
		logger:            zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.frames == nil {
		c.frames = NewFrameBuilder(windowSize, observationPeriod, clock)
	}
	return c, nil
}

// Namespace returns the cache namespace.
func (c *Counter) Namespace() string { return c.namespace }

// WindowSize returns the bucket size in seconds.
func (c *Counter) WindowSize() int64 { return c.windowSize }

// ObservationPeriod returns the bucket lifetime in seconds.
func (c *Counter) ObservationPeriod() int64 { return c.observationPeriod }

// Increment adds step to the bucket holding the current time and returns the
// bucket's new value as reported by the cache.
func (c *Counter) Increment(ctx context.Context, key string, step int64) (int64, error) {
	return c.increment(ctx, key, step, c.now())
}

// IncrementAt adds step to the bucket holding the given unix time. It fails
// with ErrTooFarInPast if that bucket is older than the observation period.
func (c *Counter) IncrementAt(ctx context.Context, key string, step int64, at int64) (int64, error) {
	now := c.now()
	if at < now-c.observationPeriod {
		return 0, &TooFarInPastError{At: at, Now: now, ObservationPeriod: c.observationPeriod}
	}
	return c.increment(ctx, key, step, at)
}

func (c *Counter) increment(ctx context.Context, key string, step int64, at int64) (int64, error) {
	cacheKey := c.frames.NewFrame(at).CacheKey(key, c.observationPeriod)

	v, err := c.cache.Increment(ctx, c.namespace, cacheKey, time.Duration(c.observationPeriod)*time.Second, step)
	if err != nil {
		c.logger.Warn("counter cache increment failed",
			zap.String("namespace", c.namespace),
			zap.String("key", cacheKey),
			zap.Error(err),
		)
		return 0, fmt.Errorf("swc: increment %s: %w", key, err)
	}
	return v, nil
}

// TimeSeries returns the extrapolated sliding-window series for key.
// Without Since, leading buckets with no data are skipped.
func (c *Counter) TimeSeries(ctx context.Context, key string, opts ...RangeOption) (*Series, error) {
	// The end of the range may be in the past; extrapolation stops at the
	// real current time.
	now := c.now()

	frames, err := c.rawFrames(ctx, key, resolveRange(opts))
	if err != nil {
		return nil, err
	}
	return &Series{frames: frames, windowSize: c.windowSize, now: now}, nil
}

// LatestValue returns the latest extrapolated value: the series point at the
// current time, drawn from the last window. It is zero when there is no data.
func (c *Counter) LatestValue(ctx context.Context, key string) (float64, error) {
	s, err := c.TimeSeries(ctx, key, Since(c.now()-c.windowSize))
	if err != nil {
		return 0, err
	}

	var latest float64
	for s.Next() {
		latest = s.Point().Value
	}
	return latest, s.Err()
}

// HistoricVariance feeds the series for key, without its last point, into a
// running variance. The last point belongs to the bucket still filling up
// and is the one anomaly detection tests against the history.
func (c *Counter) HistoricVariance(ctx context.Context, key string, opts ...RangeOption) (*stats.RunningVariance, error) {
	s, err := c.TimeSeries(ctx, key, opts...)
	if err != nil {
		return nil, err
	}

	var (
		v       stats.RunningVariance
		pending float64
		held    bool
	)
	for s.Next() {
		if held {
			v.Observe(pending)
		}
		pending, held = s.Point().Value, true
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &v, nil
}

// DetectAnomaly compares the latest value for key with its history.
// sensitivity is the number of standard deviations tolerated; see
// DefaultSensitivity.
func (c *Counter) DetectAnomaly(ctx context.Context, key string, sensitivity int, opts ...RangeOption) (*AnomalyResult, error) {
	variance, err := c.HistoricVariance(ctx, key, opts...)
	if err != nil {
		return nil, err
	}
	latest, err := c.LatestValue(ctx, key)
	if err != nil {
		return nil, err
	}

	r := NewAnomalyResult(variance.StandardDeviation(), variance.Mean(), latest, sensitivity)
	if r.IsAnomaly() {
		c.logger.Info("anomaly detected",
			zap.String("namespace", c.namespace),
			zap.String("key", key),
			zap.String("direction", string(r.Direction())),
			zap.Float64("latest", r.Latest()),
			zap.Float64("mean", r.Mean()),
			zap.Float64("hops", r.Hops()),
		)
	}
	return r, nil
}

// rawFrames walks the material frames of a range, fetching each bucket
// value from the cache on demand.
func (c *Counter) rawFrames(ctx context.Context, key string, r timeRange) (*materialFrames, error) {
	var (
		it  *FrameIterator
		err error
	)
	if r.hasEnd {
		it, err = c.frames.GenerateFrames(r.start, r.end)
	} else {
		it, err = c.frames.GenerateFramesToNow(r.start)
	}
	if err != nil {
		return nil, err
	}

	return &materialFrames{
		ctx:       ctx,
		counter:   c,
		key:       key,
		it:        it,
		skipNulls: !r.hasStart,
	}, nil
}

// fetch loads the bucket value of f. A missing bucket leaves f null.
func (c *Counter) fetch(ctx context.Context, key string, f *Frame) error {
	cacheKey := f.CacheKey(key, c.observationPeriod)

	v, ok, err := c.cache.Get(ctx, c.namespace, cacheKey)
	if err != nil {
		c.logger.Warn("counter cache get failed",
			zap.String("namespace", c.namespace),
			zap.String("key", cacheKey),
			zap.Error(err),
		)
		return fmt.Errorf("swc: get %s: %w", key, err)
	}
	if ok {
		f.SetValue(float64(v))
	} else {
		f.ClearValue()
	}
	return nil
}

func (c *Counter) now() int64 {
	return c.clock.Now().Unix()
}

// materialFrames yields frames with their bucket values attached.
type materialFrames struct {
	ctx       context.Context
	counter   *Counter
	key       string
	it        *FrameIterator
	skipNulls bool
	frame     *Frame
	err       error
}

func (m *materialFrames) Next() bool {
	if m.err != nil {
		return false
	}
	for m.it.Next() {
		f := m.it.Frame()
		if err := m.counter.fetch(m.ctx, m.key, f); err != nil {
			m.err = err
			return false
		}
		// Leading empty buckets would read as zeros and skew the statistics.
		if m.skipNulls && f.HasNullValue() {
			continue
		}
		m.skipNulls = false
		m.frame = f
		return true
	}
	return false
}

func (m *materialFrames) Frame() *Frame { return m.frame }

func (m *materialFrames) Err() error { return m.err }
