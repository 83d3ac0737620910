package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Compile-time interface check.
var _ CounterCache = (*Instrumented)(nil)

// Instrumented decorates a CounterCache with Prometheus metrics.
type Instrumented struct {
	next     CounterCache
	backend  string
	ops      *prometheus.CounterVec
	misses   prometheus.Counter
	duration *prometheus.HistogramVec
}

// Metrics holds the collectors shared by every instrumented backend
// registered against the same registry.
type Metrics struct {
	ops      *prometheus.CounterVec
	misses   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the cache collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swc_cache_operations_total",
				Help: "Total number of counter cache operations",
			},
			[]string{"backend", "op", "status"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swc_cache_misses_total",
				Help: "Total number of lookups for absent or expired buckets",
			},
			[]string{"backend"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swc_cache_operation_duration_seconds",
				Help:    "Counter cache operation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
			[]string{"backend", "op"},
		),
	}

	for _, c := range []prometheus.Collector{m.ops, m.misses, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Instrument wraps next so that its operations are recorded under the given
// backend label.
func (m *Metrics) Instrument(backend string, next CounterCache) *Instrumented {
	return &Instrumented{
		next:     next,
		backend:  backend,
		ops:      m.ops,
		misses:   m.misses.WithLabelValues(backend),
		duration: m.duration,
	}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	i.ops.WithLabelValues(i.backend, op, status).Inc()
	i.duration.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}

// Increment forwards to the wrapped cache.
func (i *Instrumented) Increment(ctx context.Context, namespace, key string, ttl time.Duration, step int64) (int64, error) {
	start := time.Now()
	v, err := i.next.Increment(ctx, namespace, key, ttl, step)
	i.observe("increment", start, err)
	return v, err
}

// Get forwards to the wrapped cache and counts misses.
func (i *Instrumented) Get(ctx context.Context, namespace, key string) (int64, bool, error) {
	start := time.Now()
	v, ok, err := i.next.Get(ctx, namespace, key)
	i.observe("get", start, err)
	if err == nil && !ok {
		i.misses.Inc()
	}
	return v, ok, err
}

// Close closes the wrapped cache.
func (i *Instrumented) Close() error {
	return i.next.Close()
}
