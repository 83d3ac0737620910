// Package swc (sliding window counter) tracks event counts per key in an
// expiring cache and flags anomalous activity. It needs no time-series
// database: every bucket lives in a cache such as Redis or Memcached and
// expires after the observation period.
//
// # Key Concepts
//
//   - A bucket counts events for one key over one window of [Config.WindowSize]
//     seconds, aligned to the unix epoch.
//   - A [Frame] is a logical sampling instant. It usually straddles two
//     buckets; its value is extrapolated from both, weighted by overlap.
//   - [Counter.TimeSeries] rebuilds a sliding-window series from the buckets
//     still in the cache.
//   - [Counter.DetectAnomaly] compares the latest value against the mean and
//     standard deviation of the series, producing an [AnomalyResult].
//   - [store.CounterCache] is the cache backend. In-memory, SQLite, Redis and
//     Memcached implementations are provided.
//
// # Quick Start
//
//	counter, err := swc.New(swc.Config{
//		Namespace:         "login-attempts",
//		WindowSize:        time.Hour,
//		ObservationPeriod: 24 * time.Hour,
//	}, store.NewMemoryStore(), swc.SystemClock{})
//
//	// Count an event.
//	counter.Increment(ctx, remoteIP, 1)
//
//	// Check the key against its own history.
//	result, err := counter.DetectAnomaly(ctx, remoteIP, swc.DefaultSensitivity)
//	if err == nil && result.IsAnomaly() {
//		log.Printf("unusual activity from %s: %+v", remoteIP, result.Snapshot(2))
//	}
//
// Outgoing HTTP traffic can be counted, and optionally throttled, by wrapping
// a client's transport with [Counter.Transport].
package swc
