// Package store defines the [CounterCache] interface for expiring counter
// backends and provides implementations:
//
//   - [MemoryStore]: in-process counters with per-key expiry, lost on restart.
//   - [SQLiteStore]: counters backed by a SQLite database.
//   - [TieredStore]: a memory fast path in front of a persistent backend.
//   - [Instrumented]: a Prometheus decorator for any of the above.
//
// Networked caches live in sub-packages: store/redis and store/memcache.
// Custom backends can be created by implementing the [CounterCache] interface.
package store
