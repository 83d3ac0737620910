package config

import (
	"context"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ryhazerus/swc/store"
	swcmemcache "github.com/ryhazerus/swc/store/memcache"
	swcredis "github.com/ryhazerus/swc/store/redis"
)

// OpenStore builds the counter cache selected by c. Redis is pinged so a bad
// address fails here rather than on the first increment. When metrics is not
// nil every operation is instrumented under the backend name.
func OpenStore(ctx context.Context, c StoreConfig, metrics *store.Metrics) (store.CounterCache, error) {
	var (
		cache store.CounterCache
		err   error
	)

	switch c.Backend {
	case BackendMemory:
		cache = store.NewMemoryStore()
	case BackendSQLite:
		cache, err = store.NewSQLiteStore(c.SQLitePath)
	case BackendRedis:
		cache, err = openRedis(ctx, c)
	case BackendMemcache:
		cache = swcmemcache.NewMemcacheStore(memcache.New(c.MemcacheAddrs...))
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
	if err != nil {
		return nil, err
	}

	if metrics != nil {
		cache = metrics.Instrument(c.Backend, cache)
	}
	if c.Tiered && c.Backend != BackendMemory {
		cache = store.NewTieredStore(cache, store.WithBackfillTTL(c.BackfillTTL))
	}
	return cache, nil
}

func openRedis(ctx context.Context, c StoreConfig) (store.CounterCache, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: []string{c.RedisAddr},
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", c.RedisAddr, err)
	}

	var opts []swcredis.Option
	if c.RedisPrefix != "" {
		opts = append(opts, swcredis.WithPrefix(c.RedisPrefix))
	}
	return swcredis.NewRedisStore(client, opts...), nil
}
