package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ryhazerus/swc/store"
)

// Compile-time interface check.
var _ store.CounterCache = (*RedisStore)(nil)

// RedisStore is a CounterCache backed by Redis. Each counter is a plain
// integer key whose TTL is set once, when the key is created.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a RedisStore.
type Option func(*RedisStore)

// WithPrefix sets the prefix prepended to every key. Defaults to "swc:".
func WithPrefix(prefix string) Option {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	r := &RedisStore{client: client, prefix: "swc:"}
	for _, o := range opts {
		o(r)
	}
	return r
}

// incrementScript atomically creates the counter at zero with a TTL when it is
// absent, then adds the step. Returns the new count.
//
// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// ARGV[2] = step
var incrementScript = redis.NewScript(`
redis.call("SET", KEYS[1], "0", "EX", ARGV[1], "NX")
return redis.call("INCRBY", KEYS[1], ARGV[2])
`)

// Increment adds step to the counter for key, creating it with the given TTL
// if absent. An existing key keeps its expiry.
func (r *RedisStore) Increment(ctx context.Context, namespace, key string, ttl time.Duration, step int64) (int64, error) {
	result, err := incrementScript.Run(ctx, r.client, []string{r.redisKey(namespace, key)}, store.TTLSeconds(ttl), step).Int64()
	if err != nil {
		return 0, fmt.Errorf("swc/store/redis: increment: %w", err)
	}
	return result, nil
}

// Get returns the counter value for key, or ok == false if it is absent.
func (r *RedisStore) Get(ctx context.Context, namespace, key string) (int64, bool, error) {
	val, err := r.client.Get(ctx, r.redisKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("swc/store/redis: get: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A non-integer value under our key is not a counter.
		return 0, false, nil
	}
	return count, true, nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) redisKey(namespace, key string) string {
	return r.prefix + store.JoinKey(namespace, key)
}
