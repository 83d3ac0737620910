// Package config loads the swc command configuration from a file, the
// environment and defaults, using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ryhazerus/swc"
	"github.com/spf13/viper"
)

// Backends accepted by store.backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendMemcache = "memcache"
)

// Config is the full command configuration.
type Config struct {
	Counter CounterConfig `mapstructure:"counter"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CounterConfig mirrors swc.Config.
type CounterConfig struct {
	Namespace         string        `mapstructure:"namespace"`
	Window            time.Duration `mapstructure:"window"`
	ObservationPeriod time.Duration `mapstructure:"observation_period"`
}

// StoreConfig selects and configures the counter cache.
type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	SQLitePath    string        `mapstructure:"sqlite_path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	MemcacheAddrs []string      `mapstructure:"memcache_addrs"`
	Tiered        bool          `mapstructure:"tiered"`       // front the backend with an in-memory read cache; other writers' increments to locally written keys go unseen until the next local write
	BackfillTTL   time.Duration `mapstructure:"backfill_ttl"` // lifetime of read-cache entries filled on Get
}

// LoggingConfig is read by NewLogger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls cache instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers every known key with its default on v. Keys without
// a default are invisible to environment overrides during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("counter.namespace", "default")
	v.SetDefault("counter.window", time.Minute)
	v.SetDefault("counter.observation_period", time.Hour)

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.sqlite_path", "./swc.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_prefix", "swc:")
	v.SetDefault("store.memcache_addrs", []string{"localhost:11211"})
	v.SetDefault("store.tiered", false)
	v.SetDefault("store.backfill_ttl", time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", false)
}

// Load reads the configuration. An explicit path must exist; without one,
// swc.yaml is looked up in the working directory and $HOME/.swc and may be
// absent. SWC_* environment variables override both, e.g.
// SWC_STORE_BACKEND=redis.
func Load(path string) (*viper.Viper, *Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("SWC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("swc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.swc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Counter.Namespace) == "":
		return errors.New("counter.namespace must not be blank")
	case c.Counter.Window < time.Second:
		return fmt.Errorf("counter.window must be at least 1s, got %s", c.Counter.Window)
	case c.Counter.ObservationPeriod < time.Second:
		return fmt.Errorf("counter.observation_period must be at least 1s, got %s", c.Counter.ObservationPeriod)
	case c.Counter.ObservationPeriod < c.Counter.Window:
		return fmt.Errorf("counter.observation_period (%s) must not be shorter than counter.window (%s)",
			c.Counter.ObservationPeriod, c.Counter.Window)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis backend")
		}
	case BackendMemcache:
		if len(c.Store.MemcacheAddrs) == 0 {
			return errors.New("store.memcache_addrs is required for the memcache backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q: must be one of memory, sqlite, redis, memcache", c.Store.Backend)
	}

	if c.Store.Tiered && c.Store.BackfillTTL < time.Second {
		return fmt.Errorf("store.backfill_ttl must be at least 1s, got %s", c.Store.BackfillTTL)
	}
	return nil
}

// SWC returns the counter configuration in the form swc.New expects.
func (c *Config) SWC() swc.Config {
	return swc.Config{
		Namespace:         c.Counter.Namespace,
		WindowSize:        c.Counter.Window,
		ObservationPeriod: c.Counter.ObservationPeriod,
	}
}
