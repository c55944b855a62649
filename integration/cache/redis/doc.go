// Package redis provides a Redis-backed query result cache with
// connection retry logic and health checking.
//
// The package wraps the go-redis client with connection validation,
// exponential retry, and a Cache type implementing the engine's cache
// contract. Values are stored as JSON under a configurable key prefix so
// several environments can share a Redis instance.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"cqrs:"`
//		ScanBatchSize  int           `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are supported.
//
// # Usage Example
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal("failed to connect to redis:", err)
//	}
//	defer client.Close()
//
//	store := redis.NewCache(client, redis.WithKeyPrefix(cfg.KeyPrefix))
//	bus := query.NewBus(registry, query.WithCache(store))
//
// # Value Typing
//
// Cached values round-trip through JSON: a struct cached by a handler
// comes back as map[string]any on a hit. Handlers that need typed results
// back should cache JSON-friendly types or use the in-process memory
// cache instead.
//
// # Health Checking
//
// Healthcheck returns a func(context.Context) error suitable for
// readiness probes:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//		// redis unreachable
//	}
package redis
