package cqrs

import (
	"time"

	"github.com/praxislabs/cqrs/core/config"
)

// Config holds engine settings loaded from the environment.
type Config struct {
	AuthorizationEnabled bool          `env:"CQRS_AUTHORIZATION_ENABLED" envDefault:"true"`
	CachingEnabled       bool          `env:"CQRS_CACHING_ENABLED" envDefault:"true"`
	CommandTimeout       time.Duration `env:"CQRS_COMMAND_TIMEOUT" envDefault:"30s"`
	CommandMaxRetries    int           `env:"CQRS_COMMAND_MAX_RETRIES" envDefault:"3"`
	CommandBackoff       time.Duration `env:"CQRS_COMMAND_BACKOFF" envDefault:"1s"`
	QueryTimeout         time.Duration `env:"CQRS_QUERY_TIMEOUT" envDefault:"0"`
	QueryCacheTTL        time.Duration `env:"CQRS_QUERY_CACHE_TTL" envDefault:"5m"`
}

// LoadConfig reads engine settings from the environment, including a .env
// file when present.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the settings used when no environment overrides
// are loaded.
func DefaultConfig() Config {
	return Config{
		AuthorizationEnabled: true,
		CachingEnabled:       true,
		CommandTimeout:       30 * time.Second,
		CommandMaxRetries:    3,
		CommandBackoff:       time.Second,
		QueryCacheTTL:        5 * time.Minute,
	}
}
