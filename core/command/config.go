package command

import "time"

// Execution policy defaults, applied when a registration leaves the
// corresponding Config field at its zero value.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = time.Second
)

// NoRetries disables retries for a registration. Needed because a zero
// MaxRetries means "use the default".
const NoRetries = -1

// Config is the per-registration execution policy. The zero value defers
// every field to the bus defaults.
type Config struct {
	// Timeout bounds a single handler attempt. Zero means the bus default.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first.
	// Zero means the bus default; NoRetries disables retrying.
	MaxRetries int

	// Backoff is the fixed delay between attempts. Zero means the bus default.
	Backoff time.Duration
}

// ConfigOption customizes a registration's execution policy.
type ConfigOption func(*Config)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets the retry budget. Passing 0 disables retries.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		if n <= 0 {
			c.MaxRetries = NoRetries
			return
		}
		c.MaxRetries = n
	}
}

// WithBackoff sets the fixed delay between attempts.
func WithBackoff(delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.Backoff = delay
	}
}
