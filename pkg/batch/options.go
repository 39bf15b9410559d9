package batch

import "github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"

// Config holds scheduler settings.
type Config struct {
	// Concurrency is the worker pool width.
	Concurrency int

	// Observer, when set, sees every outcome.
	Observer Observer
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{Concurrency: constants.DefaultConcurrency}
}

// Option configures a Scheduler.
type Option func(*Config)

// WithConcurrency sets the worker pool width. Values below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}
