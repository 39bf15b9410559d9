// Package app provides the application context and dependency management
// for the orgsync CLI: configuration, logging, and a lazily built ETL client
// whose cache, sinks and uploader come from the environment.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/metrics"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

// App represents the orgsync application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config     *Config
	configPath string
	logger     *zerolog.Logger

	mu      sync.Mutex
	client  etl.Client
	metrics *metrics.Metrics
	closers []func() error
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format flag value, or "" to auto-detect.
func (a *App) OutputFormat() string { return a.config.Format }

// Metrics returns the shared metrics registry, or nil when disabled.
func (a *App) Metrics() *metrics.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metricsLocked()
}

func (a *App) metricsLocked() *metrics.Metrics {
	if a.metrics == nil && a.config.MetricsEnabled {
		a.metrics = metrics.New()
	}
	return a.metrics
}

// ServerConfig derives the HTTP server configuration.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = a.config.Host
	cfg.Port = a.config.Port
	cfg.RateLimit = a.config.RateLimit
	cfg.MetricsEnabled = a.config.MetricsEnabled
	if a.config.APIKey != "" {
		cfg.AuthEnabled = true
		cfg.APIKey = a.config.APIKey
	}
	return cfg
}

// Client returns the ETL client, creating it on first use.
func (a *App) Client() (etl.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	client, closers, err := buildClient(a.config, a.metricsLocked(), a.logger)
	if err != nil {
		return nil, err
	}
	a.client = client
	a.closers = closers
	return client, nil
}

// Shutdown releases connections held by the client's cache and sinks.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			a.logger.Error().Err(err).Msg("Failed to release resource during shutdown")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(client etl.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
