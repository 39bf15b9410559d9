// Package serve provides the HTTP server command.
package serve

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/cmd/application"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	defaults := app.ServerConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the REST API server",
		Long: `Start the HTTP API used by the SvelteKit front end.

Features:
  - Postcode upload and listing per state
  - Bulk syncs across all registries and single-source syncs
  - ABN lookups
  - Shared Redis or in-memory caching
  - Rate limiting (requests per minute per IP)
  - API key authentication (optional)
  - CORS support for web applications
  - Request logging, panic recovery and Prometheus metrics
  - Graceful shutdown with connection draining`,
		Example: `  # Start on the default port 8000
  orgsync serve

  # Custom port with authentication
  API_KEY=secret orgsync serve --port 3000

  # Restrict CORS and rate limit
  orgsync serve --cors-origins "https://app.example.org" --rate-limit 60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app, parseConfig(cmd, defaults))
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", defaults.CORSEnabled, "Enable CORS")
	cmd.Flags().StringSlice("cors-origins", defaults.CORSOrigins, "Allowed CORS origins (comma-separated, empty allows all)")

	cmd.Flags().Bool("auth", defaults.AuthEnabled, "Require an API key (set API_KEY)")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Enable the /metrics endpoint")

	return cmd
}

// parseConfig applies flags on top of the configured defaults.
// Flags are defined in this package, so lookups cannot fail.
func parseConfig(cmd *cobra.Command, cfg server.Config) server.Config {
	cfg.Port = mustGetInt(cmd, "port")
	cfg.Host = mustGetString(cmd, "host")
	cfg.PathPrefix = mustGetString(cmd, "prefix")
	cfg.CORSEnabled = mustGetBool(cmd, "cors")
	cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	cfg.AuthEnabled = mustGetBool(cmd, "auth")
	cfg.AuthHeader = mustGetString(cmd, "auth-header")
	cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	return cfg
}

// runServer starts the API server and blocks until the command context ends.
func runServer(cmd *cobra.Command, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	m := app.Metrics()
	if !cfg.MetricsEnabled {
		m = nil
	}

	srv, err := server.New(client, m, logger, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info().
		Str("addr", srv.Addr()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Msg("Starting API server")

	start := time.Now()
	err = srv.ListenAndServe(cmd.Context())
	logger.Info().Dur("uptime", time.Since(start)).Msg("Server stopped")
	return err
}
