// Package application provides the application interface for orgsync commands.
//
// Commands accept this interface rather than the concrete App type, so they
// can be tested with the mock in internal/cmd/application:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            client, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            result, err := client.SyncAll(cmd.Context(), args[0])
//	            // ... render result
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/metrics"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/server"
)

// Application provides what commands need from the running CLI.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the ETL client, building it from configuration on first use.
	Client() (etl.Client, error)

	// Metrics returns the metrics registry shared by the client and the server.
	// Nil when metrics are disabled.
	Metrics() *metrics.Metrics

	// ServerConfig returns the HTTP server configuration derived from env and config file.
	ServerConfig() server.Config

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
