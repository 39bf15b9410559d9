package server

import (
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix    string
	MaxUploadSize int64

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Requests per minute per IP (0 to disable)
	RateLimit int

	// HTTP timeouts. Bulk syncs run inside the request, so WriteTimeout
	// defaults to the command timeout.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8000,
		PathPrefix:      "/api",
		MaxUploadSize:   constants.MaxUploadSize,
		CORSEnabled:     true,
		CORSOrigins:     []string{},
		AuthHeader:      "X-API-Key",
		RateLimit:       0,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    constants.CommandTimeout,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MetricsEnabled:  true,
	}
}
