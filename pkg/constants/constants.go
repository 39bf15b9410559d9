// Package constants provides shared constants used throughout the ETL.
// This includes timeouts, limits, cache lifetimes and file permissions that
// should be consistent between the CLI, the HTTP server and the library.
package constants

import "time"

// Service identity reported by health checks.
const (
	ServiceName  = "orgs-sveltekit-etl"
	ServiceOwner = "BEN-DataDev"
)

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to registries
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for short operations (cache pings, health)
	DefaultTimeout = 10 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Hour

	// RetryBackoff is the base backoff duration for extractor retries
	RetryBackoff = 1 * time.Second
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// MaxRetries is the maximum number of attempts for a single registry call
	MaxRetries = 3

	// DefaultConcurrency is the worker pool width for bulk extraction
	DefaultConcurrency = 5

	// MaxConcurrentLookups bounds per-ABN detail lookups inside one extraction job
	MaxConcurrentLookups = 4

	// ACNCPageSize is the CKAN datastore page size
	ACNCPageSize = 1000

	// PreviewRecords is how many merged records a bulk sync response carries
	PreviewRecords = 100

	// PreviewPostcodes is how many postcodes an upload response echoes back
	PreviewPostcodes = 10

	// MaxUploadSize caps postcode uploads
	MaxUploadSize = 10 << 20
)

// Cache constants
const (
	// CacheExpiration is the default lifetime of cached payloads
	CacheExpiration = 3600 * time.Second

	// BulkSyncTTL is the lifetime of a cached bulk sync response
	BulkSyncTTL = 3600 * time.Second

	// CacheCleanupInterval is how often the in-memory cache evicts expired items
	CacheCleanupInterval = 10 * time.Minute
)

// Pacing constants
const (
	// NSWRequestDelay is the pause between NSW register result pages
	NSWRequestDelay = 500 * time.Millisecond

	// ABNLookupDelay is the pause between ABR detail lookups
	ABNLookupDelay = 400 * time.Millisecond
)

// Format constants
const (
	// TimeFormatISO8601 is used for timestamps in JSON payloads
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatHealth is the health endpoint timestamp layout
	TimeFormatHealth = "2006-01-02 15:04:05"

	// TimeFormatFilename is used for timestamped export object names
	TimeFormatFilename = "20060102-150405"
)
