package etl

import (
	"context"
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/export"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/metrics"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// ABNLookup resolves a single ABN against the business register.
type ABNLookup interface {
	Lookup(ctx context.Context, abn string) (*records.ABN, error)
}

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	cache       cache.Store
	registry    *sources.Registry
	lookup      ABNLookup
	sinks       []sinks.Sink
	exporter    *export.Writer
	uploader    export.Uploader
	reports     bool
	metrics     *metrics.Metrics
	concurrency int
	syncTTL     time.Duration
	sourceTTL   time.Duration
	clock       func() time.Time
}

func defaults() *options {
	return &options{
		registry:    sources.NewRegistry(),
		concurrency: constants.DefaultConcurrency,
		syncTTL:     constants.BulkSyncTTL,
		sourceTTL:   constants.CacheExpiration,
		clock:       time.Now,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.cache == nil {
		o.cache = cache.NewMemory(o.sourceTTL, constants.CacheCleanupInterval)
	}
	return o, nil
}

// WithCache sets the cache shared by postcode storage and response caching.
// Without it an in-process cache is used.
func WithCache(c cache.Store) Option {
	return func(o *options) error {
		if c == nil {
			return errors.NewConfigError("client", "cache cannot be nil", nil)
		}
		o.cache = c
		return nil
	}
}

// WithRegistry sets the extractors used by syncs.
func WithRegistry(r *sources.Registry) Option {
	return func(o *options) error {
		if r == nil {
			return errors.NewConfigError("client", "registry cannot be nil", nil)
		}
		o.registry = r
		return nil
	}
}

// WithABNLookup sets the resolver used by LookupABN.
func WithABNLookup(l ABNLookup) Option {
	return func(o *options) error {
		o.lookup = l
		return nil
	}
}

// WithSinks adds sinks that receive every synced organisation.
func WithSinks(s ...sinks.Sink) Option {
	return func(o *options) error {
		o.sinks = append(o.sinks, s...)
		return nil
	}
}

// WithExportDir writes merged_records_{STATE}.csv into dir after each bulk
// sync.
func WithExportDir(dir string) Option {
	return func(o *options) error {
		o.exporter = export.NewWriter(dir)
		return nil
	}
}

// WithReports also writes a markdown run report next to each export.
func WithReports(enabled bool) Option {
	return func(o *options) error {
		o.reports = enabled
		return nil
	}
}

// WithUploader copies each export to object storage.
func WithUploader(u export.Uploader) Option {
	return func(o *options) error {
		o.uploader = u
		return nil
	}
}

// WithMetrics records syncs, jobs and sink loads.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithConcurrency sets the extraction pool width for bulk syncs.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("concurrency", n, "must be at least 1")
		}
		o.concurrency = n
		return nil
	}
}

// WithSyncTTL sets how long bulk sync responses are cached.
func WithSyncTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.syncTTL = ttl
		return nil
	}
}

// WithSourceTTL sets how long single-source and lookup responses are cached.
func WithSourceTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.sourceTTL = ttl
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock != nil {
			o.clock = clock
		}
		return nil
	}
}
