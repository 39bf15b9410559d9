// Package etl is the entry point of the organisations ETL. It extracts
// records from the Australian Business Register, the ACNC charity register
// and the NSW associations register, reconciles them into canonical
// organisations and loads the result into the configured outputs.
//
// Example usage:
//
//	registry := sources.NewRegistry(abn.New(guid), acnc.New(), nsw.New())
//	client, err := etl.New(
//	    etl.WithRegistry(registry),
//	    etl.WithCache(cache.NewMemory(0, 0)),
//	    etl.WithSinks(pgSink),
//	    etl.WithExportDir("./exports"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Register the postcodes to process for a state
//	if _, err := client.UploadPostcodes(ctx, "NSW", "postcodes.csv", content); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Extract, merge and load every postcode of the state
//	result, err := client.SyncAll(ctx, "NSW")
//	if errors.IsNotFound(err) {
//	    log.Fatal("upload postcodes first")
//	}
//	fmt.Println(result.MergeStats.Summary())
package etl

import (
	"context"
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/postcodes"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Syncer runs extraction, reconciliation and loading.
type Syncer interface {
	// SyncAll processes every registered postcode of a state against all
	// registries and merges the results.
	SyncAll(ctx context.Context, state string) (*SyncResult, error)

	// SyncSource extracts one registry, optionally narrowed to a state and
	// postcode.
	SyncSource(ctx context.Context, source, state, postcode string) (*SourceSyncResult, error)

	// LookupABN fetches a single business register entity.
	LookupABN(ctx context.Context, abn string) (*LookupResult, error)
}

// PostcodeRegistry manages the postcodes processed by SyncAll.
type PostcodeRegistry interface {
	UploadPostcodes(ctx context.Context, state, filename, content string) (*UploadResult, error)
	Postcodes(ctx context.Context, state string) (*PostcodesResult, error)
}

// Client is the ETL service.
type Client interface {
	Syncer
	PostcodeRegistry

	// Health reports service status and cache connectivity.
	Health(ctx context.Context) *HealthStatus

	// Sources describes the syncable sources.
	Sources() map[string]sources.Descriptor

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	cache     cache.Store
	postcodes *postcodes.Store
	hooks     *hooks
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options:   o,
		cache:     o.cache,
		postcodes: postcodes.NewStore(o.cache),
		hooks:     newHooks(),
	}

	logging.Debug().
		Int("sources", o.registry.Len()).
		Int("sinks", len(o.sinks)).
		Int("concurrency", o.concurrency).
		Bool("export", o.exporter != nil).
		Bool("upload", o.uploader != nil).
		Msg("ETL client created")

	return c, nil
}

// Sources implements Client.
func (c *client) Sources() map[string]sources.Descriptor {
	return sources.Catalogue()
}

func (c *client) now() time.Time {
	return c.options.clock()
}
