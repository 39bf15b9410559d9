// Package sources defines the extractor contract for the three registries and
// a thread-safe registry of extractor implementations.
//
// Example usage:
//
//	reg := sources.NewRegistry(abnClient, acncClient, nswClient)
//	src, err := sources.Parse("acnc")
//	if err != nil {
//	    return err // errors.InvalidSourceError
//	}
//	ex, _ := reg.Get(src)
//	set, err := ex.Extract(ctx, sources.Filter{State: "NSW", Postcode: "2000"})
package sources

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// Filter narrows an extraction. Empty fields are not applied.
type Filter struct {
	State    string
	Postcode string

	// TownCity is honoured by the charity register.
	TownCity string

	// Status is honoured by the associations register.
	Status string

	// MaxRecords caps the number of records an extractor returns (0 is unlimited).
	MaxRecords int
}

// Extractor pulls raw records from one registry. Implementations handle their
// own retries and pacing; any returned error is treated as a single failure
// class by callers.
type Extractor interface {
	// Source returns the registry this extractor reads.
	Source() records.Source

	// Extract retrieves the records matching the filter.
	Extract(ctx context.Context, filter Filter) (records.Set, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc struct {
	ID records.Source
	Fn func(ctx context.Context, filter Filter) (records.Set, error)
}

// Source implements Extractor.
func (f ExtractorFunc) Source() records.Source { return f.ID }

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, filter Filter) (records.Set, error) {
	return f.Fn(ctx, filter)
}

// Registry is a thread-safe container of extractors keyed by registry.
type Registry struct {
	mu         sync.RWMutex
	extractors map[records.Source]Extractor
}

// NewRegistry creates a registry holding the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[records.Source]Extractor)}
	for _, ex := range extractors {
		if ex != nil {
			r.extractors[ex.Source()] = ex
		}
	}
	return r
}

// Get returns the extractor for src.
func (r *Registry) Get(src records.Source) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, found := r.extractors[src]
	return ex, found
}

// Set registers an extractor, replacing any existing one for its registry.
func (r *Registry) Set(ex Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[ex.Source()] = ex
}

// Len returns the number of registered extractors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extractors)
}

// IDs returns the registered sources in reconciliation priority order.
func (r *Registry) IDs() []records.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]records.Source, 0, len(r.extractors))
	for _, src := range records.Sources() {
		if _, ok := r.extractors[src]; ok {
			ids = append(ids, src)
		}
	}
	return ids
}

// ValidNames lists accepted source names in the order used by error messages.
func ValidNames() []string {
	return []string{"nsw", "acnc", "abn"}
}

// Parse validates a user-supplied source name. Unknown names fail with an
// errors.InvalidSourceError before any work is scheduled.
func Parse(name string) (records.Source, error) {
	src := records.Source(strings.ToLower(strings.TrimSpace(name)))
	if !src.IsValid() || !slices.Contains(ValidNames(), string(src)) {
		return "", errors.NewInvalidSourceError(name, ValidNames())
	}
	return src, nil
}
