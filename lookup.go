package etl

import (
	"context"
	"strings"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// LookupABN implements Syncer. Unknown ABNs fail with errors.NotFoundError.
func (c *client) LookupABN(ctx context.Context, id string) (*LookupResult, error) {
	id = strings.ReplaceAll(strings.TrimSpace(id), " ", "")
	if id == "" {
		return nil, errors.NewValidationError("abn", id, "abn is required")
	}
	if c.options.lookup == nil {
		return nil, errors.NewConfigError("lookup", "no ABN lookup configured", nil)
	}
	ctx = logging.WithField(logging.WithOperation(ctx, "lookup_abn"), "abn", id)

	key := cache.ABNLookupKey(id)
	var cached LookupResult
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("Ignoring unreadable cached lookup")
	}
	c.observeCache("lookup", hit && err == nil)
	if hit && err == nil {
		cached.Cached = true
		return &cached, nil
	}

	rec, err := c.options.lookup.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &LookupResult{Status: StatusSuccess, ABN: id, Data: rec}
	c.cache.Set(ctx, key, out, c.options.sourceTTL)
	return out, nil
}
