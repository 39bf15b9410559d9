package etl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/postcodes"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// UploadPostcodes implements PostcodeRegistry. Only .csv files are
// accepted. A successful upload replaces the state's list and drops its
// cached bulk sync.
func (c *client) UploadPostcodes(ctx context.Context, state, filename, content string) (*UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, errors.NewValidationError("file", filename, "File must be a CSV")
	}
	codes, err := postcodes.Parse(content)
	if err != nil {
		return nil, err
	}
	payload, err := c.postcodes.Put(ctx, state, codes)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Delete(ctx, cache.SyncAllKey(payload.State)); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Failed to drop cached sync")
	}

	logging.FromContext(ctx).Info().
		Str("state", payload.State).
		Int("postcodes", payload.TotalPostcodes).
		Msg("Postcodes uploaded")

	return &UploadResult{
		Status:         StatusSuccess,
		Message:        fmt.Sprintf("Successfully uploaded %d postcodes for %s", payload.TotalPostcodes, payload.State),
		State:          payload.State,
		TotalPostcodes: payload.TotalPostcodes,
		Postcodes:      preview(payload.Postcodes, constants.PreviewPostcodes),
	}, nil
}

// Postcodes implements PostcodeRegistry.
func (c *client) Postcodes(ctx context.Context, state string) (*PostcodesResult, error) {
	codes, err := c.postcodes.Get(ctx, state)
	if err != nil {
		return nil, err
	}
	return &PostcodesResult{
		State:          strings.ToUpper(strings.TrimSpace(state)),
		Postcodes:      codes,
		TotalPostcodes: len(codes),
	}, nil
}
