package etl

import (
	"context"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
)

var bulkFeatures = []string{
	"postcode_upload",
	"bulk_sync",
	"data_merging",
	"csv_export",
}

// Health implements Client.
func (c *client) Health(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	status := "connected"
	if err := c.cache.Ping(ctx); err != nil {
		status = "disconnected: " + err.Error()
	}

	ids := c.options.registry.IDs()
	available := make([]string, len(ids))
	for i, id := range ids {
		available[i] = id.String()
	}

	return &HealthStatus{
		Status:           "healthy",
		Timestamp:        c.now().Format(constants.TimeFormatHealth),
		Service:          constants.ServiceName,
		AvailableSources: available,
		BulkFeatures:     bulkFeatures,
		Cache:            status,
	}
}
