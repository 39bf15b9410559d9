package etl

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/export"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sources/abn"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/batch"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/reconciler"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// SyncAll implements Syncer. A cached response for the state is returned
// as is; otherwise every postcode registered for the state is extracted from
// all registries, merged, exported and loaded. Failed jobs are reported in
// the postcode stats and never fail the sync.
func (c *client) SyncAll(ctx context.Context, state string) (*SyncResult, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return nil, errors.NewValidationError("state", state, "state is required")
	}
	ctx = logging.WithState(logging.WithOperation(ctx, "sync_all"), state)
	logger := logging.FromContext(ctx)

	key := cache.SyncAllKey(state)
	var cached SyncResult
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Ignoring unreadable cached sync")
	}
	c.observeCache("all", hit && err == nil)
	if hit && err == nil {
		cached.Cached = true
		logger.Info().Str("run_id", cached.RunID).Msg("Returning cached sync")
		return &cached, nil
	}

	codes, err := c.postcodes.Get(ctx, state)
	if err != nil {
		return nil, err
	}

	started := c.now()
	runID := uuid.NewString()
	ctx = logging.WithField(ctx, "run_id", runID)
	logger = logging.FromContext(ctx)
	logger.Info().Int("postcodes", len(codes)).Msg("Starting bulk sync")

	opts := []batch.Option{batch.WithConcurrency(c.options.concurrency)}
	if c.options.metrics != nil {
		opts = append(opts, batch.WithObserver(c.options.metrics))
	}
	res := batch.Run(ctx, c.options.registry, state, codes, opts...)
	merged := reconciler.MergeSet(res.Records, reconciler.WithClock(c.options.clock))

	logger.Info().
		Int("jobs", res.Jobs).
		Int("failed_jobs", len(res.Failures)).
		Str("merge", merged.Statistics.Summary()).
		Msg("Merged batch")

	out := &SyncResult{
		Status:             StatusSuccess,
		RunID:              runID,
		State:              state,
		PostcodeStats:      res.Stats,
		MergeStats:         merged.Statistics,
		MergedRecordsCount: len(merged.Records),
		MergedRecords:      preview(merged.Records, constants.PreviewRecords),
		TotalMergedRecords: len(merged.Records),
		Records:            merged.Records,
	}

	if len(merged.Records) > 0 {
		c.exportRecords(ctx, out)
		out.LoaderResult = c.load(ctx, merged.Records)
	}

	elapsed := c.now().Sub(started)
	out.ProcessingTime = elapsed.Seconds()
	c.writeReport(ctx, out, elapsed)

	if !c.cache.Set(ctx, key, out, c.options.syncTTL) {
		logger.Warn().Str("key", key).Msg("Failed to cache sync result")
	}
	if m := c.options.metrics; m != nil {
		m.ObserveBatch(state, res.Stats, merged.Statistics)
		m.ObserveSync("all", elapsed, nil)
	}

	logger.Info().
		Int("merged", out.TotalMergedRecords).
		Int("failed_postcodes", len(res.Stats.FailedPostcodes)).
		Dur("duration", elapsed).
		Msg("Bulk sync completed")

	c.hooks.syncCompleted(out)
	return out, nil
}

// exportRecords writes the CSV and uploads it. Failures are reported on the
// result.
func (c *client) exportRecords(ctx context.Context, out *SyncResult) {
	if c.options.exporter == nil {
		return
	}
	logger := logging.FromContext(ctx)

	path, err := c.options.exporter.Write(out.State, out.Records)
	if err != nil {
		logger.Error().Err(err).Msg("Export failed")
		out.ExportError = err.Error()
		return
	}
	out.ExportFile = path
	logger.Info().Str("file", path).Int("records", len(out.Records)).Msg("Exported merged records")

	if c.options.uploader == nil {
		return
	}
	object, err := c.options.uploader.Upload(ctx, out.State, path)
	if err != nil {
		logger.Error().Err(err).Msg("Export upload failed")
		out.ExportError = err.Error()
		return
	}
	out.Object = object
}

func (c *client) writeReport(ctx context.Context, out *SyncResult, elapsed time.Duration) {
	if c.options.exporter == nil || !c.options.reports {
		return
	}
	path, err := c.options.exporter.WriteReport(export.Summary{
		RunID:     out.RunID,
		State:     out.State,
		Postcodes: out.PostcodeStats,
		Merge:     out.MergeStats,
		Sinks:     out.LoaderResult,
		File:      out.ExportFile,
		Object:    out.Object,
		Duration:  elapsed,
	})
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Failed to write sync report")
		return
	}
	out.Report = path
}

// load upserts into every sink.
func (c *client) load(ctx context.Context, orgs []records.Organisation) []sinks.Result {
	if len(c.options.sinks) == 0 {
		return nil
	}
	results := sinks.UpsertAll(ctx, c.options.sinks, orgs)
	if m := c.options.metrics; m != nil {
		m.ObserveSinks(results)
	}
	return results
}

// SyncSource implements Syncer. The source name is validated before any
// work; responses are cached per source, state and postcode.
func (c *client) SyncSource(ctx context.Context, source, state, postcode string) (*SourceSyncResult, error) {
	src, err := sources.Parse(source)
	if err != nil {
		return nil, err
	}
	state = strings.TrimSpace(state)
	postcode = strings.TrimSpace(postcode)
	if state == "" {
		postcode = ""
	}

	ctx = logging.WithSource(logging.WithOperation(ctx, "sync_source"), src.String())
	logger := logging.FromContext(ctx)

	key := cache.SyncKey(src.String(), state, postcode)
	var cached SourceSyncResult
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Ignoring unreadable cached sync")
	}
	c.observeCache(src.String(), hit && err == nil)
	if hit && err == nil {
		cached.Cached = true
		return &cached, nil
	}

	filter := sourceFilter(src, strings.ToUpper(state), postcode)
	ex, ok := c.options.registry.Get(src)
	if !ok {
		return nil, errors.NewSourceUnavailableError(src.String(), state, postcode, errors.New("no extractor registered"))
	}

	started := c.now()
	set, err := ex.Extract(ctx, filter)
	if err != nil {
		if m := c.options.metrics; m != nil {
			m.ObserveSync(src.String(), c.now().Sub(started), err)
		}
		if errors.IsSourceUnavailable(err) {
			return nil, err
		}
		return nil, errors.NewSourceUnavailableError(src.String(), filter.State, filter.Postcode, err)
	}

	orgs := wrap(src, set, c.now())
	out := &SourceSyncResult{
		Status:           StatusSuccess,
		Source:           src.String(),
		State:            filter.State,
		Postcode:         filter.Postcode,
		RecordsProcessed: len(orgs),
		Data:             orgs,
	}
	if len(orgs) > 0 {
		out.LoaderResult = c.load(ctx, orgs)
	}

	if !c.cache.Set(ctx, key, out, c.options.sourceTTL) {
		logger.Warn().Str("key", key).Msg("Failed to cache sync result")
	}
	if m := c.options.metrics; m != nil {
		m.ObserveSync(src.String(), c.now().Sub(started), nil)
	}
	logger.Info().
		Str("state", filter.State).
		Str("postcode", filter.Postcode).
		Int("records", len(orgs)).
		Msg("Source sync completed")

	c.hooks.sourceSynced(out)
	return out, nil
}

// sourceFilter narrows an extraction. The business register always needs a
// location and falls back to the state's capital city postcode.
func sourceFilter(src records.Source, state, postcode string) sources.Filter {
	f := sources.Filter{State: state, Postcode: postcode}
	if src == records.SourceABN && postcode == "" {
		if f.State == "" {
			f.State = abn.DefaultState
		}
		f.Postcode = abn.DefaultPostcodeFor(f.State)
	}
	return f
}

// wrap converts one registry's records into single-source organisations.
func wrap(src records.Source, set records.Set, at time.Time) []records.Organisation {
	orgs := make([]records.Organisation, 0, set.Count(src))
	switch src {
	case records.SourceABN:
		for _, r := range set.ABN {
			orgs = append(orgs, records.FromABN(r, at))
		}
	case records.SourceACNC:
		for _, r := range set.ACNC {
			orgs = append(orgs, records.FromACNC(r, at))
		}
	case records.SourceNSW:
		for _, r := range set.NSW {
			orgs = append(orgs, records.FromNSW(r, at))
		}
	}
	return orgs
}

func preview[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func (c *client) observeCache(kind string, hit bool) {
	if m := c.options.metrics; m != nil {
		m.ObserveCache(kind, hit)
	}
}
