package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/batch"
	pkgerrors "github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/reconciler"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// fakeExtractor returns n records per postcode for its source, failing or
// panicking for the configured postcodes.
type fakeExtractor struct {
	src     records.Source
	n       map[string]int
	failOn  map[string]bool
	panicOn map[string]bool
	delay   time.Duration

	inFlight *atomic.Int32
	maxSeen  *atomic.Int32
}

func (f *fakeExtractor) Source() records.Source { return f.src }

func (f *fakeExtractor) Extract(_ context.Context, filter sources.Filter) (records.Set, error) {
	if f.inFlight != nil {
		cur := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			seen := f.maxSeen.Load()
			if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
				break
			}
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicOn[filter.Postcode] {
		panic("scraper exploded")
	}
	if f.failOn[filter.Postcode] {
		return records.Set{}, errors.New("upstream 503")
	}

	var set records.Set
	for i := 0; i < f.n[filter.Postcode]; i++ {
		id := filter.Postcode + "-" + string(rune('a'+i))
		switch f.src {
		case records.SourceABN:
			set.ABN = append(set.ABN, records.ABN{ABN: id})
		case records.SourceACNC:
			set.ACNC = append(set.ACNC, records.ACNC{ABN: id, LegalName: "Org " + id})
		case records.SourceNSW:
			set.NSW = append(set.NSW, records.NSW{Name: "Org " + id})
		}
	}
	return set, nil
}

func registry(exs ...*fakeExtractor) *sources.Registry {
	reg := sources.NewRegistry()
	for _, ex := range exs {
		reg.Set(ex)
	}
	return reg
}

func TestJobs(t *testing.T) {
	jobs := batch.Jobs("NSW", []string{"2000", "2001", "2000"})
	require.Len(t, jobs, 6)
	assert.Equal(t, batch.Job{Source: records.SourceABN, State: "NSW", Postcode: "2000"}, jobs[0])
	assert.Equal(t, batch.Job{Source: records.SourceNSW, State: "NSW", Postcode: "2001"}, jobs[5])
	assert.Equal(t, "acnc/NSW/2000", jobs[1].String())
}

func TestRunIsolatesSingleFailure(t *testing.T) {
	abn := &fakeExtractor{src: records.SourceABN, n: map[string]int{"2000": 2, "2001": 1}}
	acnc := &fakeExtractor{
		src:    records.SourceACNC,
		n:      map[string]int{"2000": 1, "2001": 3},
		failOn: map[string]bool{"2000": true},
	}
	nsw := &fakeExtractor{src: records.SourceNSW, n: map[string]int{"2000": 1, "2001": 2}}

	res := batch.New(registry(abn, acnc, nsw)).Run(context.Background(), "NSW", []string{"2000", "2001"})

	assert.Equal(t, 6, res.Jobs)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, batch.Job{Source: records.SourceACNC, State: "NSW", Postcode: "2000"}, res.Failures[0].Job)
	assert.True(t, pkgerrors.IsSourceUnavailable(res.Failures[0].Err))
	assert.Len(t, res.Errors(), 1)

	stats := res.Stats
	assert.Equal(t, 2, stats.TotalPostcodes)
	assert.Equal(t, []string{"2000"}, stats.FailedPostcodes)
	assert.True(t, stats.Failed("2000"))
	assert.False(t, stats.Failed("2001"))
	// 2000 failed one job but still produced records.
	assert.Equal(t, 2, stats.ProcessedPostcodes)
	assert.Equal(t, batch.PostcodeCounts{ABN: 2, ACNC: 0, NSW: 1, Total: 3}, *stats.ByPostcode["2000"])
	assert.Equal(t, batch.PostcodeCounts{ABN: 1, ACNC: 3, NSW: 2, Total: 6}, *stats.ByPostcode["2001"])

	assert.Len(t, res.Records.ABN, 3)
	assert.Len(t, res.Records.ACNC, 3)
	assert.Len(t, res.Records.NSW, 3)

	merged := reconciler.MergeSet(res.Records)
	assert.Equal(t, 3, merged.Statistics.TotalACNCRecords)
	assert.Equal(t, len(merged.Records), merged.Statistics.MergedRecords)
}

func TestRunRecoversPanics(t *testing.T) {
	abn := &fakeExtractor{src: records.SourceABN, n: map[string]int{"3000": 1}}
	acnc := &fakeExtractor{src: records.SourceACNC, n: map[string]int{"3000": 1}}
	nsw := &fakeExtractor{src: records.SourceNSW, panicOn: map[string]bool{"3000": true}}

	res := batch.New(registry(abn, acnc, nsw)).Run(context.Background(), "VIC", []string{"3000"})

	require.Len(t, res.Failures, 1)
	assert.Equal(t, records.SourceNSW, res.Failures[0].Job.Source)
	assert.Contains(t, res.Failures[0].Err.Error(), "scraper exploded")
	assert.Equal(t, 1, res.Stats.ProcessedPostcodes)
}

func TestRunMissingExtractor(t *testing.T) {
	abn := &fakeExtractor{src: records.SourceABN, n: map[string]int{"4000": 1}}

	res := batch.New(registry(abn)).Run(context.Background(), "QLD", []string{"4000"})

	assert.Len(t, res.Failures, 2)
	assert.Equal(t, []string{"4000"}, res.Stats.FailedPostcodes)
	assert.Equal(t, 1, res.Stats.ProcessedPostcodes)
}

func TestRunRepeatedPostcodes(t *testing.T) {
	res := batch.New(registry(
		&fakeExtractor{src: records.SourceABN, n: map[string]int{"2600": 1}},
		&fakeExtractor{src: records.SourceACNC},
		&fakeExtractor{src: records.SourceNSW},
	)).Run(context.Background(), "ACT", []string{"2600", "2600", "2601"})

	assert.Equal(t, 6, res.Jobs)
	assert.Equal(t, 2, res.Stats.TotalPostcodes)
	assert.Len(t, res.Stats.ByPostcode, 2)
}

func TestRunAllFailed(t *testing.T) {
	fail := map[string]bool{"0800": true}
	res := batch.New(registry(
		&fakeExtractor{src: records.SourceABN, failOn: fail},
		&fakeExtractor{src: records.SourceACNC, failOn: fail},
		&fakeExtractor{src: records.SourceNSW, failOn: fail},
	)).Run(context.Background(), "NT", []string{"0800"})

	assert.Len(t, res.Failures, 3)
	assert.Equal(t, 0, res.Stats.ProcessedPostcodes)
	assert.Equal(t, []string{"0800"}, res.Stats.FailedPostcodes)
	assert.Equal(t, 0, res.Records.Len())
}

func TestRunRespectsConcurrency(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	postcodes := []string{"2000", "2001", "2002", "2003", "2004", "2005"}
	counts := map[string]int{}
	for _, pc := range postcodes {
		counts[pc] = 1
	}
	mk := func(src records.Source) *fakeExtractor {
		return &fakeExtractor{src: src, n: counts, delay: 10 * time.Millisecond, inFlight: &inFlight, maxSeen: &maxSeen}
	}

	res := batch.New(
		registry(mk(records.SourceABN), mk(records.SourceACNC), mk(records.SourceNSW)),
		batch.WithConcurrency(2),
	).Run(context.Background(), "NSW", postcodes)

	assert.Empty(t, res.Failures)
	assert.Equal(t, 18, res.Records.Len())
	assert.LessOrEqual(t, maxSeen.Load(), int32(2))
	assert.Equal(t, int32(0), inFlight.Load())
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []batch.Outcome
}

func (o *recordingObserver) JobFinished(out batch.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, out)
}

func TestRunNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	res := batch.New(registry(
		&fakeExtractor{src: records.SourceABN, n: map[string]int{"5000": 1}},
		&fakeExtractor{src: records.SourceACNC, failOn: map[string]bool{"5000": true}},
		&fakeExtractor{src: records.SourceNSW},
	), batch.WithObserver(obs)).Run(context.Background(), "SA", []string{"5000"})

	assert.Len(t, obs.seen, res.Jobs)
	failed := 0
	for _, o := range obs.seen {
		if o.Err != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestRunEmpty(t *testing.T) {
	res := batch.New(sources.NewRegistry()).Run(context.Background(), "TAS", nil)
	assert.Equal(t, 0, res.Jobs)
	assert.Equal(t, 0, res.Stats.TotalPostcodes)
	assert.NotNil(t, res.Stats.FailedPostcodes)
}

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, 5, batch.DefaultConfig().Concurrency)
}
