// Package batch fans extraction jobs out over a bounded worker pool and
// collects their results for reconciliation.
//
// A batch runs one job per (source, postcode) pair. Jobs are independent: a
// failing or panicking job is recorded and never cancels its siblings. Every
// outcome travels over one channel to a single collector, and the batch result
// is only returned after the pool and the collector have both finished.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// Job is the unit of scheduling.
type Job struct {
	Source   records.Source `json:"source"`
	State    string         `json:"state"`
	Postcode string         `json:"postcode"`
}

// String returns "source/state/postcode".
func (j Job) String() string {
	return fmt.Sprintf("%s/%s/%s", j.Source, j.State, j.Postcode)
}

// Outcome is the result of one job: records on success, Err on failure.
type Outcome struct {
	Job      Job
	Records  records.Set
	Err      error
	Duration time.Duration
}

// Failure records a job that did not produce records.
type Failure struct {
	Job Job   `json:"job"`
	Err error `json:"-"`
}

// Observer is notified as each job finishes. Calls come from the collector
// goroutine only.
type Observer interface {
	JobFinished(o Outcome)
}

// Result is the fan-in of a batch.
type Result struct {
	// Records holds each source's records concatenated in completion order.
	Records records.Set

	// Stats summarises the batch per postcode.
	Stats PostcodeStats

	// Failures lists failed jobs in completion order.
	Failures []Failure

	Jobs     int
	Duration time.Duration
}

// Scheduler runs batches against a registry of extractors.
type Scheduler struct {
	registry *sources.Registry
	config   Config
}

// New creates a scheduler.
func New(registry *sources.Registry, opts ...Option) *Scheduler {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Scheduler{registry: registry, config: cfg}
}

// Jobs expands postcodes into one job per source, postcode-major. Repeated
// postcodes are scheduled once.
func Jobs(state string, postcodes []string) []Job {
	seen := make(map[string]struct{}, len(postcodes))
	jobs := make([]Job, 0, len(postcodes)*len(records.Sources()))
	for _, pc := range postcodes {
		if _, dup := seen[pc]; dup {
			continue
		}
		seen[pc] = struct{}{}
		for _, src := range records.Sources() {
			jobs = append(jobs, Job{Source: src, State: state, Postcode: pc})
		}
	}
	return jobs
}

// Run executes every job for the postcodes and blocks until all have
// completed or failed. It never returns early: a canceled context is passed
// to extractors, whose failures are recorded like any other.
func (s *Scheduler) Run(ctx context.Context, state string, postcodes []string) *Result {
	started := time.Now()
	jobs := Jobs(state, postcodes)
	logger := logging.FromContext(ctx)
	logger.Info().
		Str("state", state).
		Int("postcodes", len(postcodes)).
		Int("jobs", len(jobs)).
		Int("concurrency", s.config.Concurrency).
		Msg("Starting extraction batch")

	res := &Result{Stats: newPostcodeStats(postcodes), Jobs: len(jobs)}

	outcomes := make(chan Outcome, s.config.Concurrency)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for o := range outcomes {
			res.collect(o)
			if s.config.Observer != nil {
				s.config.Observer.JobFinished(o)
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(s.config.Concurrency)
	for _, job := range jobs {
		p.Go(func() {
			outcomes <- s.execute(ctx, job)
		})
	}

	// Join barrier: all jobs have sent, then the collector drains.
	p.Wait()
	close(outcomes)
	<-collected

	res.Stats.finalize(postcodes)
	res.Duration = time.Since(started)

	logger.Info().
		Str("state", state).
		Int("abn", len(res.Records.ABN)).
		Int("acnc", len(res.Records.ACNC)).
		Int("nsw", len(res.Records.NSW)).
		Int("failed_jobs", len(res.Failures)).
		Dur("duration", res.Duration).
		Msg("Extraction batch complete")
	return res
}

func (s *Scheduler) execute(ctx context.Context, job Job) Outcome {
	ctx = logging.WithSource(ctx, job.Source.String())
	ctx = logging.WithPostcode(ctx, job.Postcode)
	logger := logging.FromContext(ctx)
	started := time.Now()

	var (
		set records.Set
		err error
	)
	ex, ok := s.registry.Get(job.Source)
	if !ok {
		err = fmt.Errorf("no extractor registered")
	} else {
		var pc panics.Catcher
		pc.Try(func() {
			set, err = ex.Extract(ctx, sources.Filter{State: job.State, Postcode: job.Postcode})
		})
		if r := pc.Recovered(); r != nil {
			set, err = records.Set{}, r.AsError()
		}
	}

	out := Outcome{Job: job, Duration: time.Since(started)}
	if err != nil {
		out.Err = errors.NewSourceUnavailableError(job.Source.String(), job.State, job.Postcode, err)
		logger.Warn().Err(err).Dur("duration", out.Duration).Msg("Extraction failed")
		return out
	}

	// Keep only the job's own source so one extractor cannot leak records
	// into another source's sequence.
	switch job.Source {
	case records.SourceABN:
		out.Records.ABN = set.ABN
	case records.SourceACNC:
		out.Records.ACNC = set.ACNC
	case records.SourceNSW:
		out.Records.NSW = set.NSW
	}
	logger.Debug().Int("records", out.Records.Len()).Dur("duration", out.Duration).Msg("Extraction complete")
	return out
}

// collect folds one outcome into the result. Only the collector calls it.
func (r *Result) collect(o Outcome) {
	if o.Err != nil {
		r.Failures = append(r.Failures, Failure{Job: o.Job, Err: o.Err})
		r.Stats.markFailed(o.Job.Postcode)
		return
	}
	r.Records.Append(o.Records)
	r.Stats.record(o.Job.Postcode, o.Job.Source, o.Records.Count(o.Job.Source))
}

// Errors returns the failure errors in completion order.
func (r *Result) Errors() []error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Run is shorthand for New(registry, opts...).Run(ctx, state, postcodes).
func Run(ctx context.Context, registry *sources.Registry, state string, postcodes []string, opts ...Option) *Result {
	return New(registry, opts...).Run(ctx, state, postcodes)
}
