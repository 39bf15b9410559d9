// Package metrics exposes Prometheus instrumentation for extraction jobs,
// syncs, sinks and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/batch"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/reconciler"
)

const namespace = "orgsync"

// Metrics holds the collectors. It is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	jobs           *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	extracted      *prometheus.CounterVec
	syncs          *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	merged         *prometheus.GaugeVec
	matches        *prometheus.GaugeVec
	sinkUpserts    *prometheus.CounterVec
	sinkFailures   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	failedPostcode *prometheus.GaugeVec
}

var _ batch.Observer = (*Metrics)(nil)

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	f.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "service_info",
		Help:      "Service identity.",
	}, []string{"service"}).WithLabelValues(constants.ServiceName).Set(1)

	return &Metrics{
		registry: reg,
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_jobs_total",
			Help:      "Extraction jobs by source and result.",
		}, []string{"source", "result"}),
		jobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_job_duration_seconds",
			Help:      "Extraction job duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"source"}),
		extracted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Raw records returned by extractors.",
		}, []string{"source"}),
		syncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "syncs_total",
			Help:      "Sync requests by kind and result.",
		}, []string{"kind", "result"}),
		syncDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Sync duration including extraction, merge and loading.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),
		merged: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merged_records",
			Help:      "Merged records produced by the last bulk sync of a state.",
		}, []string{"state"}),
		matches: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merge_matches",
			Help:      "Cross-registry matches in the last bulk sync of a state.",
		}, []string{"state", "match"}),
		failedPostcode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_postcodes",
			Help:      "Postcodes with at least one failed job in the last bulk sync of a state.",
		}, []string{"state"}),
		sinkUpserts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_upserts_total",
			Help:      "Organisations upserted per sink.",
		}, []string{"sink"}),
		sinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Failed sink loads.",
		}, []string{"sink"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by kind and result.",
		}, []string{"kind", "result"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobFinished implements batch.Observer.
func (m *Metrics) JobFinished(o batch.Outcome) {
	src := o.Job.Source.String()
	m.jobDuration.WithLabelValues(src).Observe(o.Duration.Seconds())
	if o.Err != nil {
		m.jobs.WithLabelValues(src, "failure").Inc()
		return
	}
	m.jobs.WithLabelValues(src, "success").Inc()
	m.extracted.WithLabelValues(src).Add(float64(o.Records.Count(o.Job.Source)))
}

// ObserveSync records a finished sync of the given kind ("all" or a source
// name).
func (m *Metrics) ObserveSync(kind string, d time.Duration, err error) {
	m.syncs.WithLabelValues(kind, result(err)).Inc()
	m.syncDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveCache records a response cache lookup.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	r := "miss"
	if hit {
		r = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, r).Inc()
}

// ObserveBatch records the outcome of a bulk sync for state.
func (m *Metrics) ObserveBatch(state string, stats batch.PostcodeStats, merge reconciler.Statistics) {
	m.merged.WithLabelValues(state).Set(float64(merge.MergedRecords))
	m.matches.WithLabelValues(state, "abn_acnc").Set(float64(merge.ABNACNCMatches))
	m.matches.WithLabelValues(state, "acnc_nsw").Set(float64(merge.ACNCNSWMatches))
	m.matches.WithLabelValues(state, "all").Set(float64(merge.AllSourceMatches))
	m.failedPostcode.WithLabelValues(state).Set(float64(len(stats.FailedPostcodes)))
}

// ObserveSinks records sink load results.
func (m *Metrics) ObserveSinks(results []sinks.Result) {
	for _, r := range results {
		if r.Error != "" {
			m.sinkFailures.WithLabelValues(r.Sink).Inc()
			continue
		}
		m.sinkUpserts.WithLabelValues(r.Sink).Add(float64(r.Upserted))
	}
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
