package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/batch"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/reconciler"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

func TestJobFinished(t *testing.T) {
	m := New()

	m.JobFinished(batch.Outcome{
		Job:      batch.Job{Source: records.SourceABN, State: "NSW", Postcode: "2000"},
		Records:  records.Set{ABN: []records.ABN{{ABN: "1"}, {ABN: "2"}}},
		Duration: time.Second,
	})
	m.JobFinished(batch.Outcome{
		Job: batch.Job{Source: records.SourceACNC, State: "NSW", Postcode: "2000"},
		Err: errors.New("boom"),
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("abn", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("acnc", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.extracted.WithLabelValues("abn")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.extracted.WithLabelValues("acnc")))
}

func TestObserveBatchAndSinks(t *testing.T) {
	m := New()
	m.ObserveBatch("NSW",
		batch.PostcodeStats{FailedPostcodes: []string{"2001", "2002"}},
		reconciler.Statistics{MergedRecords: 7, ABNACNCMatches: 3, AllSourceMatches: 1})
	m.ObserveSinks([]sinks.Result{
		{Sink: "postgres", Upserted: 7},
		{Sink: "sqlite", Error: "locked"},
	})
	m.ObserveSync("all", 2*time.Second, nil)
	m.ObserveSync("abn", time.Second, errors.New("x"))
	m.ObserveCache("all", true)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.merged.WithLabelValues("NSW")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.matches.WithLabelValues("NSW", "abn_acnc")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.failedPostcode.WithLabelValues("NSW")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.sinkUpserts.WithLabelValues("postgres")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sinkFailures.WithLabelValues("sqlite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncs.WithLabelValues("all", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncs.WithLabelValues("abn", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("all", "hit")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/health", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `orgsync_http_requests_total{code="200",method="GET",route="/api/health"} 1`)
	assert.Contains(t, string(body), `orgsync_service_info{service="orgs-sveltekit-etl"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveSync("all", time.Second, nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.syncs.WithLabelValues("all", "success")))
}
