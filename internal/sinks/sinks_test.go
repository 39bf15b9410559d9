package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

type stubSink struct {
	name string
	err  error
	got  []records.Organisation
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Upsert(_ context.Context, orgs []records.Organisation) (Result, error) {
	s.got = orgs
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{Upserted: len(orgs)}, nil
}

func TestToRow(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("AEST", 10*3600))
	org := records.FromACNC(records.ACNC{ABN: "22", LegalName: "Gamma"}, at)
	org.WithNSW(records.NSW{Name: "Gamma"})

	row, err := ToRow(org)
	require.NoError(t, err)
	assert.Equal(t, "22", row.Key)
	assert.Equal(t, "22", row.ABN)
	assert.Equal(t, "Gamma", row.Name)
	assert.Equal(t, "acnc,nsw", row.Sources)
	assert.Equal(t, time.UTC, row.UpdatedAt.Location())

	var flat map[string]any
	require.NoError(t, json.Unmarshal(row.Data, &flat))
	assert.Equal(t, "Gamma", flat["nsw_name"])
}

func TestDedupe(t *testing.T) {
	at := time.Now()
	in := []records.Organisation{
		records.FromABN(records.ABN{ABN: "1", EntityStatus: "old"}, at),
		records.FromNSW(records.NSW{Name: "x"}, at),
		records.FromABN(records.ABN{ABN: "1", EntityStatus: "new"}, at),
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].ABN.EntityStatus)
	assert.Equal(t, "name:X", out[1].Key())
}

func TestUpsertAllContinuesPastFailures(t *testing.T) {
	bad := &stubSink{name: "bad", err: errors.New("connection refused")}
	good := &stubSink{name: "good"}
	orgs := []records.Organisation{records.FromABN(records.ABN{ABN: "1"}, time.Now())}

	results := UpsertAll(context.Background(), []Sink{bad, good}, orgs)
	require.Len(t, results, 2)
	assert.Equal(t, "bad", results[0].Sink)
	assert.Equal(t, "connection refused", results[0].Error)
	assert.Equal(t, "good", results[1].Sink)
	assert.Equal(t, 1, results[1].Upserted)
	assert.Len(t, good.got, 1)
}
