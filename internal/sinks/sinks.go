// Package sinks defines where reconciled organisations are loaded and
// provides helpers shared by the sink implementations.
package sinks

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// Table is the destination table for organisations.
const Table = "organizations"

// Sink loads organisations. Upserts are idempotent and keyed by
// records.Organisation.Key.
type Sink interface {
	Name() string
	Upsert(ctx context.Context, orgs []records.Organisation) (Result, error)
}

// Result reports one sink's load.
type Result struct {
	Sink     string        `json:"sink"`
	Upserted int           `json:"upserted"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Row is the stored form of an organisation.
type Row struct {
	Key       string
	ABN       string
	Name      string
	Sources   string
	Data      []byte
	UpdatedAt time.Time
}

// ToRow converts an organisation for storage. Data holds the flat JSON
// record.
func ToRow(org records.Organisation) (Row, error) {
	data, err := json.Marshal(org)
	if err != nil {
		return Row{}, errors.NewMergeError("encode", []string{org.Key()}, err)
	}
	srcs := make([]string, len(org.Sources))
	for i, s := range org.Sources {
		srcs[i] = s.String()
	}
	return Row{
		Key:       org.Key(),
		ABN:       org.Identifier(),
		Name:      org.Name(),
		Sources:   strings.Join(srcs, ","),
		Data:      data,
		UpdatedAt: org.UpdatedAt.UTC(),
	}, nil
}

// Dedupe keeps the last organisation per key, in first-seen key order. A
// single upsert statement cannot touch one key twice.
func Dedupe(orgs []records.Organisation) []records.Organisation {
	index := make(map[string]int, len(orgs))
	out := make([]records.Organisation, 0, len(orgs))
	for _, o := range orgs {
		k := o.Key()
		if i, ok := index[k]; ok {
			out[i] = o
			continue
		}
		index[k] = len(out)
		out = append(out, o)
	}
	return out
}

// UpsertAll loads orgs into every sink in turn. A failing sink is recorded in
// its Result and does not stop the others.
func UpsertAll(ctx context.Context, sinks []Sink, orgs []records.Organisation) []Result {
	logger := logging.FromContext(ctx)
	results := make([]Result, 0, len(sinks))
	for _, s := range sinks {
		started := time.Now()
		res, err := s.Upsert(ctx, orgs)
		res.Sink = s.Name()
		res.Duration = time.Since(started)
		if err != nil {
			res.Error = err.Error()
			logger.Error().Err(err).Str("sink", s.Name()).Msg("Sink upsert failed")
		} else {
			logger.Info().Str("sink", s.Name()).Int("upserted", res.Upserted).Dur("duration", res.Duration).Msg("Sink upsert complete")
		}
		results = append(results, res)
	}
	return results
}
