package reconciler

import (
	"fmt"
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// Result represents the outcome of a merge.
type Result struct {
	// Records are the canonical organisations in pass order: business
	// register seeded, then charity only, then association only.
	Records []records.Organisation

	// Statistics about the merge
	Statistics Statistics

	// Metadata about the merge
	Metadata ResultMetadata
}

// Statistics counts inputs, matches and per-registry leftovers. The JSON names
// are part of the public API response.
type Statistics struct {
	TotalABNRecords  int `json:"total_abn_records"`
	TotalACNCRecords int `json:"total_acnc_records"`
	TotalNSWRecords  int `json:"total_nsw_records"`

	ABNOnly  int `json:"abn_only"`
	ACNCOnly int `json:"acnc_only"`
	NSWOnly  int `json:"nsw_only"`

	ABNACNCMatches   int `json:"abn_acnc_matches"`
	ACNCNSWMatches   int `json:"acnc_nsw_matches"`
	AllSourceMatches int `json:"all_source_matches"`

	MergedRecords int `json:"merged_records"`
}

// ResultMetadata describes how the merge ran.
type ResultMetadata struct {
	MergedAt time.Time
	Duration time.Duration

	// Records emitted by each pass.
	PrimaryPass   int
	SecondaryPass int
	TertiaryPass  int
}

// Summary returns a one-line human-readable description of the statistics.
func (s Statistics) Summary() string {
	return fmt.Sprintf("%d merged (abn=%d acnc=%d nsw=%d; abn+acnc=%d acnc+nsw=%d all=%d; only abn=%d acnc=%d nsw=%d)",
		s.MergedRecords,
		s.TotalABNRecords, s.TotalACNCRecords, s.TotalNSWRecords,
		s.ABNACNCMatches, s.ACNCNSWMatches, s.AllSourceMatches,
		s.ABNOnly, s.ACNCOnly, s.NSWOnly)
}
