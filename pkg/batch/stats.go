package batch

import (
	"slices"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// PostcodeCounts holds record counts for one postcode.
type PostcodeCounts struct {
	ABN   int `json:"abn"`
	ACNC  int `json:"acnc"`
	NSW   int `json:"nsw"`
	Total int `json:"total"`
}

// PostcodeStats summarises a batch. A postcode is failed when any of its jobs
// failed and processed when it produced at least one record; it can be both.
type PostcodeStats struct {
	TotalPostcodes     int                        `json:"total_postcodes"`
	ProcessedPostcodes int                        `json:"processed_postcodes"`
	FailedPostcodes    []string                   `json:"failed_postcodes"`
	ByPostcode         map[string]*PostcodeCounts `json:"by_postcode"`
}

func newPostcodeStats(postcodes []string) PostcodeStats {
	stats := PostcodeStats{
		FailedPostcodes: []string{},
		ByPostcode:      make(map[string]*PostcodeCounts, len(postcodes)),
	}
	for _, pc := range postcodes {
		stats.ByPostcode[pc] = &PostcodeCounts{}
	}
	stats.TotalPostcodes = len(stats.ByPostcode)
	return stats
}

func (s *PostcodeStats) record(postcode string, src records.Source, n int) {
	counts, ok := s.ByPostcode[postcode]
	if !ok {
		counts = &PostcodeCounts{}
		s.ByPostcode[postcode] = counts
	}
	switch src {
	case records.SourceABN:
		counts.ABN = n
	case records.SourceACNC:
		counts.ACNC = n
	case records.SourceNSW:
		counts.NSW = n
	}
	counts.Total = counts.ABN + counts.ACNC + counts.NSW
}

func (s *PostcodeStats) markFailed(postcode string) {
	if !slices.Contains(s.FailedPostcodes, postcode) {
		s.FailedPostcodes = append(s.FailedPostcodes, postcode)
	}
}

func (s *PostcodeStats) finalize(postcodes []string) {
	seen := make(map[string]struct{}, len(postcodes))
	s.ProcessedPostcodes = 0
	for _, pc := range postcodes {
		if _, dup := seen[pc]; dup {
			continue
		}
		seen[pc] = struct{}{}
		if c, ok := s.ByPostcode[pc]; ok && c.Total > 0 {
			s.ProcessedPostcodes++
		}
	}
}

// Failed reports whether any job for postcode failed.
func (s PostcodeStats) Failed(postcode string) bool {
	return slices.Contains(s.FailedPostcodes, postcode)
}
