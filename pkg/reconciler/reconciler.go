// Package reconciler merges records from the business, charity and
// associations registers into canonical organisations.
//
// Merge is a pure function. It runs three passes over its inputs:
//
//  1. business register records, enriched with the charity record sharing
//     the ABN and, through the charity legal name, the association record;
//  2. charity records whose ABN was not seen in pass 1, enriched with an
//     association record by legal name;
//  3. association records whose name was not consumed by passes 1 or 2.
//
// Lookups built over the inputs keep the last record for a repeated key.
// Iteration keeps the first record for a repeated key.
package reconciler

import (
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
)

// merge holds the lookups and tracking sets for one Merge call.
type merge struct {
	abn  []records.ABN
	acnc []records.ACNC
	nsw  []records.NSW

	acncByID  map[string]records.ACNC
	nswByName map[string]records.NSW

	processedIDs  map[string]struct{}
	consumedNames map[string]struct{}

	at     time.Time
	result *Result
}

// Merge reconciles the three registries' records into canonical organisations.
func Merge(abn []records.ABN, acnc []records.ACNC, nsw []records.NSW, opts ...Option) *Result {
	o := newOptions(opts...)
	started := time.Now()

	m := &merge{
		abn:           abn,
		acnc:          acnc,
		nsw:           nsw,
		processedIDs:  make(map[string]struct{}),
		consumedNames: make(map[string]struct{}),
		at:            o.clock(),
		result: &Result{
			Records: make([]records.Organisation, 0, len(abn)+len(acnc)+len(nsw)),
			Statistics: Statistics{
				TotalABNRecords:  len(abn),
				TotalACNCRecords: len(acnc),
				TotalNSWRecords:  len(nsw),
			},
		},
	}
	m.index()

	m.result.Metadata.PrimaryPass = m.primaryPass()
	m.result.Metadata.SecondaryPass = m.secondaryPass()
	m.result.Metadata.TertiaryPass = m.tertiaryPass()

	m.result.Statistics.MergedRecords = len(m.result.Records)
	m.result.Metadata.MergedAt = m.at
	m.result.Metadata.Duration = time.Since(started)
	return m.result
}

// MergeSet is Merge over a collected record set.
func MergeSet(set records.Set, opts ...Option) *Result {
	return Merge(set.ABN, set.ACNC, set.NSW, opts...)
}

func (m *merge) index() {
	m.acncByID = make(map[string]records.ACNC, len(m.acnc))
	for _, r := range m.acnc {
		if r.ABN != "" {
			m.acncByID[r.ABN] = r
		}
	}

	m.nswByName = make(map[string]records.NSW, len(m.nsw))
	for _, r := range m.nsw {
		if name := records.NormalizeName(r.Name); name != "" {
			m.nswByName[name] = r
		}
	}
}

// matchNSW merges the association record registered under legalName, if
// any and not already consumed.
func (m *merge) matchNSW(org *records.Organisation, legalName string) bool {
	name := records.NormalizeName(legalName)
	if name == "" {
		return false
	}
	if _, consumed := m.consumedNames[name]; consumed {
		return false
	}
	match, ok := m.nswByName[name]
	if !ok {
		return false
	}
	org.WithNSW(match)
	m.consumedNames[name] = struct{}{}
	m.result.Statistics.ACNCNSWMatches++
	return true
}

func (m *merge) primaryPass() int {
	stats := &m.result.Statistics
	emitted := 0
	for _, r := range m.abn {
		if r.ABN == "" {
			continue
		}
		if _, seen := m.processedIDs[r.ABN]; seen {
			continue
		}
		m.processedIDs[r.ABN] = struct{}{}

		org := records.FromABN(r, m.at)
		if charity, ok := m.acncByID[r.ABN]; ok {
			org.WithACNC(charity)
			stats.ABNACNCMatches++
			m.matchNSW(&org, charity.LegalName)
		}

		switch {
		case org.Has(records.SourceACNC) && org.Has(records.SourceNSW):
			stats.AllSourceMatches++
		case len(org.Sources) == 1:
			stats.ABNOnly++
		}

		m.result.Records = append(m.result.Records, org)
		emitted++
	}
	return emitted
}

func (m *merge) secondaryPass() int {
	stats := &m.result.Statistics
	emitted := 0
	for _, r := range m.acnc {
		if r.ABN == "" {
			continue
		}
		if _, seen := m.processedIDs[r.ABN]; seen {
			continue
		}
		m.processedIDs[r.ABN] = struct{}{}

		org := records.FromACNC(r, m.at)
		if !m.matchNSW(&org, r.LegalName) {
			stats.ACNCOnly++
		}

		m.result.Records = append(m.result.Records, org)
		emitted++
	}
	return emitted
}

func (m *merge) tertiaryPass() int {
	emitted := 0
	for _, r := range m.nsw {
		// Only a missing name is skipped; a blank one normalises to "" and
		// is emitted once.
		if r.Name == "" {
			continue
		}
		name := records.NormalizeName(r.Name)
		if _, consumed := m.consumedNames[name]; consumed {
			continue
		}
		m.consumedNames[name] = struct{}{}

		m.result.Records = append(m.result.Records, records.FromNSW(r, m.at))
		m.result.Statistics.NSWOnly++
		emitted++
	}
	return emitted
}
