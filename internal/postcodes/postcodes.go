// Package postcodes parses uploaded postcode lists and keeps them per state
// in the cache.
package postcodes

import (
	"context"
	"encoding/csv"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

// Payload is the stored form of a state's postcode list.
type Payload struct {
	State           string    `json:"state"`
	Postcodes       []string  `json:"postcodes"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	TotalPostcodes  int       `json:"total_postcodes"`
}

// Parse extracts postcodes from an uploaded file. A CSV with a "postcode"
// header column is read by that column; otherwise the first value of each
// line is used. Content that is not valid CSV is read as comma and newline
// separated values. Only all-digit values are kept, deduplicated in order of
// first appearance.
func Parse(content string) ([]string, error) {
	codes, err := parseCSV(content)
	if err != nil {
		codes = parseLoose(content)
	}
	codes = dedupe(codes)
	if len(codes) == 0 {
		return nil, errors.NewValidationError("file", nil, "No valid postcodes found in file")
	}
	return codes, nil
}

func parseCSV(content string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := slices.Index(header, "postcode")
	if col < 0 {
		return firstColumn(content), nil
	}

	var codes []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(row) {
			continue
		}
		if pc := strings.TrimSpace(row[col]); isDigits(pc) {
			codes = append(codes, pc)
		}
	}
	return codes, nil
}

func firstColumn(content string) []string {
	var codes []string
	for line := range strings.SplitSeq(strings.TrimSpace(content), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		first, _, _ := strings.Cut(line, ",")
		first = strings.Trim(strings.TrimSpace(first), `"`)
		if isDigits(first) {
			codes = append(codes, first)
		}
	}
	return codes
}

func parseLoose(content string) []string {
	var codes []string
	for v := range strings.SplitSeq(strings.ReplaceAll(content, "\n", ","), ",") {
		v = strings.Trim(strings.TrimSpace(v), `"`)
		if isDigits(v) {
			codes = append(codes, v)
		}
	}
	return codes
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, pc := range codes {
		if _, dup := seen[pc]; dup {
			continue
		}
		seen[pc] = struct{}{}
		out = append(out, pc)
	}
	return out
}

// Store keeps postcode lists in a cache. Lists do not expire.
type Store struct {
	cache cache.Store
	now   func() time.Time
}

// NewStore creates a store over c.
func NewStore(c cache.Store) *Store {
	return &Store{cache: c, now: func() time.Time { return time.Now().UTC() }}
}

// Put replaces the list for state.
func (s *Store) Put(ctx context.Context, state string, postcodes []string) (*Payload, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		return nil, errors.NewValidationError("state", state, "state is required")
	}
	codes := dedupe(postcodes)
	if len(codes) == 0 {
		return nil, errors.NewValidationError("postcodes", nil, "No valid postcodes found in file")
	}

	payload := &Payload{
		State:           state,
		Postcodes:       codes,
		UploadTimestamp: s.now(),
		TotalPostcodes:  len(codes),
	}
	if !s.cache.Set(ctx, cache.PostcodesKey(state), payload, cache.NoExpiration) {
		return nil, errors.NewIOError("write", cache.PostcodesKey(state), errors.New("cache write failed"))
	}
	return payload, nil
}

// Get returns the sorted postcodes for state, or an errors.NotFoundError when
// none have been uploaded.
func (s *Store) Get(ctx context.Context, state string) ([]string, error) {
	state = strings.ToUpper(strings.TrimSpace(state))
	var payload Payload
	found, err := s.cache.Get(ctx, cache.PostcodesKey(state), &payload)
	if err != nil {
		return nil, err
	}
	if !found || len(payload.Postcodes) == 0 {
		return nil, errors.NewNotFoundError("postcodes for state", state)
	}
	codes := slices.Clone(payload.Postcodes)
	slices.Sort(codes)
	return codes, nil
}
