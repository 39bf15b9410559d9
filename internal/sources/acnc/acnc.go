// Package acnc extracts registered charities from the ACNC register, published
// as a CKAN datastore resource on data.gov.au.
package acnc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/transport"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

const (
	// DefaultBaseURL is the CKAN datastore search action.
	DefaultBaseURL = "https://data.gov.au/data/api/3/action/datastore_search"

	// DefaultResourceID is the ACNC charity register dataset.
	DefaultResourceID = "eb1e6be4-5b13-4feb-b28e-388bf7c26f93"
)

// StateNames maps state abbreviations to the full names the register also
// uses in its State column.
var StateNames = map[string]string{
	"NSW": "New South Wales",
	"VIC": "Victoria",
	"QLD": "Queensland",
	"SA":  "South Australia",
	"WA":  "Western Australia",
	"TAS": "Tasmania",
	"NT":  "Northern Territory",
	"ACT": "Australian Capital Territory",
}

// Client queries the register.
type Client struct {
	http       *transport.Client
	baseURL    string
	resourceID string
	pageSize   int
}

var _ sources.Extractor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the datastore endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithResourceID overrides the dataset resource.
func WithResourceID(id string) Option {
	return func(c *Client) { c.resourceID = id }
}

// WithPageSize sets the pagination limit.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTransport replaces the HTTP client.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) { c.http = t }
}

// New creates a register client.
func New(opts ...Option) *Client {
	c := &Client{
		http:       transport.New(string(records.SourceACNC)),
		baseURL:    DefaultBaseURL,
		resourceID: DefaultResourceID,
		pageSize:   constants.ACNCPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source implements sources.Extractor.
func (c *Client) Source() records.Source { return records.SourceACNC }

// Extract implements sources.Extractor.
func (c *Client) Extract(ctx context.Context, filter sources.Filter) (records.Set, error) {
	charities, err := c.Query(ctx, filter.TownCity, filter.State, filter.Postcode)
	if err != nil {
		return records.Set{}, err
	}
	if filter.MaxRecords > 0 && len(charities) > filter.MaxRecords {
		charities = charities[:filter.MaxRecords]
	}
	return records.Set{ACNC: charities}, nil
}

// Query searches every combination of the location filters: town in upper
// and title case, state as abbreviation and full name, and postcode. Results
// are deduplicated by ABN in first-seen order. A combination that fails is
// logged and skipped; the query only fails when every combination failed.
func (c *Client) Query(ctx context.Context, townCity, state, postcode string) ([]records.ACNC, error) {
	logger := logging.FromContext(ctx).With().Str("source", "acnc").Logger()

	combos := Combinations(townCity, state, postcode)
	var (
		found    []records.ACNC
		seen     = make(map[string]struct{})
		failures int
		lastErr  error
	)
	for _, filters := range combos {
		rows, err := c.search(ctx, filters)
		if err != nil {
			failures++
			lastErr = err
			logger.Warn().Err(err).Interface("filters", filters).Msg("Charity register query failed")
			continue
		}
		for _, row := range rows {
			abn := row.str("ABN")
			if abn == "" {
				continue
			}
			if _, dup := seen[abn]; dup {
				continue
			}
			seen[abn] = struct{}{}
			found = append(found, row.charity())
		}
	}
	if len(combos) > 0 && failures == len(combos) {
		return nil, lastErr
	}

	logger.Debug().Int("combinations", len(combos)).Int("charities", len(found)).Msg("Charity register query complete")
	return found, nil
}

// ByABN returns the charity registered under abn.
func (c *Client) ByABN(ctx context.Context, abn string) (*records.ACNC, error) {
	filters, err := json.Marshal(map[string]string{"ABN": abn})
	if err != nil {
		return nil, err
	}
	resp, err := c.fetch(ctx, url.Values{
		"resource_id": {c.resourceID},
		"limit":       {"1"},
		"filters":     {string(filters)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Result.Records) == 0 {
		return nil, errors.NewNotFoundError("charity", abn)
	}
	charity := resp.Result.Records[0].charity()
	return &charity, nil
}

// SearchByName runs a full-text search over the register.
func (c *Client) SearchByName(ctx context.Context, name string, limit int) ([]records.ACNC, error) {
	if limit <= 0 {
		limit = 100
	}
	resp, err := c.fetch(ctx, url.Values{
		"resource_id": {c.resourceID},
		"limit":       {strconv.Itoa(limit)},
		"q":           {name},
	})
	if err != nil {
		return nil, err
	}
	out := make([]records.ACNC, 0, len(resp.Result.Records))
	for _, row := range resp.Result.Records {
		out = append(out, row.charity())
	}
	return out, nil
}

// Combinations expands the location filters into the datastore filter
// objects to query. Empty inputs are not applied; no inputs yields nothing.
func Combinations(townCity, state, postcode string) []map[string]string {
	towns := []string{""}
	if townCity = strings.TrimSpace(townCity); townCity != "" {
		towns = distinct(strings.ToUpper(townCity), cases.Title(language.English).String(strings.ToLower(townCity)))
	}

	states := []string{""}
	if state = strings.TrimSpace(state); state != "" {
		upper := strings.ToUpper(state)
		states = distinct(upper, StateNames[upper])
	}

	postcodes := []string{""}
	if postcode = strings.TrimSpace(postcode); postcode != "" {
		postcodes = []string{strings.ToUpper(postcode)}
	}

	var combos []map[string]string
	for _, tc := range towns {
		for _, st := range states {
			for _, pc := range postcodes {
				f := make(map[string]string, 3)
				if tc != "" {
					f["Town_City"] = tc
				}
				if st != "" {
					f["State"] = st
				}
				if pc != "" {
					f["Postcode"] = pc
				}
				if len(f) > 0 {
					combos = append(combos, f)
				}
			}
		}
	}
	return combos
}

func distinct(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *Client) search(ctx context.Context, filters map[string]string) ([]row, error) {
	encoded, err := json.Marshal(filters)
	if err != nil {
		return nil, err
	}

	var rows []row
	for offset := 0; ; offset += c.pageSize {
		resp, err := c.fetch(ctx, url.Values{
			"resource_id": {c.resourceID},
			"limit":       {strconv.Itoa(c.pageSize)},
			"offset":      {strconv.Itoa(offset)},
			"filters":     {string(encoded)},
		})
		if err != nil {
			return rows, err
		}
		rows = append(rows, resp.Result.Records...)
		if len(resp.Result.Records) < c.pageSize {
			return rows, nil
		}
	}
}

func (c *Client) fetch(ctx context.Context, query url.Values) (*response, error) {
	var resp response
	if err := c.http.GetJSON(ctx, c.baseURL, query, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.NewAPIError(string(records.SourceACNC), 0, fmt.Sprintf("datastore_search failed: %s", resp.Error.Message))
	}
	return &resp, nil
}
