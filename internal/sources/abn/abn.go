// Package abn extracts charity entities from the Australian Business Register
// through the ABR XML search web services.
//
// A postcode search lists the ABNs of charities registered there, then each
// ABN's full entity is fetched with bounded concurrency. Only entities whose
// main business address is in the requested state and postcode are kept.
package abn

import (
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/transport"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

const (
	// DefaultBaseURL is the ABR XML search service.
	DefaultBaseURL = "https://abr.business.gov.au/ABRXMLSearch/AbrXmlSearch.asmx/"

	// Namespace of ABR XML search payloads.
	Namespace = "http://abr.business.gov.au/ABRXMLSearch/"

	// Default search location when a filter gives none.
	DefaultState    = "NSW"
	DefaultPostcode = "2000"

	searchByCharity = "SearchByCharity"
	searchByABN     = "SearchByABNv201408"
	guidParam       = "authenticationGuid"
)

// Client queries the ABR.
type Client struct {
	http        *transport.Client
	guid        string
	baseURL     string
	windows     []Window
	now         func() time.Time
	backoff     time.Duration
	maxRetries  int
	concurrency int
	lookupEvery time.Duration
}

var _ sources.Extractor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithMaintenanceWindows replaces the known outage windows.
func WithMaintenanceWindows(windows ...Window) Option {
	return func(c *Client) { c.windows = windows }
}

// WithClock sets the time source used for maintenance checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithBackoff sets the base retry backoff. Attempt n waits backoff * 2^n.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithConcurrency bounds concurrent entity lookups.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLookupInterval sets the minimum spacing between entity lookups.
func WithLookupInterval(d time.Duration) Option {
	return func(c *Client) { c.lookupEvery = d }
}

// WithTransport replaces the HTTP client. The GUID is applied on top.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) { c.http = t }
}

// New creates an ABR client authenticated with guid.
func New(guid string, opts ...Option) *Client {
	c := &Client{
		guid:        guid,
		baseURL:     DefaultBaseURL,
		windows:     DefaultMaintenanceWindows,
		now:         time.Now,
		backoff:     constants.RetryBackoff,
		maxRetries:  constants.MaxRetries,
		concurrency: constants.MaxConcurrentLookups,
		lookupEvery: constants.ABNLookupDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = transport.New(string(records.SourceABN),
			transport.WithAuth(transport.QueryAuth{Param: guidParam, Value: guid}))
	}
	return c
}

// Source implements sources.Extractor.
func (c *Client) Source() records.Source { return records.SourceABN }

// Extract implements sources.Extractor. A filter without state or postcode
// searches the default location.
func (c *Client) Extract(ctx context.Context, filter sources.Filter) (records.Set, error) {
	state, postcode := filter.State, filter.Postcode
	if state == "" || postcode == "" {
		state = firstNonEmpty(state, DefaultState)
		postcode = firstNonEmpty(postcode, DefaultPostcode)
	}
	entities, err := c.SearchCharities(ctx, state, postcode, filter.MaxRecords)
	if err != nil {
		return records.Set{}, err
	}
	return records.Set{ABN: entities}, nil
}

// SearchCharities returns the charities whose main business address is in
// state and postcode. maxABNs caps how many listed ABNs are looked up (0 is
// unlimited). Lookups that fail are logged and skipped.
func (c *Client) SearchCharities(ctx context.Context, state, postcode string, maxABNs int) ([]records.ABN, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx).With().Str("source", "abn").Str("postcode", postcode).Logger()

	abns, err := c.charityABNs(ctx, postcode)
	if err != nil {
		return nil, err
	}
	if maxABNs > 0 && len(abns) > maxABNs {
		abns = abns[:maxABNs]
	}
	logger.Debug().Int("abns", len(abns)).Msg("Listed charity ABNs")

	found := make([]*records.ABN, len(abns))
	limiter := rate.NewLimiter(rate.Every(c.lookupEvery), 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range abns {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			entity, err := c.entity(gctx, id)
			if err != nil {
				logger.Warn().Err(err).Str("abn", id).Msg("Entity lookup failed")
				return nil
			}
			if entity == nil || !locatedIn(entity, state, postcode) {
				return nil
			}
			r := toRecord(entity)
			found[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]records.ABN, 0, len(found))
	for _, r := range found {
		if r != nil {
			out = append(out, *r)
		}
	}
	logger.Debug().Int("charities", len(out)).Msg("Charity search complete")
	return out, nil
}

// Lookup returns the register entry for one ABN, or an errors.NotFoundError
// when the register has no entity for it.
func (c *Client) Lookup(ctx context.Context, abn string) (*records.ABN, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	entity, err := c.entity(ctx, abn)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, errors.NewNotFoundError("ABN", abn)
	}
	r := toRecord(entity)
	return &r, nil
}

func (c *Client) ready() error {
	if c.guid == "" {
		return errors.NewConfigError("abn", "PRIVATE_ABN_SEARCH_GUID is not set", nil)
	}
	return checkMaintenance(c.windows, c.now())
}

func (c *Client) charityABNs(ctx context.Context, postcode string) ([]string, error) {
	body, err := c.call(ctx, searchByCharity, url.Values{
		"postcode":           {postcode},
		"state":              {""},
		"charityTypeCode":    {""},
		"concessionTypeCode": {""},
	})
	if err != nil {
		return nil, err
	}
	root, err := parseXML(body)
	if err != nil {
		return nil, err
	}
	var abns []string
	for _, n := range root.findAll("abn") {
		if v := strings.TrimSpace(n.text); v != "" {
			abns = append(abns, v)
		}
	}
	return abns, nil
}

// entity returns the businessEntity201408 payload for abn, or nil when the
// register answered without one.
func (c *Client) entity(ctx context.Context, abn string) (map[string]any, error) {
	body, err := c.call(ctx, searchByABN, url.Values{
		"searchString":             {abn},
		"includeHistoricalDetails": {"N"},
	})
	if err != nil {
		return nil, err
	}
	root, err := parseXML(body)
	if err != nil {
		return nil, err
	}
	be := root.find("businessEntity201408")
	if be == nil {
		return nil, nil
	}
	m, _ := be.value().(map[string]any)
	return m, nil
}

// call performs a service operation, retrying transport failures and server
// errors with exponential backoff.
func (c *Client) call(ctx context.Context, op string, query url.Values) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries {
		body, err := c.http.Get(ctx, c.baseURL+op, query)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries-1 {
			break
		}
		wait := c.backoff * time.Duration(1<<attempt)
		logging.FromContext(ctx).Debug().Err(err).Str("operation", op).Int("attempt", attempt+1).Dur("backoff", wait).Msg("Retrying ABR call")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 0 || apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}

func locatedIn(entity map[string]any, state, postcode string) bool {
	addr := path(entity, "mainBusinessPhysicalAddress")
	return strings.EqualFold(pathString(addr, "stateCode"), state) &&
		pathString(addr, "postcode") == postcode
}

func toRecord(be map[string]any) records.ABN {
	return records.ABN{
		ABN:                         pathString(be, "ABN", "identifierValue"),
		IsCurrent:                   pathString(be, "ABN", "isCurrentIndicator"),
		ReplacedFrom:                pathString(be, "ABN", "replacedFrom"),
		EntityStatus:                pathString(be, "entityStatus", "entityStatusCode"),
		EffectiveFrom:               pathString(be, "entityStatus", "effectiveFrom"),
		EffectiveTo:                 pathString(be, "entityStatus", "effectiveTo"),
		EntityTypeCode:              pathString(be, "entityType", "entityTypeCode"),
		EntityTypeDescription:       pathString(be, "entityType", "entityDescription"),
		ANCStatus:                   pathString(be, "ACNCRegistration", "status"),
		ACNCStatusFrom:              pathString(be, "ACNCRegistration", "effectiveFrom"),
		ACNCStatusTo:                pathString(be, "ACNCRegistration", "effectiveTo"),
		RecordLastUpdated:           pathString(be, "recordLastUpdatedDate"),
		GST:                         jsonText(be["goodsAndServicesTax"]),
		DGR:                         jsonText(be["dgrEndorsement"]),
		MainTradingNames:            jsonText(be["mainTradingName"]),
		OtherTradingNames:           jsonText(be["otherTradingName"]),
		MainBusinessPhysicalAddress: jsonText(be["mainBusinessPhysicalAddress"]),
		TaxConcessionEndorsements:   jsonText(be["taxConcessionCharityEndorsement"]),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// DefaultPostcodeFor returns the capital city postcode searched for a state
// when no postcode is given.
func DefaultPostcodeFor(state string) string {
	switch strings.ToUpper(state) {
	case "VIC":
		return "3000"
	case "QLD":
		return "4000"
	case "SA":
		return "5000"
	case "WA":
		return "6000"
	case "TAS":
		return "7000"
	case "NT":
		return "0800"
	case "ACT":
		return "2600"
	}
	return DefaultPostcode
}
