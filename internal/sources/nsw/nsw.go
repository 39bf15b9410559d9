// Package nsw scrapes incorporated associations from the NSW Fair Trading
// associations register.
//
// The register is an ASP.NET WebForms site: a search is a form postback with
// the advanced search fields set, and each further page is another postback
// whose target is read from the next-page link.
package nsw

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/transport"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

const (
	// DefaultBaseURL is the register search page.
	DefaultBaseURL = "https://applications.fairtrading.nsw.gov.au/assocregister/"

	// DefaultStatus is searched when no other criteria are given.
	DefaultStatus = "Active"

	fieldPrefix   = "ctl00$MainArea$AdvancedSearchSection$"
	searchButton  = fieldPrefix + "AdvancedSearchButton"
	detailsPath   = "PublicRegisterDetails.aspx"
	eventTarget   = "__EVENTTARGET"
	eventArgument = "__EVENTARGUMENT"
)

// Query holds the advanced search criteria. Empty fields are left as the
// form serves them.
type Query struct {
	OrganisationName   string
	OrganisationNumber string
	OrganisationType   string
	Suburb             string
	Postcode           string
	Status             string
}

// IsZero reports whether no criteria are set.
func (q Query) IsZero() bool {
	return q == Query{}
}

func (q Query) apply(fields map[string]string) {
	set := func(name, v string) {
		if v != "" {
			fields[fieldPrefix+name] = v
		}
	}
	set("Organisationname", q.OrganisationName)
	set("Organisationnumber", q.OrganisationNumber)
	set("Organisationtype", q.OrganisationType)
	set("Suburb", q.Suburb)
	set("Postcode", q.Postcode)
	set("Organisationstatus", q.Status)
}

// Client scrapes the register. A Client keeps one session and is not meant
// to run concurrent searches; create one per extractor.
type Client struct {
	http    *transport.Client
	baseURL string
	delay   time.Duration
}

var _ sources.Extractor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the register URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithDelay sets the pause between result pages.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithTransport replaces the HTTP client. It must keep cookies.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) { c.http = t }
}

// New creates a register client.
func New(opts ...Option) *Client {
	c := &Client{
		http:    transport.New(string(records.SourceNSW), transport.WithCookies()),
		baseURL: DefaultBaseURL,
		delay:   constants.NSWRequestDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source implements sources.Extractor.
func (c *Client) Source() records.Source { return records.SourceNSW }

// Extract implements sources.Extractor. The register only holds NSW
// associations, so the filter's state is not sent.
func (c *Client) Extract(ctx context.Context, filter sources.Filter) (records.Set, error) {
	orgs, err := c.Search(ctx, Query{
		Suburb:   filter.TownCity,
		Postcode: filter.Postcode,
		Status:   filter.Status,
	}, filter.MaxRecords)
	if err != nil {
		return records.Set{}, err
	}
	return records.Set{NSW: orgs}, nil
}

// Search runs an advanced search and follows every result page. An empty
// query searches active associations. max caps the results (0 is unlimited).
func (c *Client) Search(ctx context.Context, q Query, max int) ([]records.NSW, error) {
	if q.IsZero() {
		q.Status = DefaultStatus
	}
	logger := logging.FromContext(ctx).With().Str("source", "nsw").Logger()
	limiter := rate.NewLimiter(rate.Every(c.delay), 1)

	landing, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := landing.formFields()
	if err != nil {
		return nil, err
	}
	q.apply(fields)
	fields[eventTarget] = searchButton
	fields[eventArgument] = ""

	current, err := c.post(ctx, fields)
	if err != nil {
		return nil, err
	}
	// Consume the initial token so the first follow-up page is paced.
	limiter.Allow()

	all := current.results()
	logger.Debug().Int("page", 1).Int("results", len(all)).Msg("Fetched register page")

	for pageNum := 2; ; pageNum++ {
		if max > 0 && len(all) >= max {
			return all[:max], nil
		}
		target := current.nextTarget()
		if target == "" {
			break
		}
		fields, err := current.formFields()
		if err != nil {
			return nil, err
		}
		fields[eventTarget] = target
		fields[eventArgument] = ""

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		next, err := c.post(ctx, fields)
		if err != nil {
			return nil, err
		}
		results := next.results()
		if len(results) == 0 {
			break
		}
		all = append(all, results...)
		logger.Debug().Int("page", pageNum).Int("results", len(results)).Int("total", len(all)).Msg("Fetched register page")
		current = next
	}
	if max > 0 && len(all) > max {
		all = all[:max]
	}
	return all, nil
}

// Details fetches the label/value pairs of an association's details page.
func (c *Client) Details(ctx context.Context, organisationID string) (map[string]string, error) {
	u, err := url.JoinPath(c.baseURL, detailsPath)
	if err != nil {
		return nil, err
	}
	body, err := c.http.Get(ctx, u, url.Values{"Organisationid": {organisationID}})
	if err != nil {
		return nil, err
	}
	p, err := parsePage(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return p.details()
}

func (c *Client) get(ctx context.Context) (*page, error) {
	body, err := c.http.Get(ctx, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	return parsePage(bytes.NewReader(body))
}

func (c *Client) post(ctx context.Context, fields map[string]string) (*page, error) {
	form := make(url.Values, len(fields))
	for k, v := range fields {
		form.Set(k, v)
	}
	body, err := c.http.PostForm(ctx, c.baseURL, form)
	if err != nil {
		return nil, err
	}
	return parsePage(bytes.NewReader(body))
}
