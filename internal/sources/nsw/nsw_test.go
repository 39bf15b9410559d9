package nsw

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/records"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

const landingPage = `<html><body>
<form id="aspnetForm" method="post">
  <input type="hidden" name="__VIEWSTATE" value="vs1">
  <input type="text" name="ctl00$MainArea$AdvancedSearchSection$Postcode">
  <input type="submit" value="Search">
  <select name="ctl00$MainArea$AdvancedSearchSection$Organisationstatus">
    <option value="">Any</option>
    <option value="Active">Active</option>
  </select>
  <select name="ctl00$MainArea$AdvancedSearchSection$Organisationtype">
    <option value="All">All</option>
    <option value="Incorporated" selected>Incorporated</option>
  </select>
</form>
</body></html>`

func resultRow(id, name, number, status string) string {
	return fmt.Sprintf(`
<div class="row result">
  <div class="col-md-10">
    <a href="PublicRegisterDetails.aspx?Organisationid=%s">%s</a>
    <div class="row">
      <div class="col-md-6"><b>Organisation Number:</b> %s</div>
      <div class="col-md-6"><b>Organisation Type:</b> Incorporated Association</div>
    </div>
    <div class="row">
      <div class="col-md-6"><b>Date Registered:</b> 01/02/1990</div>
      <div class="col-md-6"><b>Date Removed:</b> </div>
    </div>
    <div id="ctl00_MainArea_ResultDataList_ctl0%s_RegisteredAddress">Registered Office Address: 1 George St SYDNEY NSW 2000</div>
  </div>
  <div class="col-md-2"><figure><figcaption> %s </figcaption></figure></div>
</div>`, id, name, number, id, status)
}

func resultsPage(viewState string, next bool, rows ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><form id="aspnetForm" method="post">`)
	fmt.Fprintf(&b, `<input type="hidden" name="__VIEWSTATE" value="%s">`, viewState)
	b.WriteString(`<span id="ctl00_MainArea_ResultDataList">`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</span>`)
	if next {
		b.WriteString(`<a id="ctl00_MainArea_PageNextLink" href="javascript:__doPostBack(&#39;ctl00$MainArea$PageNext&#39;,&#39;&#39;)">Next</a>`)
	}
	b.WriteString(`</form></body></html>`)
	return b.String()
}

// fakeRegister serves a landing page and three result pages; the third page
// still links onward but is empty.
type fakeRegister struct {
	mu    sync.Mutex
	posts []map[string]string
}

func (f *fakeRegister) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if strings.HasSuffix(r.URL.Path, "PublicRegisterDetails.aspx") {
			fmt.Fprintf(w, `<div class="card-body"><div class="row">
<span class="font-weight-bold">Organisation Number:</span> INC1
<span class="font-weight-bold">Status:</span><span>Registered</span>
<span class="font-weight-bold">Empty:</span>
</div></div><p>%s</p>`, r.URL.Query().Get("Organisationid"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "s1"})
		_, _ = w.Write([]byte(landingPage))
		return
	}

	_ = r.ParseForm()
	fields := make(map[string]string)
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	f.mu.Lock()
	f.posts = append(f.posts, fields)
	f.mu.Unlock()

	switch fields["__VIEWSTATE"] {
	case "vs1":
		_, _ = w.Write([]byte(resultsPage("vs2", true,
			resultRow("101", "Alpha Association Inc", "INC001", "Registered"),
			resultRow("102", "Beta Club Incorporated", "INC002", "Removed"),
		)))
	case "vs2":
		_, _ = w.Write([]byte(resultsPage("vs3", true,
			resultRow("103", "Gamma Society", "INC003", "Registered"),
		)))
	default:
		_, _ = w.Write([]byte(resultsPage("vs4", true)))
	}
}

func TestSearchFollowsPages(t *testing.T) {
	reg := &fakeRegister{}
	srv := httptest.NewServer(reg)
	defer srv.Close()

	c := New(WithBaseURL(srv.URL+"/"), WithDelay(0))
	assert.Equal(t, records.SourceNSW, c.Source())

	set, err := c.Extract(context.Background(), sources.Filter{State: "NSW", Postcode: "2000"})
	require.NoError(t, err)
	require.Len(t, set.NSW, 3)
	assert.Empty(t, set.ABN)

	alpha := set.NSW[0]
	assert.Equal(t, records.NSW{
		OrganisationNumber:      "INC001",
		Name:                    "Alpha Association Inc",
		OrganisationType:        "Incorporated Association",
		Status:                  "Registered",
		DateRegistered:          "01/02/1990",
		RegisteredOfficeAddress: "1 George St SYDNEY NSW 2000",
		OrganisationID:          "101",
	}, alpha)
	assert.Equal(t, "Removed", set.NSW[1].Status)
	assert.Equal(t, "Gamma Society", set.NSW[2].Name)

	require.Len(t, reg.posts, 3)
	search := reg.posts[0]
	assert.Equal(t, searchButton, search["__EVENTTARGET"])
	assert.Equal(t, "2000", search[fieldPrefix+"Postcode"])
	assert.Equal(t, "Incorporated", search[fieldPrefix+"Organisationtype"])
	assert.Equal(t, "", search[fieldPrefix+"Organisationstatus"])
	assert.NotContains(t, search, "", "unnamed inputs are not posted")

	assert.Equal(t, "ctl00$MainArea$PageNext", reg.posts[1]["__EVENTTARGET"])
	assert.Equal(t, "vs2", reg.posts[1]["__VIEWSTATE"])
}

func TestSearchDefaultsToActive(t *testing.T) {
	reg := &fakeRegister{}
	srv := httptest.NewServer(reg)
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL+"/"), WithDelay(0)).Search(context.Background(), Query{}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, reg.posts)
	assert.Equal(t, DefaultStatus, reg.posts[0][fieldPrefix+"Organisationstatus"])
}

func TestSearchMaxRecords(t *testing.T) {
	reg := &fakeRegister{}
	srv := httptest.NewServer(reg)
	defer srv.Close()

	got, err := New(WithBaseURL(srv.URL+"/"), WithDelay(0)).Search(context.Background(), Query{Postcode: "2000"}, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, reg.posts, 1, "no further pages once the cap is reached")
}

func TestSearchMissingForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL+"/")).Search(context.Background(), Query{}, 0)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL+"/")).Extract(context.Background(), sources.Filter{Postcode: "2000"})
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestDetails(t *testing.T) {
	srv := httptest.NewServer(&fakeRegister{})
	defer srv.Close()

	got, err := New(WithBaseURL(srv.URL+"/")).Details(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Organisation Number": "INC1",
		"Status":              "Registered",
	}, got)
}

func TestResultsWithoutList(t *testing.T) {
	p, err := parsePage(strings.NewReader(`<html><body><p>No results</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, p.results())
	assert.Empty(t, p.nextTarget())
}
