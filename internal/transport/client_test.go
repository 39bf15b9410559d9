package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
)

func TestQueryAuth(t *testing.T) {
	reqURL, _ := url.Parse("https://example.com/search?postcode=2000")
	req := &http.Request{URL: reqURL, Header: make(http.Header)}

	QueryAuth{Param: "authenticationGuid", Value: "guid"}.Apply(req)

	assert.Equal(t, "guid", req.URL.Query().Get("authenticationGuid"))
	assert.Equal(t, "2000", req.URL.Query().Get("postcode"))

	// Empty param is a no-op.
	QueryAuth{Value: "x"}.Apply(req)
	assert.Len(t, req.URL.Query(), 2)
}

func TestNoAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	NoAuth{}.Apply(req)
	assert.Empty(t, req.Header)
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2000", r.URL.Query().Get("postcode"))
		assert.Equal(t, "secret", r.URL.Query().Get("guid"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Contains(t, r.UserAgent(), "orgs-sveltekit-etl")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New("abn", WithAuth(QueryAuth{Param: "guid", Value: "secret"}), WithTimeout(time.Second))
	assert.Equal(t, "abn", c.Source())

	var out struct {
		OK bool `json:"ok"`
	}
	err := c.GetJSON(context.Background(), srv.URL+"/search?page=1", url.Values{"postcode": {"2000"}}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
		rateLimited bool
	}{
		{"server error", http.StatusBadGateway, true, false},
		{"rate limited", http.StatusTooManyRequests, false, true},
		{"client error", http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := New("acnc").Get(context.Background(), srv.URL, nil)
			require.Error(t, err)
			var apiErr *errors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "acnc", apiErr.Source)
			assert.Equal(t, tt.unavailable, errors.IsSourceUnavailable(err))
			assert.Equal(t, tt.rateLimited, errors.IsRateLimited(err))
		})
	}
}

func TestClientBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New("acnc").GetJSON(context.Background(), srv.URL, nil, &out)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClientPostFormKeepsCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "abc"})
			return
		}
		assert.NoError(t, r.ParseForm())
		if cookie, err := r.Cookie("ASP.NET_SessionId"); assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}
		assert.Equal(t, "Search", r.PostForm.Get("__EVENTTARGET"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New("nsw", WithCookies())
	ctx := context.Background()
	_, err := c.Get(ctx, srv.URL, nil)
	require.NoError(t, err)

	body, err := c.PostForm(ctx, srv.URL, url.Values{"__EVENTTARGET": {"Search"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New("nsw").Get(context.Background(), addr, nil)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
}
