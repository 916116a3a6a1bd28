package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidra/evidra/internal/model"
)

// countingProvider records how many searches reached it.
type countingProvider struct {
	calls int
	fail  bool
}

func (c *countingProvider) Search(_ context.Context, query model.Query) ([]model.RawURLCandidate, error) {
	c.calls++
	if c.fail {
		return nil, fmt.Errorf("backend down")
	}
	return []model.RawURLCandidate{{
		URL:    "https://example.com/" + querySlug(query.Text),
		Title:  query.Text,
		Domain: "example.com",
	}}, nil
}

func TestMockProviderDeterministic(t *testing.T) {
	m := NewMockProvider()
	q := model.Query{
		Text:            "CRM pricing comparison",
		ExpectedDomains: []string{"zoho.com", "pipedrive.com"},
	}

	first, err := m.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := m.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
	assert.Equal(t, "zoho.com", first[0].Domain)
	assert.Contains(t, first[0].URL, "zoho.com")
}

func TestMockProviderFailSubstring(t *testing.T) {
	m := NewMockProvider()
	m.FailSubstring = "doomed"

	_, err := m.Search(context.Background(), model.Query{Text: "doomed query"})
	assert.Error(t, err)
}

func TestSearchAllCapturesFailuresPerQuery(t *testing.T) {
	m := NewMockProvider()
	m.FailSubstring = "doomed"
	queries := []model.Query{
		{Text: "zoho crm pricing", ExpectedDomains: []string{"zoho.com"}},
		{Text: "doomed query", ExpectedDomains: []string{"zoho.com"}},
		{Text: "pipedrive reviews", ExpectedDomains: []string{"pipedrive.com"}},
	}

	results := SearchAll(context.Background(), m, queries)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.NotEmpty(t, results[0].Raw)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[1].Raw)
	assert.True(t, results[2].Success)
}

func TestCachedProviderMemoizes(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)
	q := model.Query{Text: "hubspot alternatives"}

	first, err := cached.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := cached.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedProviderSkipsErrors(t *testing.T) {
	inner := &countingProvider{fail: true}
	cached := NewCachedProvider(inner, time.Minute)
	q := model.Query{Text: "hubspot alternatives"}

	_, err := cached.Search(context.Background(), q)
	require.Error(t, err)
	_, err = cached.Search(context.Background(), q)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "errors must not be cached")
}

func TestLimitedProviderDelegates(t *testing.T) {
	inner := &countingProvider{}
	limited := NewLimitedProvider(inner, 100, 5)

	raw, err := limited.Search(context.Background(), model.Query{Text: "zoho crm"})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, 1, inner.calls)
}

func TestLimitedProviderHonorsCancellation(t *testing.T) {
	inner := &countingProvider{}
	limited := NewLimitedProvider(inner, 0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())
	// drain the single burst token, then cancel so the next Wait blocks
	_, err := limited.Search(ctx, model.Query{Text: "first"})
	require.NoError(t, err)
	cancel()

	_, err = limited.Search(ctx, model.Query{Text: "second"})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestHTTPProviderParsesResponse(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"link":"https://www.zoho.com/crm/pricing/","title":"<b>Zoho CRM</b> pricing","snippet":"Compare <b>plans</b> &amp; editions","displayLink":"www.zoho.com"},
			{"link":"not-a-url","title":"junk","snippet":"junk"},
			{"link":"https://pipedrive.com/pricing","title":"Pipedrive pricing","snippet":"Plans"}
		]}`)
	}))
	defer server.Close()

	p := NewHTTPProvider(model.SearchConfig{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		MaxResults: 10,
	})

	raw, err := p.Search(context.Background(), model.Query{Text: "zoho crm pricing"})
	require.NoError(t, err)
	require.Len(t, raw, 2, "unparseable links are dropped")

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "zoho crm pricing", gotQuery)
	assert.Equal(t, "Zoho CRM pricing", raw[0].Title)
	assert.Equal(t, "Compare plans & editions", raw[0].Snippet)
	assert.Equal(t, "zoho.com", raw[0].Domain)
}

func TestHTTPProviderRespectsMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[
			{"link":"https://a.com/1","title":"a"},
			{"link":"https://b.com/2","title":"b"},
			{"link":"https://c.com/3","title":"c"}
		]}`)
	}))
	defer server.Close()

	p := NewHTTPProvider(model.SearchConfig{BaseURL: server.URL, MaxResults: 2})
	raw, err := p.Search(context.Background(), model.Query{Text: "anything"})
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestHTTPProviderBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewHTTPProvider(model.SearchConfig{BaseURL: server.URL})
	_, err := p.Search(context.Background(), model.Query{Text: "anything"})
	assert.Error(t, err)
}

func TestHTTPProviderEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[]}`)
	}))
	defer server.Close()

	p := NewHTTPProvider(model.SearchConfig{BaseURL: server.URL})
	raw, err := p.Search(context.Background(), model.Query{Text: "anything"})
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>Zoho CRM</b> pricing", "Zoho CRM pricing"},
		{"plans &amp; editions", "plans & editions"},
		{"<em>best</em> <b>CRM</b>", "best CRM"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripMarkup(tc.in), "input %q", tc.in)
	}
}
