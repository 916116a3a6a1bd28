package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evidra/evidra/internal/model"
	"github.com/evidra/evidra/internal/util"
)

const maxResponseBytes = 1 << 20 // 1 MiB

// HTTPProvider talks to a JSON search API with the customary
// items/link/title/snippet response shape.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	maxResults int
}

// NewHTTPProvider builds a provider for the API at baseURL. The proxy
// settings follow the environment unless overridden in cfg.
func NewHTTPProvider(cfg model.SearchConfig) *HTTPProvider {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &HTTPProvider{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxResults: maxResults,
	}
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

// Search executes one query and normalizes the hits. Hits without a
// parseable absolute URL are dropped.
func (p *HTTPProvider) Search(ctx context.Context, query model.Query) ([]model.RawURLCandidate, error) {
	reqURL, err := p.buildURL(query.Text)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search backend returned %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	raw := make([]model.RawURLCandidate, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		parsed, err := url.Parse(item.Link)
		if err != nil || parsed.Host == "" || parsed.Scheme == "" {
			continue
		}
		domain := item.DisplayLink
		if domain == "" {
			domain = parsed.Hostname()
		}
		raw = append(raw, model.RawURLCandidate{
			URL:     item.Link,
			Title:   StripMarkup(item.Title),
			Snippet: StripMarkup(item.Snippet),
			Domain:  strings.TrimPrefix(strings.ToLower(domain), "www."),
		})
		if len(raw) >= p.maxResults {
			break
		}
	}
	return raw, nil
}

func (p *HTTPProvider) buildURL(queryText string) (string, error) {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	params := base.Query()
	params.Set("q", queryText)
	params.Set("num", strconv.Itoa(p.maxResults))
	base.RawQuery = params.Encode()
	return base.String(), nil
}
