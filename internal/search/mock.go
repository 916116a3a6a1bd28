package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/evidra/evidra/internal/model"
)

// MockProvider fabricates deterministic hits from a query's expected
// domains. The same query always yields the same URLs, which makes
// end-to-end runs reproducible without network access.
type MockProvider struct {
	// HitsPerDomain bounds fabricated results per expected domain.
	HitsPerDomain int
	// FailSubstring, when non-empty, makes any query containing it
	// return an error. Used to exercise degraded paths.
	FailSubstring string
}

// NewMockProvider returns a mock yielding two hits per expected domain.
func NewMockProvider() *MockProvider {
	return &MockProvider{HitsPerDomain: 2}
}

// Search fabricates hits without touching the network.
func (m *MockProvider) Search(_ context.Context, query model.Query) ([]model.RawURLCandidate, error) {
	if m.FailSubstring != "" && strings.Contains(query.Text, m.FailSubstring) {
		return nil, fmt.Errorf("mock failure for query %q", query.Text)
	}

	hits := m.HitsPerDomain
	if hits <= 0 {
		hits = 2
	}

	slug := querySlug(query.Text)
	raw := make([]model.RawURLCandidate, 0, len(query.ExpectedDomains)*hits)
	for _, domain := range query.ExpectedDomains {
		for i := 0; i < hits; i++ {
			raw = append(raw, model.RawURLCandidate{
				URL:     fmt.Sprintf("https://%s/%s-%d", domain, slug, i),
				Title:   fmt.Sprintf("%s on %s", query.Text, domain),
				Snippet: fmt.Sprintf("Details about %s from %s, result %d.", query.Text, domain, i),
				Domain:  domain,
			})
		}
	}
	return raw, nil
}

// querySlug derives a stable URL path segment from the query text.
func querySlug(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) > 4 {
		fields = fields[:4]
	}
	slug := strings.Join(fields, "-")
	slug = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return -1
	}, slug)
	if slug == "" {
		sum := sha256.Sum256([]byte(text))
		slug = hex.EncodeToString(sum[:4])
	}
	return slug
}
