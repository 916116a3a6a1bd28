// Package search executes generated queries against a web search
// backend and normalizes the hits into raw URL candidates. Providers
// compose: the HTTP adapter (or the deterministic mock) sits at the
// bottom, with optional caching and rate limiting stacked on top.
package search

import (
	"context"

	"github.com/evidra/evidra/internal/model"
)

// Provider executes one search query. Implementations return the raw
// hits in backend order; an empty slice with a nil error is a valid
// no-results response.
type Provider interface {
	Search(ctx context.Context, query model.Query) ([]model.RawURLCandidate, error)
}

// SearchAll runs every query against the provider, capturing failures
// per query instead of aborting. A provider error never stops the
// batch: the failed query is recorded and the rest proceed.
func SearchAll(ctx context.Context, p Provider, queries []model.Query) []model.SearchResult {
	results := make([]model.SearchResult, 0, len(queries))
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			results = append(results, model.SearchResult{Query: q, Error: err.Error()})
			continue
		}
		raw, err := p.Search(ctx, q)
		if err != nil {
			results = append(results, model.SearchResult{Query: q, Error: err.Error()})
			continue
		}
		results = append(results, model.SearchResult{Query: q, Raw: raw, Success: true})
	}
	return results
}
