package search

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/evidra/evidra/internal/model"
)

// LimitedProvider throttles calls to the wrapped provider. All queries
// share one limiter: the search backend is a single upstream with one
// quota, regardless of which domains the queries target.
type LimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// NewLimitedProvider wraps next with a token-bucket limiter.
func NewLimitedProvider(next Provider, requestsPerSecond float64, burst int) *LimitedProvider {
	if burst <= 0 {
		burst = 5
	}
	return &LimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Search blocks until the limiter admits the call, then delegates.
func (l *LimitedProvider) Search(ctx context.Context, query model.Query) ([]model.RawURLCandidate, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Search(ctx, query)
}
