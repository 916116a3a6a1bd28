package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/evidra/evidra/internal/model"
)

// CachedProvider memoizes successful searches for a TTL. Near-identical
// candidates in one batch repeat many queries; caching keeps the
// provider quota intact. Errors are never cached.
type CachedProvider struct {
	next  Provider
	cache *gocache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps next with an in-memory response cache.
func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Search returns the cached hits for a repeated query, consulting the
// wrapped provider on a miss.
func (c *CachedProvider) Search(ctx context.Context, query model.Query) ([]model.RawURLCandidate, error) {
	key := cacheKey(query.Text)
	if val, found := c.cache.Get(key); found {
		var raw []model.RawURLCandidate
		if err := json.Unmarshal(val.([]byte), &raw); err == nil {
			return raw, nil
		}
		c.cache.Delete(key)
	}

	raw, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(raw); err == nil {
		c.cache.Set(key, encoded, c.ttl)
	}
	return raw, nil
}

// cacheKey hashes the query text into a stable cache key.
func cacheKey(queryText string) string {
	hash := sha256.Sum256([]byte(queryText))
	return "evidra:v1:" + hex.EncodeToString(hash[:])
}
