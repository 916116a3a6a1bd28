package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evidra/evidra/internal/model"
)

func newTestRegistry(cap, maxEntries int) *Registry {
	return New(model.RegistryConfig{DomainCapGlobal: cap, MaxEntries: maxEntries})
}

func TestRegister_URLUniqueAcrossPersons(t *testing.T) {
	r := newTestRegistry(3, 100)

	ok := r.Register("https://redfin.com/ct/greenwich", "redfin.com", "p1", model.EvidenceGeneral, model.TierMidTier)
	require.True(t, ok)

	// Same URL, different person: must lose.
	assert.False(t, r.Register("https://redfin.com/ct/greenwich", "redfin.com", "p2", model.EvidenceGeneral, model.TierMidTier))
	// Trivial respelling collides too.
	assert.False(t, r.Register("HTTPS://REDFIN.COM/ct/greenwich/", "redfin.com", "p3", model.EvidenceGeneral, model.TierMidTier))

	assert.False(t, r.IsAvailable("https://redfin.com/ct/greenwich"))
	assert.True(t, r.IsAvailable("https://redfin.com/ct/stamford"))
}

func TestRegister_DomainCap(t *testing.T) {
	r := newTestRegistry(2, 100)

	require.True(t, r.Register("https://zillow.com/a", "zillow.com", "p1", model.EvidenceGeneral, model.TierMajor))
	require.True(t, r.Register("https://zillow.com/b", "zillow.com", "p2", model.EvidenceGeneral, model.TierMajor))
	assert.False(t, r.Register("https://zillow.com/c", "zillow.com", "p3", model.EvidenceGeneral, model.TierMajor),
		"third registration must hit the global domain cap")

	assert.True(t, r.IsDomainOverCap("zillow.com", 0))
	assert.Equal(t, 2, r.DomainCount("zillow.com"))

	excluded := r.ExcludedSources()
	_, ok := excluded["zillow.com"]
	assert.True(t, ok, "capped domain should be in the exclusion set")
}

func TestRegister_ConcurrentSingleWinner(t *testing.T) {
	r := newTestRegistry(3, 1000)

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			person := fmt.Sprintf("p%d", id)
			if r.Register("https://capterra.com/crm", "capterra.com", person, model.EvidenceComparison, model.TierMidTier) {
				wins <- person
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1, "exactly one concurrent candidate may claim a URL")
	assert.Equal(t, []string{r.log[0].PersonID}, winners)
}

func TestEviction_CountersStayConsistent(t *testing.T) {
	r := newTestRegistry(100, 10)
	r.now = func() time.Time { return time.Unix(0, 0) }

	for i := 0; i < 11; i++ {
		url := fmt.Sprintf("https://site%d.com/page", i)
		domain := fmt.Sprintf("site%d.com", i)
		require.True(t, r.Register(url, domain, "p1", model.EvidenceGeneral, model.TierEmerging))
	}

	// 11 entries exceeded the bound; the oldest 20% (2) were evicted.
	assert.Equal(t, 9, r.Len())
	assert.True(t, r.IsAvailable("https://site0.com/page"))
	assert.True(t, r.IsAvailable("https://site1.com/page"))
	assert.False(t, r.IsAvailable("https://site2.com/page"))

	for domain, count := range r.DomainCounts() {
		assert.Positive(t, count, "domain %s has a non-positive counter", domain)
	}
	assert.Zero(t, r.DomainCount("site0.com"))
	assert.Zero(t, r.DomainCount("site1.com"))

	m := r.Metrics()
	assert.Equal(t, 9, m.TotalURLs)
	assert.Equal(t, 9, m.UniqueDomains)
	assert.Equal(t, 9, m.TierDistribution[model.TierEmerging])
}

func TestMetrics(t *testing.T) {
	r := newTestRegistry(5, 100)

	require.True(t, r.Register("https://a.com/1", "a.com", "p1", model.EvidenceGeneral, model.TierMajor))
	require.True(t, r.Register("https://a.com/2", "a.com", "p2", model.EvidenceGeneral, model.TierMajor))
	require.True(t, r.Register("https://b.com/1", "b.com", "p1", model.EvidenceReview, model.TierNiche))
	require.True(t, r.Register("https://c.com/1", "c.com", "p3", model.EvidenceNews, model.TierEmerging))
	// A duplicate attempt lowers the uniqueness rate.
	assert.False(t, r.Register("https://a.com/1", "a.com", "p4", model.EvidenceGeneral, model.TierMajor))

	m := r.Metrics()
	assert.Equal(t, 4, m.TotalURLs)
	assert.Equal(t, 3, m.UniqueDomains)
	assert.InDelta(t, 0.8, m.UniquenessRate, 1e-9) // 4 of 5 attempts
	assert.Greater(t, m.DiversityIndex, 1.0)       // 3 domains, near-even split
	assert.Equal(t, 2, m.TierDistribution[model.TierMajor])
	assert.Equal(t, 1, m.TierDistribution[model.TierNiche])
	assert.Equal(t, 1, m.TierDistribution[model.TierEmerging])
}

func TestMetrics_Empty(t *testing.T) {
	m := newTestRegistry(3, 100).Metrics()
	assert.Zero(t, m.TotalURLs)
	assert.Zero(t, m.DiversityIndex)
	assert.Zero(t, m.UniquenessRate)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://Example.com/Path/", "https://example.com/Path"},
		{"https://example.com/page#section", "https://example.com/page"},
		{"  https://example.com  ", "https://example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in))
	}
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("https://www.example.com:443/page"))
	assert.Equal(t, "g2.com", DomainOf("https://g2.com/products/x"))
	assert.Equal(t, "", DomainOf("not a url"))
}
