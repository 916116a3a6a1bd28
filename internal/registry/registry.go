// Package registry implements the process-wide uniqueness ledger for
// evidence URLs. The registry is the sole source of truth for "is this
// URL still available": no URL may be registered against more than one
// person, and a domain may be capped across all people so a single
// source cannot dominate every result set.
//
// The registry is an injected service, never a package-level singleton,
// so tests can substitute a fresh instance per test.
package registry

import (
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/evidra/evidra/internal/model"
)

// Entry is one URL assignment in the ledger.
type Entry struct {
	URL          string
	Domain       string
	PersonID     string
	EvidenceType model.EvidenceType
	SourceTier   model.SourceTier
	RegisteredAt time.Time
}

// Registry is a mutex-guarded assignment ledger safe for concurrent
// candidate processing. All counters are derivable from the log; the
// log is authoritative.
type Registry struct {
	mu sync.Mutex

	cfg model.RegistryConfig

	byURL        map[string]*Entry
	log          []*Entry // registration order, oldest first
	domainCounts map[string]int
	tierCounts   map[model.SourceTier]int
	attempts     int // all Register calls, including losers

	now func() time.Time
}

// New creates an empty registry with the given bounds.
func New(cfg model.RegistryConfig) *Registry {
	if cfg.DomainCapGlobal <= 0 {
		cfg.DomainCapGlobal = 3
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &Registry{
		cfg:          cfg,
		byURL:        make(map[string]*Entry),
		domainCounts: make(map[string]int),
		tierCounts:   make(map[model.SourceTier]int),
		now:          time.Now,
	}
}

// IsAvailable reports whether the URL has not been assigned to anyone.
func (r *Registry) IsAvailable(rawURL string) bool {
	key := NormalizeURL(rawURL)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.byURL[key]
	return !taken
}

// DomainCount returns the number of registrations for a domain.
func (r *Registry) DomainCount(domain string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.domainCounts[strings.ToLower(domain)]
}

// IsDomainOverCap reports whether registering one more URL on the
// domain would exceed cap. A non-positive cap means the registry's
// configured global cap.
func (r *Registry) IsDomainOverCap(domain string, cap int) bool {
	if cap <= 0 {
		cap = r.cfg.DomainCapGlobal
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.domainCounts[strings.ToLower(domain)] >= cap
}

// Register atomically claims a URL for a person. It returns false
// without mutating state when the URL was already claimed or the
// domain is at the global cap. The check and the claim happen under one
// lock, so two concurrent candidates can never both claim the same URL.
func (r *Registry) Register(rawURL, domain, personID string, evidenceType model.EvidenceType, tier model.SourceTier) bool {
	key := NormalizeURL(rawURL)
	domain = strings.ToLower(domain)
	if domain == "" {
		domain = DomainOf(rawURL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts++

	if _, taken := r.byURL[key]; taken {
		return false
	}
	if r.domainCounts[domain] >= r.cfg.DomainCapGlobal {
		return false
	}

	entry := &Entry{
		URL:          key,
		Domain:       domain,
		PersonID:     personID,
		EvidenceType: evidenceType,
		SourceTier:   tier,
		RegisteredAt: r.now(),
	}
	r.byURL[key] = entry
	r.log = append(r.log, entry)
	r.domainCounts[domain]++
	r.tierCounts[tier]++

	if len(r.log) > r.cfg.MaxEntries {
		r.evictLocked()
	}
	return true
}

// evictLocked drops the oldest 20% of assignments and keeps every
// counter consistent with the surviving log. Caller holds the lock.
func (r *Registry) evictLocked() {
	n := len(r.log) / 5
	if n < 1 {
		n = 1
	}

	for _, entry := range r.log[:n] {
		delete(r.byURL, entry.URL)
		if c := r.domainCounts[entry.Domain] - 1; c > 0 {
			r.domainCounts[entry.Domain] = c
		} else {
			delete(r.domainCounts, entry.Domain)
		}
		if c := r.tierCounts[entry.SourceTier] - 1; c > 0 {
			r.tierCounts[entry.SourceTier] = c
		} else {
			delete(r.tierCounts, entry.SourceTier)
		}
	}
	r.log = append([]*Entry(nil), r.log[n:]...)
}

// Len returns the number of live assignments.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byURL)
}

// DomainCounts returns a snapshot of per-domain registration counts
// for the scorer's rejection gate.
func (r *Registry) DomainCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.domainCounts))
	for d, c := range r.domainCounts {
		out[d] = c
	}
	return out
}

// ExcludedSources returns the domains at or above the global cap. The
// query generator uses this as its exclusion set: saturated sources
// should stop appearing in fresh queries.
func (r *Registry) ExcludedSources() map[string]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{})
	for d, c := range r.domainCounts {
		if c >= r.cfg.DomainCapGlobal {
			out[d] = struct{}{}
		}
	}
	return out
}

// Metrics recomputes the batch diversity aggregate from the assignment
// log. Derived, never stored.
func (r *Registry) Metrics() model.DiversityMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := model.DiversityMetrics{
		TotalURLs:        len(r.byURL),
		UniqueDomains:    len(r.domainCounts),
		TierDistribution: make(map[model.SourceTier]int, len(r.tierCounts)),
	}
	for tier, c := range r.tierCounts {
		m.TierDistribution[tier] = c
	}
	if r.attempts > 0 {
		m.UniquenessRate = float64(len(r.byURL)) / float64(r.attempts)
	}
	m.DiversityIndex = shannonEntropy(r.domainCounts, len(r.log))
	return m
}

// shannonEntropy computes the entropy (base 2) of the domain
// distribution. Higher means assignments are spread across more
// domains more evenly.
func shannonEntropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// NormalizeURL lowercases the scheme and host and strips fragments and
// trailing slashes so trivially different spellings of the same page
// collide in the ledger.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(strings.ToLower(rawURL))
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	out := parsed.String()
	return strings.TrimSuffix(out, "/")
}

// DomainOf extracts the registrable host from a URL, dropping any
// leading "www.".
func DomainOf(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	if i := strings.Index(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.TrimPrefix(host, "www.")
}
