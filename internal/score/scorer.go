package score

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/evidra/evidra/internal/model"
)

// categoryPathHints are URL-path fragments that signal the page matches
// the claim's research category.
var categoryPathHints = map[model.ClaimCategory][]string{
	model.CategoryRealEstateResearch:        {"homes", "listing", "real-estate", "realestate", "property", "luxury"},
	model.CategoryFinancialServicesResearch: {"banking", "loans", "mortgage", "wealth", "advisor"},
	model.CategoryInvestmentResearch:        {"invest", "portfolio", "trading", "etf", "funds"},
	model.CategoryPricingResearch:           {"pricing", "plans", "cost", "subscription"},
	model.CategoryProductEvaluation:         {"compare", "review", "alternatives", "features", "vs"},
	model.CategoryCompanyResearch:           {"about", "company", "team", "careers"},
}

// Scorer turns raw search hits into scored evidence. Scoring is a pure
// function of its inputs: the same raw result, claim, selected set and
// domain counts always produce the same EvidenceURL.
type Scorer struct {
	cfg       model.ScoringConfig
	authority *AuthorityIndex
	globalCap int
}

// NewScorer builds a scorer over the given weights and authority index.
// globalCap is the registry-wide per-domain ceiling used by the
// rejection gate.
func NewScorer(cfg model.ScoringConfig, authority *AuthorityIndex, globalCap int) *Scorer {
	return &Scorer{cfg: cfg, authority: authority, globalCap: globalCap}
}

// Score evaluates one raw search hit against the claim that produced
// it. selected is the candidate's already-selected evidence, used for
// the diversity sub-score; domainCounts is a snapshot of the global
// registry's per-domain tallies. Returns nil when the hit fails the
// rejection gate. Registry URL ownership is checked by the caller
// before scoring.
func (s *Scorer) Score(raw model.RawURLCandidate, claim model.Claim, selected []model.EvidenceURL, domainCounts map[string]int) *model.EvidenceURL {
	domain := strings.ToLower(raw.Domain)
	parsed, err := url.Parse(raw.URL)
	if err != nil || parsed.Host == "" || parsed.Scheme == "" {
		return nil
	}
	if domain == "" {
		domain = strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	}

	if s.rejected(raw, domain, domainCounts) {
		return nil
	}

	auth := s.authority.Score(domain)
	tier := s.authority.Tier(domain)
	etype := ClassifyEvidenceType(raw.URL, domain, raw.Title)

	relevance := s.relevance(raw, claim, domain, auth)
	quality := s.quality(raw, auth)
	diversity := s.diversity(domain, tier, etype, raw.Title, selected)
	confidence := s.cfg.Confidence.Relevance*relevance +
		s.cfg.Confidence.Quality*quality +
		s.cfg.Confidence.Authority*auth

	return &model.EvidenceURL{
		URL:             raw.URL,
		Title:           raw.Title,
		Description:     raw.Snippet,
		Domain:          domain,
		EvidenceType:    etype,
		RelevanceScore:  relevance,
		QualityScore:    quality,
		DomainAuthority: auth,
		DiversityScore:  diversity,
		ConfidenceLevel: confidenceLevel(confidence),
		SourceTier:      tier,
	}
}

// Diversity recomputes the diversity sub-score of an already-scored
// evidence URL against a different selected set. Greedy selection calls
// this after every pick.
func (s *Scorer) Diversity(ev model.EvidenceURL, selected []model.EvidenceURL) float64 {
	return s.diversity(ev.Domain, ev.SourceTier, ev.EvidenceType, ev.Title, selected)
}

// rejected applies the quality gate: capped domains, blacklisted
// suffixes, spam-laden text and degenerate titles all drop the hit
// before any scoring happens.
func (s *Scorer) rejected(raw model.RawURLCandidate, domain string, domainCounts map[string]int) bool {
	if s.globalCap > 0 && domainCounts[domain] >= s.globalCap {
		return true
	}
	for _, suffix := range s.cfg.BlacklistedSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	if len(raw.URL) > 300 || strings.ContainsAny(raw.URL, " <>\"") {
		return true
	}

	text := strings.ToLower(raw.Title + " " + raw.Snippet)
	hits := 0
	for _, kw := range s.cfg.SpamKeywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	if hits >= 2 {
		return true
	}
	return degenerateTitle(raw.Title)
}

// degenerateTitle flags shouting-caps titles and titles that are mostly
// price strings.
func degenerateTitle(title string) bool {
	letters, uppers, prices := 0, 0, 0
	for i := 0; i < len(title); i++ {
		c := rune(title[i])
		if unicode.IsLetter(c) {
			letters++
			if unicode.IsUpper(c) {
				uppers++
			}
		}
		if c == '$' || c == '€' {
			prices++
		}
	}
	if letters >= 8 && uppers == letters {
		return true
	}
	return prices >= 3
}

func (s *Scorer) relevance(raw model.RawURLCandidate, claim model.Claim, domain string, auth float64) float64 {
	claimTokens := tokenSet(claim.Text)

	titleScore := overlap(tokenSet(raw.Title), claimTokens)
	snippetScore := overlap(tokenSet(raw.Snippet), claimTokens)
	urlScore := urlStructureScore(raw.URL, claim)
	termScore := termCoverage(raw, claim.SearchTerms)

	score := s.cfg.Relevance.Title*titleScore +
		s.cfg.Relevance.Snippet*snippetScore +
		s.cfg.Relevance.Domain*auth +
		s.cfg.Relevance.URLStructure*urlScore +
		s.cfg.Relevance.TermCoverage*termScore
	return clamp01(score)
}

// quality starts from a neutral base and earns bonuses for substantive
// titles, substantive snippets and authoritative domains.
func (s *Scorer) quality(raw model.RawURLCandidate, auth float64) float64 {
	score := 0.5
	if len(raw.Title) >= 20 {
		score += 0.15
	}
	if len(raw.Snippet) >= 60 {
		score += 0.10
	}
	score += 0.25 * auth
	return clamp01(score)
}

// diversity measures how much a URL differs from the candidate's
// already-selected evidence. An empty selected set scores maximal
// domain, type and title novelty.
func (s *Scorer) diversity(domain string, tier model.SourceTier, etype model.EvidenceType, title string, selected []model.EvidenceURL) float64 {
	domainNovel := 1.0
	typeNovel := 1.0
	titleNovel := 1.0

	titleTokens := tokenSet(title)
	for _, ev := range selected {
		if ev.Domain == domain {
			domainNovel = 0
		}
		if ev.EvidenceType == etype {
			typeNovel = 0.3
		}
		if sim := overlap(titleTokens, tokenSet(ev.Title)); 1-sim < titleNovel {
			titleNovel = 1 - sim
		}
	}

	score := s.cfg.Diversity.DomainUniqueness*domainNovel +
		s.cfg.Diversity.SourceTier*tierDiversityPreference(tier) +
		s.cfg.Diversity.EvidenceType*typeNovel +
		s.cfg.Diversity.TitleNovelty*titleNovel
	return clamp01(score)
}

func confidenceLevel(score float64) model.ConfidenceLevel {
	switch {
	case score >= 0.8:
		return model.ConfidenceHigh
	case score >= 0.6:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// urlStructureScore checks the URL path for category-specific hints and
// for the claim's search terms.
func urlStructureScore(rawURL string, claim model.Claim) float64 {
	path := pathOf(rawURL)
	if path == "" {
		return 0.3 // bare domain: plausible official page, weak signal
	}
	for _, hint := range categoryPathHints[claim.Category] {
		if strings.Contains(path, hint) {
			return 1.0
		}
	}
	for _, term := range claim.SearchTerms {
		if strings.Contains(path, strings.ReplaceAll(strings.ToLower(term), " ", "-")) {
			return 0.6
		}
	}
	return 0
}

// termCoverage is the fraction of the claim's search terms mentioned
// anywhere in the hit.
func termCoverage(raw model.RawURLCandidate, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(raw.Title + " " + raw.Snippet + " " + raw.URL)
	found := 0
	for _, term := range terms {
		if strings.Contains(haystack, strings.ToLower(term)) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// overlap is Jaccard similarity over token sets.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

var fillerTokens = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "in": {},
	"on": {}, "for": {}, "to": {}, "with": {}, "is": {}, "are": {}, "at": {},
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(tok) < 2 {
			continue
		}
		if _, skip := fillerTokens[tok]; skip {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
