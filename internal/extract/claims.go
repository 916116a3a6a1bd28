package extract

import (
	"sort"
	"strings"

	"github.com/evidra/evidra/internal/model"
)

// ClaimExtractor turns behavioral explanation text into typed,
// prioritized claims. It is a pure function of its keyword tables:
// no network, no randomness.
type ClaimExtractor struct {
	activityMarkers []string
	categories      []categoryRule
	companies       []string
	productTerms    []string
	pricingTerms    []string
}

// categoryRule is one step of the category waterfall. Order matters:
// domain-specific categories are checked before generic ones because
// several categories share vocabulary ("investment" appears in both
// real-estate and investment text), and the first match wins.
type categoryRule struct {
	category model.ClaimCategory
	keywords []string
}

const maxClaimsPerText = 5

// NewClaimExtractor creates a claim extractor with the built-in tables.
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		activityMarkers: []string{
			"researching", "researched", "comparing", "compared",
			"evaluating", "evaluated", "visiting", "visited",
			"browsing", "browsed", "searching", "searched",
			"reviewing", "reviewed", "exploring", "explored",
			"investigating", "investigated", "reading about",
			"shopping for", "looking at", "looking for",
			"signed up", "downloaded", "requested",
		},
		categories: []categoryRule{
			{model.CategoryRealEstateResearch, []string{
				"real estate", "realtor", "property", "properties",
				"home listings", "housing market", "luxury homes",
				"condo", "estate agent", "open house", "zillow", "redfin",
			}},
			{model.CategoryFinancialServicesResearch, []string{
				"bank", "banking", "loan", "mortgage", "insurance",
				"credit card", "wealth management", "financial advisor",
				"financial planning", "retirement account",
			}},
			{model.CategoryInvestmentResearch, []string{
				"investment", "investing", "stocks", "portfolio",
				"etf", "mutual fund", "brokerage", "trading", "dividend",
			}},
			{model.CategoryPricingResearch, []string{
				"pricing", "price", "cost", "subscription", "quote",
				"plans", "fees", "budget", "discount",
			}},
			{model.CategoryProductEvaluation, []string{
				"demo", "trial", "features", "comparison", "compare",
				"alternatives", "reviews", "integrations", " vs ",
			}},
			{model.CategoryCompanyResearch, []string{
				"company", "vendor", "provider", "competitor",
				"funding", "headcount", "about page",
			}},
		},
		companies: []string{
			"salesforce", "hubspot", "zoho", "pipedrive", "freshworks",
			"insightly", "monday", "zendesk", "intercom", "slack", "zoom",
			"asana", "notion", "airtable", "stripe", "quickbooks",
			"netsuite", "workday", "oracle", "sap", "microsoft", "google",
			"adobe", "zillow", "redfin", "compass", "trulia",
			"morningstar", "fidelity", "schwab", "vanguard", "nerdwallet",
		},
		productTerms: []string{
			"crm", "erp", "saas", "platform", "software", "tool",
			"app", "dashboard", "api", "plugin", "suite",
		},
		pricingTerms: []string{
			"pricing", "price", "cost", "subscription", "quote",
			"plan", "fee", "budget", "discount", "tier",
		},
	}
}

// Extract extracts up to five claims from the given text, ordered by
// (priority, confidence) descending. A sentence qualifies only when it
// carries an activity marker, a topic marker, and more than five words:
// all three conditions, not mere keyword presence.
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var claims []model.Claim
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)

		activity := e.findActivity(lower)
		if activity == "" {
			continue
		}
		if !e.hasTopicMarker(lower) {
			continue
		}
		if len(strings.Fields(sentence)) <= 5 {
			continue
		}

		claim := model.Claim{
			Text:     strings.TrimSpace(sentence),
			Category: e.classify(lower),
			Entities: e.extractEntities(lower, activity),
		}
		claim.SearchTerms = e.buildSearchTerms(claim, lower)
		claim.Priority, claim.Confidence = e.scoreClaim(claim)
		claims = append(claims, claim)
	}

	claims = dedupeClaims(claims)

	// Claims with no topic entities are not searchable on their own and
	// never make the final cut.
	kept := claims[:0]
	for _, c := range claims {
		if c.HasEntities(model.EntityCompanies, model.EntityProducts, model.EntityPricingTerms) {
			kept = append(kept, c)
		}
	}
	claims = kept

	sort.SliceStable(claims, func(i, j int) bool {
		if claims[i].Priority != claims[j].Priority {
			return claims[i].Priority > claims[j].Priority
		}
		return claims[i].Confidence > claims[j].Confidence
	})

	if len(claims) > maxClaimsPerText {
		claims = claims[:maxClaimsPerText]
	}
	return claims
}

// findActivity returns the first activity marker present, or "".
func (e *ClaimExtractor) findActivity(lower string) string {
	for _, marker := range e.activityMarkers {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

// hasTopicMarker reports whether the sentence names something worth
// searching for: a category keyword, a known company, a product term,
// or a pricing term.
func (e *ClaimExtractor) hasTopicMarker(lower string) bool {
	for _, rule := range e.categories {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return containsAny(lower, e.companies) ||
		containsAny(lower, e.productTerms) ||
		containsAny(lower, e.pricingTerms)
}

// classify runs the ordered category waterfall; first match wins.
func (e *ClaimExtractor) classify(lower string) model.ClaimCategory {
	for _, rule := range e.categories {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryGeneralActivity
}

// extractEntities collects matching tokens into the fixed entity kinds.
func (e *ClaimExtractor) extractEntities(lower, activity string) map[model.EntityKind][]string {
	entities := map[model.EntityKind][]string{
		model.EntityActivities: {activity},
	}
	for _, company := range e.companies {
		if containsWord(lower, company) {
			entities[model.EntityCompanies] = append(entities[model.EntityCompanies], company)
		}
	}
	for _, term := range e.productTerms {
		if containsWord(lower, term) {
			entities[model.EntityProducts] = append(entities[model.EntityProducts], term)
		}
	}
	for _, term := range e.pricingTerms {
		if strings.Contains(lower, term) {
			entities[model.EntityPricingTerms] = append(entities[model.EntityPricingTerms], term)
		}
	}
	return entities
}

const maxSearchTerms = 6

// buildSearchTerms assembles the ordered keyword list queries are built
// from: companies first, then category keywords, then product and
// pricing terms.
func (e *ClaimExtractor) buildSearchTerms(claim model.Claim, lower string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] && len(terms) < maxSearchTerms {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, c := range claim.Entities[model.EntityCompanies] {
		add(c)
	}
	for _, rule := range e.categories {
		if rule.category != claim.Category {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				add(kw)
			}
		}
	}
	for _, p := range claim.Entities[model.EntityProducts] {
		add(p)
	}
	for _, p := range claim.Entities[model.EntityPricingTerms] {
		add(p)
	}
	return terms
}

// scoreClaim computes priority (1-10) and confidence (0-1) from simple
// additive heuristics over which entity kinds were found.
func (e *ClaimExtractor) scoreClaim(claim model.Claim) (int, float64) {
	priority := 5
	confidence := 0.5

	if len(claim.Entities[model.EntityCompanies]) > 0 {
		priority += 2
		confidence += 0.15
	}
	if len(claim.Entities[model.EntityPricingTerms]) > 0 {
		priority++
		confidence += 0.1
	}
	if len(claim.Entities[model.EntityProducts]) > 0 {
		confidence += 0.1
	}
	if claim.Category != model.CategoryGeneralActivity {
		priority++
		confidence += 0.1
	}

	if priority > 10 {
		priority = 10
	}
	if priority < 1 {
		priority = 1
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return priority, confidence
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 10 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' || r == ';' {
			// Look ahead to avoid splitting on abbreviations
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				flush()
			}
		}
	}
	if current.Len() > 0 {
		flush()
	}

	return sentences
}

// dedupeClaims removes duplicate claims by normalized text.
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim
	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}
	return unique
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// containsWord matches a term on word boundaries so "sap" does not
// match inside "sapphire".
func containsWord(s, term string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
