package score

import (
	"reflect"
	"testing"

	"github.com/evidra/evidra/internal/model"
)

func newTestScorer() *Scorer {
	cfg := model.DefaultConfig()
	auth := NewAuthorityIndex(cfg.Authority, cfg.Scoring.UnknownDomainAuthority)
	return NewScorer(cfg.Scoring, auth, cfg.Registry.DomainCapGlobal)
}

func pricingClaim() model.Claim {
	return model.Claim{
		Text:     "Comparing CRM subscription pricing plans for a small sales team",
		Category: model.CategoryPricingResearch,
		Entities: map[model.EntityKind][]string{
			model.EntityCompanies: {"hubspot"},
		},
		SearchTerms: []string{"hubspot", "crm", "pricing"},
		Priority:    8,
		Confidence:  0.8,
	}
}

func goodRaw() model.RawURLCandidate {
	return model.RawURLCandidate{
		URL:     "https://www.zoho.com/crm/pricing/",
		Title:   "Zoho CRM pricing plans for sales teams",
		Snippet: "Compare Zoho CRM subscription pricing plans and pick the edition that fits your sales team budget.",
		Domain:  "zoho.com",
	}
}

func TestScoreIdempotent(t *testing.T) {
	s := newTestScorer()
	claim := pricingClaim()
	counts := map[string]int{"hubspot.com": 1}
	selected := []model.EvidenceURL{{Domain: "hubspot.com", EvidenceType: model.EvidencePricingPage, Title: "HubSpot pricing", SourceTier: model.TierMidTier}}

	first := s.Score(goodRaw(), claim, selected, counts)
	second := s.Score(goodRaw(), claim, selected, counts)
	if first == nil || second == nil {
		t.Fatal("expected a scored result, got nil")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("scoring is not deterministic: %+v vs %+v", first, second)
	}
}

func TestScoreAccepted(t *testing.T) {
	s := newTestScorer()
	ev := s.Score(goodRaw(), pricingClaim(), nil, nil)
	if ev == nil {
		t.Fatal("expected acceptance")
	}
	if ev.Domain != "zoho.com" {
		t.Errorf("domain = %q, want zoho.com", ev.Domain)
	}
	if ev.EvidenceType != model.EvidencePricingPage {
		t.Errorf("evidence type = %q, want pricing_page", ev.EvidenceType)
	}
	if ev.RelevanceScore <= 0.25 {
		t.Errorf("relevance = %v, want a strong match above the floor", ev.RelevanceScore)
	}
	if ev.QualityScore < 0.5 || ev.QualityScore > 1.0 {
		t.Errorf("quality = %v out of range", ev.QualityScore)
	}
	if ev.ConfidenceLevel == "" {
		t.Error("confidence level not set")
	}
}

func TestScoreRejectionGate(t *testing.T) {
	s := newTestScorer()
	claim := pricingClaim()

	cases := []struct {
		name   string
		mutate func(*model.RawURLCandidate)
		counts map[string]int
	}{
		{
			name: "blacklisted suffix",
			mutate: func(r *model.RawURLCandidate) {
				r.URL = "https://crmdeals.blogspot.com/2024/pricing.html"
				r.Domain = "crmdeals.blogspot.com"
			},
		},
		{
			name: "two spam keywords",
			mutate: func(r *model.RawURLCandidate) {
				r.Title = "Click here for the best deal on CRM"
			},
		},
		{
			name: "all caps title",
			mutate: func(r *model.RawURLCandidate) {
				r.Title = "BEST CRM PRICING DEALS TODAY"
			},
		},
		{
			name: "price laden title",
			mutate: func(r *model.RawURLCandidate) {
				r.Title = "CRM from $9 or $19 or $49"
			},
		},
		{
			name:   "malformed url",
			mutate: func(r *model.RawURLCandidate) { r.URL = "not a url"; r.Domain = "" },
		},
		{
			name:   "domain at global cap",
			mutate: func(r *model.RawURLCandidate) {},
			counts: map[string]int{"zoho.com": 3},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := goodRaw()
			tc.mutate(&raw)
			if ev := s.Score(raw, claim, nil, tc.counts); ev != nil {
				t.Errorf("expected rejection, got %+v", ev)
			}
		})
	}
}

func TestScoreDomainUnderCapAccepted(t *testing.T) {
	s := newTestScorer()
	ev := s.Score(goodRaw(), pricingClaim(), nil, map[string]int{"zoho.com": 2})
	if ev == nil {
		t.Fatal("domain below the cap should pass the gate")
	}
}

func TestDiversityPrefersNewDomain(t *testing.T) {
	s := newTestScorer()
	selected := []model.EvidenceURL{{
		Domain:       "capterra.com",
		EvidenceType: model.EvidenceComparison,
		SourceTier:   model.TierMidTier,
		Title:        "Best CRM software compared",
	}}
	dup := model.EvidenceURL{
		Domain:       "capterra.com",
		EvidenceType: model.EvidenceComparison,
		SourceTier:   model.TierMidTier,
		Title:        "Top CRM platforms ranked",
	}
	fresh := dup
	fresh.Domain = "trustradius.com"

	if a, b := s.Diversity(fresh, selected), s.Diversity(dup, selected); a <= b {
		t.Errorf("new domain diversity %v should exceed duplicate domain %v", a, b)
	}
}

func TestDiversityEmptySelectedIsMaximal(t *testing.T) {
	s := newTestScorer()
	ev := model.EvidenceURL{
		Domain:       "producthunt.com",
		EvidenceType: model.EvidenceReview,
		SourceTier:   model.TierAlternative,
		Title:        "New CRM tools launched this week",
	}
	if d := s.Diversity(ev, nil); d < 0.99 {
		t.Errorf("diversity against empty set = %v, want ~1.0", d)
	}
}

func TestConfidenceLevels(t *testing.T) {
	cases := []struct {
		score float64
		want  model.ConfidenceLevel
	}{
		{0.85, model.ConfidenceHigh},
		{0.80, model.ConfidenceHigh},
		{0.65, model.ConfidenceMedium},
		{0.60, model.ConfidenceMedium},
		{0.59, model.ConfidenceLow},
		{0.10, model.ConfidenceLow},
	}
	for _, tc := range cases {
		if got := confidenceLevel(tc.score); got != tc.want {
			t.Errorf("confidenceLevel(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestClassifyEvidenceType(t *testing.T) {
	cases := []struct {
		url    string
		domain string
		title  string
		want   model.EvidenceType
	}{
		// domain rules beat title keywords
		{"https://www.g2.com/products/zoho-crm/reviews", "g2.com", "Zoho CRM reviews", model.EvidenceComparison},
		{"https://www.trustradius.com/products/hubspot", "trustradius.com", "HubSpot", model.EvidenceReview},
		{"https://www.gartner.com/en/doc/crm-market", "gartner.com", "CRM market", model.EvidenceReport},
		{"https://techcrunch.com/2025/01/crm-startup", "techcrunch.com", "CRM startup raises", model.EvidenceNews},
		{"https://medium.com/@sales/crm-notes", "medium.com", "CRM notes", model.EvidenceBlogPost},
		// keyword rules
		{"https://www.pipedrive.com/en/pricing", "pipedrive.com", "Pipedrive pricing", model.EvidencePricingPage},
		{"https://developer.nutshell.com/docs/api", "developer.nutshell.com", "API reference", model.EvidenceDocumentation},
		{"https://www.insightly.com/blog/crm-tips/", "insightly.com", "CRM tips", model.EvidenceBlogPost},
		{"https://www.freshworks.com/customers/acme/", "freshworks.com", "Acme story", model.EvidenceCaseStudy},
		// fallbacks
		{"https://www.nutshell.com/", "nutshell.com", "Nutshell", model.EvidenceOfficialPage},
		{"https://example.com/some/deep/page", "example.com", "Some page", model.EvidenceGeneral},
	}
	for _, tc := range cases {
		if got := ClassifyEvidenceType(tc.url, tc.domain, tc.title); got != tc.want {
			t.Errorf("ClassifyEvidenceType(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestAuthorityIndex(t *testing.T) {
	cfg := model.DefaultConfig()
	idx := NewAuthorityIndex(cfg.Authority, 0.5)

	if got := idx.Score("gartner.com"); got != 0.95 {
		t.Errorf("gartner.com score = %v, want 0.95", got)
	}
	if got := idx.Score("blog.hubspot.com"); got != 0.80 {
		t.Errorf("subdomain should inherit, got %v", got)
	}
	if got := idx.Score("unknown-crm-site.io"); got != 0.5 {
		t.Errorf("unknown domain score = %v, want default 0.5", got)
	}

	tiers := []struct {
		domain string
		want   model.SourceTier
	}{
		{"g2.com", model.TierMajor},
		{"capterra.com", model.TierMidTier},
		{"slant.co", model.TierNiche},
		{"producthunt.com", model.TierAlternative},
		{"brand-new-tool.dev", model.TierEmerging},
	}
	for _, tc := range tiers {
		if got := idx.Tier(tc.domain); got != tc.want {
			t.Errorf("Tier(%q) = %q, want %q", tc.domain, got, tc.want)
		}
	}
}
