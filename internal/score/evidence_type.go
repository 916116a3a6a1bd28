package score

import (
	"strings"

	"github.com/evidra/evidra/internal/model"
)

// domainTypeRules map known sites straight to an evidence type. These
// take precedence over the keyword rules below: g2.com is a comparison
// site even when the page title says "review".
var domainTypeRules = []struct {
	domains []string
	etype   model.EvidenceType
}{
	{[]string{"g2.com", "capterra.com", "alternativeto.net", "stackshare.io", "getapp.com", "softwareadvice.com", "slant.co", "saashub.com"}, model.EvidenceComparison},
	{[]string{"trustradius.com", "trustpilot.com", "producthunt.com"}, model.EvidenceReview},
	{[]string{"gartner.com", "forrester.com", "statista.com", "idc.com"}, model.EvidenceReport},
	{[]string{"techcrunch.com", "forbes.com", "reuters.com", "bloomberg.com", "businessinsider.com", "venturebeat.com"}, model.EvidenceNews},
	{[]string{"medium.com", "substack.com", "dev.to", "hashnode.com"}, model.EvidenceBlogPost},
}

// keywordTypeRules classify by URL path and title when the domain is
// not recognized. Order matters: pricing beats documentation beats the
// generic buckets.
var keywordTypeRules = []struct {
	pathHints  []string
	titleHints []string
	etype      model.EvidenceType
}{
	{[]string{"/pricing", "/plans", "/cost", "/buy"}, []string{"pricing", "plans and pricing"}, model.EvidencePricingPage},
	{[]string{"/docs", "/documentation", "/developer", "/api/"}, []string{"documentation", "developer guide", "api reference"}, model.EvidenceDocumentation},
	{[]string{"/compare", "/vs-", "/versus", "/alternatives"}, []string{" vs ", "comparison", "alternatives to"}, model.EvidenceComparison},
	{[]string{"/review", "/reviews"}, []string{"review", "rated"}, model.EvidenceReview},
	{[]string{"/report", "/research/", "/whitepaper"}, []string{"market report", "industry report", "market analysis", "survey"}, model.EvidenceReport},
	{[]string{"/news/", "/press/", "/announcements"}, []string{"announces", "launches", "raises"}, model.EvidenceNews},
	{[]string{"/case-study", "/case-studies", "/customers/", "/success-stories"}, []string{"case study", "success story"}, model.EvidenceCaseStudy},
	{[]string{"/blog/", "/posts/"}, []string{"blog"}, model.EvidenceBlogPost},
	{[]string{"/about", "/company", "/product/", "/features"}, []string{"official site", "homepage"}, model.EvidenceOfficialPage},
}

// ClassifyEvidenceType assigns one type per URL from a fixed taxonomy.
// Domain rules win over keyword rules; a bare root path on an otherwise
// unclassified domain counts as the official page; everything else is
// general information.
func ClassifyEvidenceType(rawURL, domain, title string) model.EvidenceType {
	domain = strings.ToLower(domain)
	for _, rule := range domainTypeRules {
		for _, d := range rule.domains {
			if domain == d || strings.HasSuffix(domain, "."+d) {
				return rule.etype
			}
		}
	}

	path := pathOf(rawURL)
	lowerTitle := strings.ToLower(title)
	for _, rule := range keywordTypeRules {
		for _, hint := range rule.pathHints {
			if strings.Contains(path, hint) {
				return rule.etype
			}
		}
		for _, hint := range rule.titleHints {
			if strings.Contains(lowerTitle, hint) {
				return rule.etype
			}
		}
	}

	if path == "" || path == "/" {
		return model.EvidenceOfficialPage
	}
	return model.EvidenceGeneral
}

func pathOf(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		return strings.ToLower(rest[i:])
	}
	return ""
}
