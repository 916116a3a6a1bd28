package model

// EvidenceType classifies what kind of page an evidence URL points at
type EvidenceType string

const (
	EvidenceOfficialPage  EvidenceType = "official_page"
	EvidencePricingPage   EvidenceType = "pricing_page"
	EvidenceDocumentation EvidenceType = "documentation"
	EvidenceComparison    EvidenceType = "comparison_site"
	EvidenceReview        EvidenceType = "review_site"
	EvidenceReport        EvidenceType = "industry_report"
	EvidenceNews          EvidenceType = "news_article"
	EvidenceCaseStudy     EvidenceType = "case_study"
	EvidenceBlogPost      EvidenceType = "blog_post"
	EvidenceGeneral       EvidenceType = "general_information"
)

// SourceTier classifies a domain's market prominence. Selection biases
// away from major, repeatedly-seen sources toward the lower tiers.
type SourceTier string

const (
	TierMajor       SourceTier = "major"
	TierMidTier     SourceTier = "mid_tier"
	TierNiche       SourceTier = "niche"
	TierAlternative SourceTier = "alternative"
	TierEmerging    SourceTier = "emerging"
)

// ConfidenceLevel buckets the blended relevance/quality/authority score
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// EvidenceURL is a validated, scored web page attached to a candidate.
// Within one candidate's evidence list URLs are unique and, by default,
// so are domains.
type EvidenceURL struct {
	URL             string          `json:"url"`
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
	Domain          string          `json:"domain"`
	EvidenceType    EvidenceType    `json:"evidence_type"`
	RelevanceScore  float64         `json:"relevance_score"`
	QualityScore    float64         `json:"quality_score"`
	DomainAuthority float64         `json:"domain_authority"`
	DiversityScore  float64         `json:"diversity_score"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	SourceTier      SourceTier      `json:"source_tier"`
}

// DiversityMetrics is a derived, read-only aggregate over a batch.
// It is recomputed on demand from the registry's assignment log and
// never stored authoritatively.
type DiversityMetrics struct {
	TotalURLs        int                `json:"total_urls"`
	UniqueDomains    int                `json:"unique_domains"`
	DiversityIndex   float64            `json:"diversity_index"` // Shannon entropy over the domain distribution
	UniquenessRate   float64            `json:"uniqueness_rate"` // unique_urls / total_urls
	TierDistribution map[SourceTier]int `json:"tier_distribution,omitempty"`
}
