package model

import (
	"fmt"
	"math"
	"time"
)

// Config is the complete Evidra configuration. The lookup tables
// (alternative sources, authority scores, tier rosters) are configuration
// data, not code: they load once at startup and can be swapped without
// touching the scoring or selection algorithms.
type Config struct {
	Search       SearchConfig      `yaml:"search" mapstructure:"search"`
	Selection    SelectionConfig   `yaml:"selection" mapstructure:"selection"`
	Scoring      ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Registry     RegistryConfig    `yaml:"registry" mapstructure:"registry"`
	Sources      SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Verify       VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// SearchConfig configures the search provider adapter.
type SearchConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"` // "http" or "mock"
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey       string        `yaml:"api_key" mapstructure:"api_key"`
	MaxResults   int           `yaml:"max_results" mapstructure:"max_results"`
	QueryTimeout time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// SelectionConfig governs the final per-candidate pick.
type SelectionConfig struct {
	MaxURLsPerCandidate       int  `yaml:"max_urls_per_candidate" mapstructure:"max_urls_per_candidate"`
	MaxSameDomainPerCandidate int  `yaml:"max_same_domain_per_candidate" mapstructure:"max_same_domain_per_candidate"`
	PrioritizeAlternatives    bool `yaml:"prioritize_alternatives" mapstructure:"prioritize_alternatives"`

	// Floors are calibration parameters, not physical law. The relevance
	// floor relaxes for highly diverse candidates: when a URL's diversity
	// score exceeds RelaxAboveDiversity the floor drops from RelevanceFloor
	// to RelaxedRelevanceFloor.
	RelevanceFloor        float64 `yaml:"relevance_floor" mapstructure:"relevance_floor"`
	RelaxedRelevanceFloor float64 `yaml:"relaxed_relevance_floor" mapstructure:"relaxed_relevance_floor"`
	RelaxAboveDiversity   float64 `yaml:"relax_above_diversity" mapstructure:"relax_above_diversity"`
	QualityFloor          float64 `yaml:"quality_floor" mapstructure:"quality_floor"`

	// Weights for the greedy combined score; must sum to 1.0.
	RelevanceWeight float64 `yaml:"relevance_weight" mapstructure:"relevance_weight"`
	DiversityWeight float64 `yaml:"diversity_weight" mapstructure:"diversity_weight"`
	QualityWeight   float64 `yaml:"quality_weight" mapstructure:"quality_weight"`
}

// RelevanceWeights blend the relevance sub-signals; must sum to 1.0.
type RelevanceWeights struct {
	Title        float64 `yaml:"title" mapstructure:"title"`
	Snippet      float64 `yaml:"snippet" mapstructure:"snippet"`
	Domain       float64 `yaml:"domain" mapstructure:"domain"`
	URLStructure float64 `yaml:"url_structure" mapstructure:"url_structure"`
	TermCoverage float64 `yaml:"term_coverage" mapstructure:"term_coverage"`
}

// DiversityWeights blend the diversity sub-signals; must sum to 1.0.
type DiversityWeights struct {
	DomainUniqueness float64 `yaml:"domain_uniqueness" mapstructure:"domain_uniqueness"`
	SourceTier       float64 `yaml:"source_tier" mapstructure:"source_tier"`
	EvidenceType     float64 `yaml:"evidence_type" mapstructure:"evidence_type"`
	TitleNovelty     float64 `yaml:"title_novelty" mapstructure:"title_novelty"`
}

// ConfidenceWeights blend relevance/quality/authority into the
// confidence level; must sum to 1.0.
type ConfidenceWeights struct {
	Relevance float64 `yaml:"relevance" mapstructure:"relevance"`
	Quality   float64 `yaml:"quality" mapstructure:"quality"`
	Authority float64 `yaml:"authority" mapstructure:"authority"`
}

// ScoringConfig holds scorer weights and the quality rejection tables.
type ScoringConfig struct {
	Relevance  RelevanceWeights  `yaml:"relevance" mapstructure:"relevance"`
	Diversity  DiversityWeights  `yaml:"diversity" mapstructure:"diversity"`
	Confidence ConfidenceWeights `yaml:"confidence" mapstructure:"confidence"`

	UnknownDomainAuthority float64 `yaml:"unknown_domain_authority" mapstructure:"unknown_domain_authority"`

	BlacklistedSuffixes []string `yaml:"blacklisted_suffixes" mapstructure:"blacklisted_suffixes"`
	SpamKeywords        []string `yaml:"spam_keywords" mapstructure:"spam_keywords"`
}

// RegistryConfig bounds the global uniqueness registry.
type RegistryConfig struct {
	DomainCapGlobal int `yaml:"domain_cap_global" mapstructure:"domain_cap_global"`
	MaxEntries      int `yaml:"max_entries" mapstructure:"max_entries"`
}

// Source is one named site in a source table.
type Source struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Domain string `yaml:"domain" mapstructure:"domain"`
}

// SourcesConfig holds the static source directories the query generator
// rotates through.
type SourcesConfig struct {
	Alternatives       map[ClaimCategory][]Source `yaml:"alternatives" mapstructure:"alternatives"`
	Niche              map[ClaimCategory][]Source `yaml:"niche" mapstructure:"niche"`
	DiscoveryPlatforms []Source                   `yaml:"discovery_platforms" mapstructure:"discovery_platforms"`
}

// AuthorityConfig holds the domain-authority lookup table and the
// source-tier rosters.
type AuthorityConfig struct {
	DomainScores map[string]float64 `yaml:"domain_scores" mapstructure:"domain_scores"`

	MajorDomains       []string `yaml:"major_domains" mapstructure:"major_domains"`
	MidTierDomains     []string `yaml:"mid_tier_domains" mapstructure:"mid_tier_domains"`
	NicheDomains       []string `yaml:"niche_domains" mapstructure:"niche_domains"`
	AlternativeDomains []string `yaml:"alternative_domains" mapstructure:"alternative_domains"`
}

// ConcurrencyConfig bounds the batch worker pool and per-candidate work.
type ConcurrencyConfig struct {
	Workers            int           `yaml:"workers" mapstructure:"workers"`
	CandidateTimeout   time.Duration `yaml:"candidate_timeout" mapstructure:"candidate_timeout"`
	ClaimsPerCandidate int           `yaml:"claims_per_candidate" mapstructure:"claims_per_candidate"`
	QueriesPerClaim    int           `yaml:"queries_per_claim" mapstructure:"queries_per_claim"`
}

// RateLimitConfig throttles provider calls.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig controls search-response caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// VerifyConfig controls the optional liveness check on selected URLs.
type VerifyConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxWorkers    int           `yaml:"max_workers" mapstructure:"max_workers"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// LLMConfig controls the optional evidence-summary generation. The
// summary never affects scoring or selection.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "openai" or "" (template summary)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls CLI reporting.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults, including the default
// source directories and authority tables.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Provider:     "http",
			MaxResults:   10,
			QueryTimeout: 10 * time.Second,
			UserAgent:    "Evidra/0.3 (+https://github.com/evidra/evidra)",
		},
		Selection: SelectionConfig{
			MaxURLsPerCandidate:       5,
			MaxSameDomainPerCandidate: 1,
			PrioritizeAlternatives:    false,
			RelevanceFloor:            0.25,
			RelaxedRelevanceFloor:     0.10,
			RelaxAboveDiversity:       0.8,
			QualityFloor:              0.3,
			RelevanceWeight:           0.4,
			DiversityWeight:           0.3,
			QualityWeight:             0.3,
		},
		Scoring: ScoringConfig{
			Relevance: RelevanceWeights{
				Title:        0.30,
				Snippet:      0.25,
				Domain:       0.20,
				URLStructure: 0.15,
				TermCoverage: 0.10,
			},
			Diversity: DiversityWeights{
				DomainUniqueness: 0.4,
				SourceTier:       0.3,
				EvidenceType:     0.2,
				TitleNovelty:     0.1,
			},
			Confidence: ConfidenceWeights{
				Relevance: 0.5,
				Quality:   0.3,
				Authority: 0.2,
			},
			UnknownDomainAuthority: 0.5,
			BlacklistedSuffixes: []string{
				".blogspot.com",
				".wordpress.com",
				".tumblr.com",
				".weebly.com",
				".wixsite.com",
				".livejournal.com",
			},
			SpamKeywords: []string{
				"click here", "buy now", "limited time", "act now",
				"100% free", "free money", "congratulations", "winner",
				"best deal", "discount code",
			},
		},
		Registry: RegistryConfig{
			DomainCapGlobal: 3,
			MaxEntries:      10000,
		},
		Sources:   DefaultSources(),
		Authority: DefaultAuthority(),
		Concurrency: ConcurrencyConfig{
			Workers:            4,
			CandidateTimeout:   30 * time.Second,
			ClaimsPerCandidate: 3,
			QueriesPerClaim:    3,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Verify: VerifyConfig{
			Enabled:       false,
			Timeout:       8 * time.Second,
			MaxWorkers:    10,
			RespectRobots: true,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 400,
		},
	}
}

// DefaultSources returns the built-in source directories.
func DefaultSources() SourcesConfig {
	return SourcesConfig{
		Alternatives: map[ClaimCategory][]Source{
			CategoryPricingResearch: {
				{Name: "HubSpot", Domain: "hubspot.com"},
				{Name: "Zoho", Domain: "zoho.com"},
				{Name: "Pipedrive", Domain: "pipedrive.com"},
				{Name: "Freshworks", Domain: "freshworks.com"},
				{Name: "Insightly", Domain: "insightly.com"},
				{Name: "Nutshell", Domain: "nutshell.com"},
			},
			CategoryProductEvaluation: {
				{Name: "Capterra", Domain: "capterra.com"},
				{Name: "TrustRadius", Domain: "trustradius.com"},
				{Name: "GetApp", Domain: "getapp.com"},
				{Name: "Software Advice", Domain: "softwareadvice.com"},
				{Name: "Slant", Domain: "slant.co"},
			},
			CategoryCompanyResearch: {
				{Name: "Craft", Domain: "craft.co"},
				{Name: "Owler", Domain: "owler.com"},
				{Name: "Growjo", Domain: "growjo.com"},
				{Name: "Tracxn", Domain: "tracxn.com"},
			},
			CategoryRealEstateResearch: {
				{Name: "Redfin", Domain: "redfin.com"},
				{Name: "Trulia", Domain: "trulia.com"},
				{Name: "Compass", Domain: "compass.com"},
				{Name: "Sotheby's Realty", Domain: "sothebysrealty.com"},
				{Name: "Mansion Global", Domain: "mansionglobal.com"},
				{Name: "Luxury Portfolio", Domain: "luxuryportfolio.com"},
			},
			CategoryFinancialServicesResearch: {
				{Name: "NerdWallet", Domain: "nerdwallet.com"},
				{Name: "Bankrate", Domain: "bankrate.com"},
				{Name: "SmartAsset", Domain: "smartasset.com"},
				{Name: "ValuePenguin", Domain: "valuepenguin.com"},
			},
			CategoryInvestmentResearch: {
				{Name: "Morningstar", Domain: "morningstar.com"},
				{Name: "Seeking Alpha", Domain: "seekingalpha.com"},
				{Name: "Benzinga", Domain: "benzinga.com"},
				{Name: "Simply Wall St", Domain: "simplywall.st"},
			},
		},
		Niche: map[ClaimCategory][]Source{
			CategoryPricingResearch: {
				{Name: "Vendr", Domain: "vendr.com"},
				{Name: "Spendflo", Domain: "spendflo.com"},
			},
			CategoryProductEvaluation: {
				{Name: "SaaSworthy", Domain: "saasworthy.com"},
				{Name: "Crozdesk", Domain: "crozdesk.com"},
			},
			CategoryRealEstateResearch: {
				{Name: "Homes.com", Domain: "homes.com"},
				{Name: "Point2", Domain: "point2homes.com"},
			},
			CategoryInvestmentResearch: {
				{Name: "Stock Analysis", Domain: "stockanalysis.com"},
				{Name: "Wisesheets", Domain: "wisesheets.io"},
			},
		},
		DiscoveryPlatforms: []Source{
			{Name: "Product Hunt", Domain: "producthunt.com"},
			{Name: "AlternativeTo", Domain: "alternativeto.net"},
			{Name: "StackShare", Domain: "stackshare.io"},
			{Name: "SourceForge", Domain: "sourceforge.net"},
			{Name: "SaaSHub", Domain: "saashub.com"},
		},
	}
}

// DefaultAuthority returns the built-in domain-authority table and
// tier rosters.
func DefaultAuthority() AuthorityConfig {
	return AuthorityConfig{
		DomainScores: map[string]float64{
			"gartner.com":       0.95,
			"forrester.com":     0.95,
			"g2.com":            0.90,
			"forbes.com":        0.90,
			"zillow.com":        0.90,
			"morningstar.com":   0.90,
			"investopedia.com":  0.90,
			"techcrunch.com":    0.85,
			"capterra.com":      0.85,
			"redfin.com":        0.85,
			"nerdwallet.com":    0.85,
			"bankrate.com":      0.85,
			"realtor.com":       0.85,
			"trustradius.com":   0.80,
			"trulia.com":        0.80,
			"seekingalpha.com":  0.80,
			"crunchbase.com":    0.80,
			"hubspot.com":       0.80,
			"salesforce.com":    0.80,
			"softwareadvice.com": 0.75,
			"getapp.com":        0.75,
			"smartasset.com":    0.75,
			"compass.com":       0.75,
			"producthunt.com":   0.70,
			"alternativeto.net": 0.70,
			"stackshare.io":     0.65,
			"mansionglobal.com": 0.70,
			"owler.com":         0.60,
			"craft.co":          0.60,
			"slant.co":          0.60,
			"saasworthy.com":    0.55,
			"medium.com":        0.50,
			"reddit.com":        0.60,
		},
		MajorDomains: []string{
			"salesforce.com", "g2.com", "gartner.com", "forrester.com",
			"forbes.com", "zillow.com", "realtor.com", "linkedin.com",
			"crunchbase.com", "morningstar.com", "investopedia.com",
		},
		MidTierDomains: []string{
			"capterra.com", "trustradius.com", "hubspot.com", "redfin.com",
			"trulia.com", "nerdwallet.com", "bankrate.com", "techcrunch.com",
			"seekingalpha.com", "compass.com",
		},
		NicheDomains: []string{
			"slant.co", "saasworthy.com", "crozdesk.com", "mansionglobal.com",
			"luxuryportfolio.com", "smartasset.com", "valuepenguin.com",
			"stockanalysis.com", "point2homes.com", "vendr.com",
		},
		AlternativeDomains: []string{
			"alternativeto.net", "producthunt.com", "stackshare.io",
			"sourceforge.net", "saashub.com", "owler.com", "craft.co",
			"growjo.com", "tracxn.com",
		},
	}
}

const weightTolerance = 1e-6

// Validate checks the configuration eagerly at startup. Invalid weights
// and caps fail with descriptive messages instead of being clamped
// mid-run.
func (c *Config) Validate() error {
	if c.Selection.MaxURLsPerCandidate <= 0 {
		return fmt.Errorf("selection.max_urls_per_candidate must be positive, got %d", c.Selection.MaxURLsPerCandidate)
	}
	if c.Selection.MaxSameDomainPerCandidate <= 0 {
		return fmt.Errorf("selection.max_same_domain_per_candidate must be positive, got %d", c.Selection.MaxSameDomainPerCandidate)
	}
	if c.Registry.DomainCapGlobal <= 0 {
		return fmt.Errorf("registry.domain_cap_global must be positive, got %d", c.Registry.DomainCapGlobal)
	}
	if c.Registry.MaxEntries <= 0 {
		return fmt.Errorf("registry.max_entries must be positive, got %d", c.Registry.MaxEntries)
	}
	if c.Concurrency.Workers <= 0 {
		return fmt.Errorf("concurrency.workers must be positive, got %d", c.Concurrency.Workers)
	}

	for name, v := range map[string]float64{
		"selection.relevance_floor":         c.Selection.RelevanceFloor,
		"selection.relaxed_relevance_floor": c.Selection.RelaxedRelevanceFloor,
		"selection.relax_above_diversity":   c.Selection.RelaxAboveDiversity,
		"selection.quality_floor":           c.Selection.QualityFloor,
		"scoring.unknown_domain_authority":  c.Scoring.UnknownDomainAuthority,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %g", name, v)
		}
	}
	if c.Selection.RelaxedRelevanceFloor > c.Selection.RelevanceFloor {
		return fmt.Errorf("selection.relaxed_relevance_floor (%g) must not exceed selection.relevance_floor (%g)",
			c.Selection.RelaxedRelevanceFloor, c.Selection.RelevanceFloor)
	}

	sums := map[string]float64{
		"selection weights (relevance+diversity+quality)": c.Selection.RelevanceWeight + c.Selection.DiversityWeight + c.Selection.QualityWeight,
		"scoring.relevance weights": c.Scoring.Relevance.Title + c.Scoring.Relevance.Snippet +
			c.Scoring.Relevance.Domain + c.Scoring.Relevance.URLStructure + c.Scoring.Relevance.TermCoverage,
		"scoring.diversity weights": c.Scoring.Diversity.DomainUniqueness + c.Scoring.Diversity.SourceTier +
			c.Scoring.Diversity.EvidenceType + c.Scoring.Diversity.TitleNovelty,
		"scoring.confidence weights": c.Scoring.Confidence.Relevance + c.Scoring.Confidence.Quality +
			c.Scoring.Confidence.Authority,
	}
	for name, sum := range sums {
		if math.Abs(sum-1.0) > weightTolerance {
			return fmt.Errorf("%s must sum to 1.0, got %g", name, sum)
		}
	}

	for domain, score := range c.Authority.DomainScores {
		if score < 0 || score > 1 {
			return fmt.Errorf("authority.domain_scores[%q] must be in [0,1], got %g", domain, score)
		}
	}

	if c.RateLimiting.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limiting.requests_per_second must be positive, got %g", c.RateLimiting.RequestsPerSecond)
	}

	return nil
}
