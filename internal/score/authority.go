package score

import (
	"strings"

	"github.com/evidra/evidra/internal/model"
)

// AuthorityIndex classifies domains by authority score and source
// tier. Both lookups are static tables loaded from configuration;
// unknown domains get the configured default score and the emerging
// tier.
type AuthorityIndex struct {
	scores  map[string]float64
	unknown float64
	tiers   []tierRoster
}

type tierRoster struct {
	tier    model.SourceTier
	domains []string
}

// NewAuthorityIndex builds an index from the authority tables.
func NewAuthorityIndex(cfg model.AuthorityConfig, unknownScore float64) *AuthorityIndex {
	scores := make(map[string]float64, len(cfg.DomainScores))
	for domain, score := range cfg.DomainScores {
		scores[strings.ToLower(domain)] = score
	}
	return &AuthorityIndex{
		scores:  scores,
		unknown: unknownScore,
		tiers: []tierRoster{
			{model.TierMajor, cfg.MajorDomains},
			{model.TierMidTier, cfg.MidTierDomains},
			{model.TierNiche, cfg.NicheDomains},
			{model.TierAlternative, cfg.AlternativeDomains},
		},
	}
}

// Score returns the authority score for a domain. Subdomains inherit
// their parent's score (pricing.hubspot.com scores as hubspot.com).
func (a *AuthorityIndex) Score(domain string) float64 {
	domain = strings.ToLower(domain)
	if score, ok := a.scores[domain]; ok {
		return score
	}
	for known, score := range a.scores {
		if strings.HasSuffix(domain, "."+known) {
			return score
		}
	}
	return a.unknown
}

// Tier returns the source tier for a domain; domains on no roster are
// emerging.
func (a *AuthorityIndex) Tier(domain string) model.SourceTier {
	domain = strings.ToLower(domain)
	for _, roster := range a.tiers {
		for _, d := range roster.domains {
			if domain == d || strings.HasSuffix(domain, "."+d) {
				return roster.tier
			}
		}
	}
	return model.TierEmerging
}

// tierDiversityPreference biases selection away from dominant,
// repeatedly-seen sources: lower tiers score higher.
func tierDiversityPreference(tier model.SourceTier) float64 {
	switch tier {
	case model.TierAlternative:
		return 1.0
	case model.TierEmerging:
		return 0.9
	case model.TierNiche:
		return 0.8
	case model.TierMidTier:
		return 0.5
	case model.TierMajor:
		return 0.2
	default:
		return 0.5
	}
}
