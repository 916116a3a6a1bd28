package model

// ClaimCategory categorizes the searchable intent of a claim
type ClaimCategory string

const (
	CategoryRealEstateResearch        ClaimCategory = "real_estate_research"
	CategoryFinancialServicesResearch ClaimCategory = "financial_services_research"
	CategoryInvestmentResearch        ClaimCategory = "investment_research"
	CategoryPricingResearch           ClaimCategory = "pricing_research"
	CategoryProductEvaluation         ClaimCategory = "product_evaluation"
	CategoryCompanyResearch           ClaimCategory = "company_research"
	CategoryGeneralActivity           ClaimCategory = "general_activity"
)

// EntityKind identifies which entity bucket a token was extracted into
type EntityKind string

const (
	EntityCompanies    EntityKind = "companies"
	EntityProducts     EntityKind = "products"
	EntityActivities   EntityKind = "activities"
	EntityPricingTerms EntityKind = "pricing_terms"
)

// Claim represents a unit of searchable intent extracted from a
// candidate's behavioral explanation. Claims are immutable values,
// created per sentence and discarded after the candidate is processed.
type Claim struct {
	Text        string                  `json:"text"`                   // Source sentence/fragment
	Category    ClaimCategory           `json:"category"`               // First matching category in the waterfall
	Entities    map[EntityKind][]string `json:"entities,omitempty"`     // Lowercase tokens per entity kind
	SearchTerms []string                `json:"search_terms,omitempty"` // Top keywords used to build queries
	Priority    int                     `json:"priority"`               // 1-10
	Confidence  float64                 `json:"confidence"`             // 0-1
}

// HasEntities reports whether any of the given entity buckets is
// non-empty. With no arguments it checks every bucket.
func (c Claim) HasEntities(kinds ...EntityKind) bool {
	if len(kinds) == 0 {
		for _, tokens := range c.Entities {
			if len(tokens) > 0 {
				return true
			}
		}
		return false
	}
	for _, kind := range kinds {
		if len(c.Entities[kind]) > 0 {
			return true
		}
	}
	return false
}

// FirstEntity returns the first token of the given kind, or "".
func (c Claim) FirstEntity(kind EntityKind) string {
	if tokens := c.Entities[kind]; len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}
