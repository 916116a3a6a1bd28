package model

// Query represents a single search request descriptor. Queries are
// generated per claim, consumed immediately by the search provider,
// and discarded after use.
type Query struct {
	Text            string   `json:"text"`
	ExpectedDomains []string `json:"expected_domains,omitempty"` // Domains the query is expected to surface
	Priority        float64  `json:"priority"`
	Strategy        string   `json:"strategy"` // Provenance label, e.g. "alternative_company_pricing"
}

// RawURLCandidate is an unvalidated search hit as returned by a provider.
type RawURLCandidate struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Domain   string `json:"domain,omitempty"`
	PageType string `json:"page_type,omitempty"` // Provider-detected page type, if any
}

// SearchResult is the outcome of executing one query against a provider.
// A failed query carries Success=false and zero candidates; the pipeline
// treats that as "no results", never as a fatal error.
type SearchResult struct {
	Query   Query             `json:"query"`
	Raw     []RawURLCandidate `json:"raw,omitempty"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
}
