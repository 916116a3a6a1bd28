// Package query turns claims into ranked search queries. The generator
// blends direct/official, alternative-source, niche-source, diversity
// modifier, and discovery-platform strategies, rotating the source
// tables by a caller-supplied seed so successive candidates lead with
// different sources.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evidra/evidra/internal/model"
)

// Strategy priorities. Alternative sources outrank direct/official
// queries only when the caller opts into alternative-first selection.
const (
	priorityDirect           = 0.90
	priorityAlternative      = 0.85
	priorityAlternativeFirst = 0.95
	priorityNiche            = 0.70
	priorityDiversityBase    = 0.68
	priorityDiscovery        = 0.65
)

const (
	maxQueries            = 8
	maxAlternativeQueries = 3
	maxNicheQueries       = 2
	maxDiscoveryQueries   = 2
	maxDiversityQueries   = 3
)

// Generator builds search queries for claims. It holds only static
// source tables; rotation state is passed in per call so behavior is
// reproducible without shared counters.
type Generator struct {
	sources                model.SourcesConfig
	prioritizeAlternatives bool
}

// NewGenerator creates a generator over the given source tables.
func NewGenerator(sources model.SourcesConfig, prioritizeAlternatives bool) *Generator {
	return &Generator{
		sources:                sources,
		prioritizeAlternatives: prioritizeAlternatives,
	}
}

// Generate produces an ordered list of at most eight queries for the
// claim. Sources whose domain appears in excluded are skipped, and the
// rotation seed offsets the alternative-source and discovery-platform
// tables deterministically. Query text never contains the candidate
// person's identity; the claim carries no person tokens and the caller
// additionally filters with DropPersonTokens.
func (g *Generator) Generate(claim model.Claim, excluded map[string]struct{}, seed int) []model.Query {
	var queries []model.Query
	queries = append(queries, g.directQueries(claim)...)
	queries = append(queries, g.alternativeQueries(claim, excluded, seed)...)
	queries = append(queries, g.nicheQueries(claim, excluded)...)
	queries = append(queries, g.diversityQueries(claim, excluded)...)
	queries = append(queries, g.discoveryQueries(claim, seed)...)

	// Stable sort: ties keep generation order, i.e. strategy index.
	sort.SliceStable(queries, func(i, j int) bool {
		return queries[i].Priority > queries[j].Priority
	})

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

// directQueries targets the official domain of an explicitly named
// company.
func (g *Generator) directQueries(claim model.Claim) []model.Query {
	company := claim.FirstEntity(model.EntityCompanies)
	if company == "" {
		return nil
	}

	topic := claim.FirstEntity(model.EntityPricingTerms)
	if topic == "" {
		topic = "overview"
	}

	return []model.Query{
		{
			Text:            fmt.Sprintf("%s %s official", company, topic),
			ExpectedDomains: []string{company + ".com"},
			Priority:        priorityDirect,
			Strategy:        "direct_official",
		},
		{
			Text:            fmt.Sprintf("%s %s", company, strings.Join(tailTerms(claim.SearchTerms, 1, 3), " ")),
			ExpectedDomains: []string{company + ".com"},
			Priority:        priorityDirect - 0.02,
			Strategy:        "direct_terms",
		},
	}
}

// alternativeQueries draws from the per-category alternative-source
// directory, rotated by seed and excluding already-used sources. This
// is the core anti-repetition strategy.
func (g *Generator) alternativeQueries(claim model.Claim, excluded map[string]struct{}, seed int) []model.Query {
	available := filterSources(g.sources.Alternatives[claim.Category], excluded)
	if len(available) == 0 {
		return nil
	}

	priority := priorityAlternative
	if g.prioritizeAlternatives {
		priority = priorityAlternativeFirst
	}

	terms := strings.Join(headTerms(claim.SearchTerms, 2), " ")
	var queries []model.Query
	for i, src := range rotate(available, seed) {
		if i >= maxAlternativeQueries {
			break
		}
		queries = append(queries, model.Query{
			Text:            fmt.Sprintf("%s %s", src.Name, terms),
			ExpectedDomains: []string{src.Domain},
			Priority:        priority - float64(i)*0.01,
			Strategy:        "alternative_" + string(claim.Category),
		})
	}
	return queries
}

// nicheQueries draws from the smaller specialized-source table.
func (g *Generator) nicheQueries(claim model.Claim, excluded map[string]struct{}) []model.Query {
	available := filterSources(g.sources.Niche[claim.Category], excluded)

	terms := strings.Join(headTerms(claim.SearchTerms, 2), " ")
	var queries []model.Query
	for i, src := range available {
		if i >= maxNicheQueries {
			break
		}
		queries = append(queries, model.Query{
			Text:            fmt.Sprintf("%s %s", src.Name, terms),
			ExpectedDomains: []string{src.Domain},
			Priority:        priorityNiche - float64(i)*0.01,
			Strategy:        "niche_" + string(claim.Category),
		})
	}
	return queries
}

// diversityQueries appends generic diversity modifiers at three
// escalating levels. The level grows with the exclusion set: the more
// sources a batch has burned, the harder the queries push away from
// the mainstream.
func (g *Generator) diversityQueries(claim model.Claim, excluded map[string]struct{}) []model.Query {
	base := strings.Join(headTerms(claim.SearchTerms, 3), " ")
	if base == "" {
		return nil
	}

	level := diversityLevel(len(excluded))

	var queries []model.Query
	add := func(text, tag string, rank int) {
		queries = append(queries, model.Query{
			Text:     text,
			Priority: priorityDiversityBase - float64(rank)*0.01,
			Strategy: tag,
		})
	}

	add(base+" alternatives", "diversity_level1", 0)
	if level >= 2 {
		add(base+" lesser known options", "diversity_level2", 1)
	}
	if level >= 3 {
		domains := make([]string, 0, len(excluded))
		for domain := range excluded {
			domains = append(domains, domain)
		}
		sort.Strings(domains)
		if len(domains) > 2 {
			domains = domains[:2]
		}
		text := base
		for _, domain := range domains {
			text += " -" + bareName(domain)
		}
		add(text, "diversity_level3", 2)
	}

	if len(queries) > maxDiversityQueries {
		queries = queries[:maxDiversityQueries]
	}
	return queries
}

// discoveryQueries targets third-party discovery platforms, rotated by
// seed so successive candidates start at different platforms.
func (g *Generator) discoveryQueries(claim model.Claim, seed int) []model.Query {
	platforms := g.sources.DiscoveryPlatforms
	if len(platforms) == 0 {
		return nil
	}

	terms := strings.Join(headTerms(claim.SearchTerms, 2), " ")
	if terms == "" {
		return nil
	}

	var queries []model.Query
	for i, p := range rotate(platforms, seed) {
		if i >= maxDiscoveryQueries {
			break
		}
		queries = append(queries, model.Query{
			Text:            fmt.Sprintf("%s site:%s", terms, p.Domain),
			ExpectedDomains: []string{p.Domain},
			Priority:        priorityDiscovery - float64(i)*0.01,
			Strategy:        "discovery_platform",
		})
	}
	return queries
}

// DropPersonTokens removes queries whose text contains any of the given
// person-identifying tokens. Person names leaking into query text is a
// known defect class; this is the last line of defense.
func DropPersonTokens(queries []model.Query, tokens []string) []model.Query {
	if len(tokens) == 0 {
		return queries
	}
	kept := queries[:0]
	for _, q := range queries {
		lower := strings.ToLower(q.Text)
		leaked := false
		for _, tok := range tokens {
			if containsToken(lower, tok) {
				leaked = true
				break
			}
		}
		if !leaked {
			kept = append(kept, q)
		}
	}
	return kept
}

// diversityLevel maps the exclusion-set size to an escalation level.
func diversityLevel(excludedCount int) int {
	switch {
	case excludedCount <= 2:
		return 1
	case excludedCount <= 5:
		return 2
	default:
		return 3
	}
}

// rotate returns list reordered to start at offset seed mod len.
func rotate(list []model.Source, seed int) []model.Source {
	n := len(list)
	if n == 0 {
		return nil
	}
	offset := seed % n
	if offset < 0 {
		offset += n
	}
	out := make([]model.Source, 0, n)
	out = append(out, list[offset:]...)
	out = append(out, list[:offset]...)
	return out
}

// filterSources drops sources whose domain is excluded.
func filterSources(sources []model.Source, excluded map[string]struct{}) []model.Source {
	var out []model.Source
	for _, s := range sources {
		if _, used := excluded[s.Domain]; !used {
			out = append(out, s)
		}
	}
	return out
}

func headTerms(terms []string, n int) []string {
	if len(terms) > n {
		return terms[:n]
	}
	return terms
}

func tailTerms(terms []string, from, to int) []string {
	if from >= len(terms) {
		return nil
	}
	if to > len(terms) {
		to = len(terms)
	}
	return terms[from:to]
}

// bareName strips the TLD from a domain for use as a query exclusion
// operator ("salesforce.com" -> "salesforce").
func bareName(domain string) string {
	if i := strings.Index(domain, "."); i > 0 {
		return domain[:i]
	}
	return domain
}

// containsToken matches tok in s on word boundaries.
func containsToken(s, tok string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], tok)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(tok)
		beforeOK := start == 0 || !isAlnum(s[start-1])
		afterOK := end == len(s) || !isAlnum(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
