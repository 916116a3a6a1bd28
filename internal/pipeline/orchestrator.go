// Package pipeline drives one candidate through the full enhancement
// flow: claims, queries, search, scoring, diverse selection and global
// registration. Every stage degrades instead of failing the candidate;
// a record that enters the pipeline always comes out with a terminal
// state.
package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/evidra/evidra/internal/extract"
	"github.com/evidra/evidra/internal/llm"
	"github.com/evidra/evidra/internal/model"
	"github.com/evidra/evidra/internal/query"
	"github.com/evidra/evidra/internal/registry"
	"github.com/evidra/evidra/internal/score"
	"github.com/evidra/evidra/internal/search"
	"github.com/evidra/evidra/internal/verify"
)

// Orchestrator wires the pipeline stages together. One orchestrator
// serves a whole batch; all per-candidate state lives on the stack.
type Orchestrator struct {
	cfg        *model.Config
	extractor  *extract.ClaimExtractor
	generator  *query.Generator
	provider   search.Provider
	scorer     *score.Scorer
	registry   *registry.Registry
	summarizer llm.Summarizer
	verifier   *verify.Verifier
}

// New builds an orchestrator over a shared registry and provider.
func New(cfg *model.Config, provider search.Provider, reg *registry.Registry, summarizer llm.Summarizer) *Orchestrator {
	if summarizer == nil {
		summarizer = llm.TemplateSummarizer{}
	}
	authority := score.NewAuthorityIndex(cfg.Authority, cfg.Scoring.UnknownDomainAuthority)

	o := &Orchestrator{
		cfg:        cfg,
		extractor:  extract.NewClaimExtractor(),
		generator:  query.NewGenerator(cfg.Sources, cfg.Selection.PrioritizeAlternatives),
		provider:   provider,
		scorer:     score.NewScorer(cfg.Scoring, authority, cfg.Registry.DomainCapGlobal),
		registry:   reg,
		summarizer: summarizer,
	}
	if cfg.Verify.Enabled {
		o.verifier = verify.NewVerifier(cfg.Verify, cfg.Search.UserAgent, cfg.Search.HTTPProxy, cfg.Search.HTTPSProxy)
	}
	return o
}

// scoredHit pairs an evidence URL with the claim that surfaced it.
type scoredHit struct {
	ev    model.EvidenceURL
	claim model.Claim
}

// Enhance runs one candidate through the pipeline. seed is the batch
// ordinal; it rotates query source tables so near-identical candidates
// fan out to different sites. Enhance never returns nil.
func (o *Orchestrator) Enhance(ctx context.Context, cand *model.Candidate, seed int) *model.EnhancedCandidate {
	result := &model.EnhancedCandidate{
		Candidate: cand,
		State:     model.StatePending,
	}

	if timeout := o.cfg.Concurrency.CandidateTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	claims := o.extractor.Extract(strings.Join(cand.Explanations, " "))
	result.State = model.StateClaimsExtracted
	if len(claims) == 0 {
		return o.finish(ctx, result, nil, "no_searchable_claims")
	}
	if max := o.cfg.Concurrency.ClaimsPerCandidate; max > 0 && len(claims) > max {
		claims = claims[:max]
	}

	queries, claimFor := o.buildQueries(cand, claims, seed)
	result.State = model.StateQueriesGenerated
	if len(queries) == 0 {
		return o.finish(ctx, result, claims, "no_queries_generated")
	}

	searchResults := search.SearchAll(ctx, o.provider, queries)
	result.State = model.StateSearched

	hits := o.scoreResults(searchResults, claimFor)
	result.State = model.StateScored
	if len(hits) == 0 {
		return o.finish(ctx, result, claims, "no_scorable_results")
	}

	selected := o.selectDiverse(hits)
	result.State = model.StateSelected

	if o.verifier != nil {
		selected = o.verifier.FilterAlive(ctx, selected)
	}

	registered := make([]model.EvidenceURL, 0, len(selected))
	for _, ev := range selected {
		// losers of a cross-candidate race are dropped, not retried
		if o.registry.Register(ev.URL, ev.Domain, cand.ID, ev.EvidenceType, ev.SourceTier) {
			registered = append(registered, ev)
		}
	}
	result.EvidenceURLs = registered

	reason := ""
	if len(registered) == 0 {
		reason = "no_evidence_selected"
	}
	return o.finish(ctx, result, claims, reason)
}

// buildQueries generates, name-filters and caps the queries for each
// claim, remembering which claim produced which query text.
func (o *Orchestrator) buildQueries(cand *model.Candidate, claims []model.Claim, seed int) ([]model.Query, map[string]model.Claim) {
	excluded := o.registry.ExcludedSources()
	nameTokens := cand.NameTokens()
	perClaim := o.cfg.Concurrency.QueriesPerClaim
	if perClaim <= 0 {
		perClaim = 3
	}

	var queries []model.Query
	claimFor := make(map[string]model.Claim)
	seen := make(map[string]struct{})
	for _, claim := range claims {
		qs := o.generator.Generate(claim, excluded, seed)
		qs = query.DropPersonTokens(qs, nameTokens)
		if len(qs) > perClaim {
			qs = qs[:perClaim]
		}
		for _, q := range qs {
			if _, dup := seen[q.Text]; dup {
				continue
			}
			seen[q.Text] = struct{}{}
			claimFor[q.Text] = claim
			queries = append(queries, q)
		}
	}
	return queries, claimFor
}

// scoreResults scores every raw hit against its originating claim and
// applies the relevance and quality floors. URLs already owned by the
// registry and duplicates within the candidate are skipped.
func (o *Orchestrator) scoreResults(results []model.SearchResult, claimFor map[string]model.Claim) []scoredHit {
	domainCounts := o.registry.DomainCounts()
	sel := o.cfg.Selection

	var hits []scoredHit
	seen := make(map[string]struct{})
	for _, res := range results {
		if !res.Success {
			continue
		}
		claim := claimFor[res.Query.Text]
		for _, raw := range res.Raw {
			key := registry.NormalizeURL(raw.URL)
			if _, dup := seen[key]; dup {
				continue
			}
			if !o.registry.IsAvailable(raw.URL) {
				continue
			}
			ev := o.scorer.Score(raw, claim, nil, domainCounts)
			if ev == nil {
				continue
			}
			if ev.QualityScore < sel.QualityFloor {
				continue
			}
			floor := sel.RelevanceFloor
			if ev.DiversityScore > sel.RelaxAboveDiversity {
				floor = sel.RelaxedRelevanceFloor
			}
			if ev.RelevanceScore < floor {
				continue
			}
			seen[key] = struct{}{}
			hits = append(hits, scoredHit{ev: *ev, claim: claim})
		}
	}
	return hits
}

// selectDiverse greedily picks up to MaxURLsPerCandidate evidence URLs,
// recomputing each remaining hit's diversity against the growing
// selected set before every pick. The per-candidate domain cap is a
// hard constraint.
func (o *Orchestrator) selectDiverse(hits []scoredHit) []model.EvidenceURL {
	sel := o.cfg.Selection
	remaining := make([]scoredHit, len(hits))
	copy(remaining, hits)

	var selected []model.EvidenceURL
	domainCounts := make(map[string]int)

	for len(selected) < sel.MaxURLsPerCandidate && len(remaining) > 0 {
		bestIdx := -1
		bestCombined := -1.0
		bestDiversity := 0.0

		for i, hit := range remaining {
			if domainCounts[hit.ev.Domain] >= sel.MaxSameDomainPerCandidate {
				continue
			}
			div := o.scorer.Diversity(hit.ev, selected)
			combined := sel.RelevanceWeight*hit.ev.RelevanceScore +
				sel.DiversityWeight*div +
				sel.QualityWeight*hit.ev.QualityScore
			if combined > bestCombined {
				bestIdx, bestCombined, bestDiversity = i, combined, div
			}
		}
		if bestIdx < 0 {
			break
		}

		pick := remaining[bestIdx].ev
		pick.DiversityScore = bestDiversity
		selected = append(selected, pick)
		domainCounts[pick.Domain]++
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RelevanceScore > selected[j].RelevanceScore
	})
	return selected
}

// finish computes the summary and aggregate confidence and marks the
// candidate terminal. Summarizer failures fall back to the template
// text.
func (o *Orchestrator) finish(ctx context.Context, result *model.EnhancedCandidate, claims []model.Claim, reason string) *model.EnhancedCandidate {
	result.State = model.StateRegistered
	result.FailureReason = reason
	if result.EvidenceURLs == nil {
		result.EvidenceURLs = []model.EvidenceURL{}
	}

	result.EvidenceConfidence = o.aggregateConfidence(result.EvidenceURLs)

	req := llm.SummarizeRequest{
		CandidateName: result.Candidate.Name,
		Claims:        claims,
		Evidence:      result.EvidenceURLs,
	}
	summary, err := o.summarizer.Summarize(ctx, req)
	if err != nil {
		summary, _ = llm.TemplateSummarizer{}.Summarize(ctx, req)
	}
	result.EvidenceSummary = summary
	return result
}

// aggregateConfidence blends each URL's relevance, quality and
// authority with the confidence weights and averages across the set.
func (o *Orchestrator) aggregateConfidence(evidence []model.EvidenceURL) float64 {
	if len(evidence) == 0 {
		return 0
	}
	w := o.cfg.Scoring.Confidence
	total := 0.0
	for _, ev := range evidence {
		total += w.Relevance*ev.RelevanceScore + w.Quality*ev.QualityScore + w.Authority*ev.DomainAuthority
	}
	return total / float64(len(evidence))
}
