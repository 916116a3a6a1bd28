// Package llm generates the optional human-readable evidence summary.
// Summaries are presentation only: they never feed back into scoring,
// selection or registration, and a summarizer failure degrades to the
// deterministic template text.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/evidra/evidra/internal/model"
)

// Summarizer produces a short summary of a candidate's evidence.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)
}

// SummarizeRequest carries everything the summarizer may mention. The
// evidence list is a strict allowlist: no URL outside it may appear in
// the output.
type SummarizeRequest struct {
	CandidateName string
	Claims        []model.Claim
	Evidence      []model.EvidenceURL
}

// NewSummarizer picks the summarizer for the configuration. An empty
// provider name selects the template summarizer.
func NewSummarizer(cfg model.LLMConfig) (Summarizer, error) {
	switch cfg.Provider {
	case "", "template":
		return TemplateSummarizer{}, nil
	case "openai":
		return NewOpenAISummarizer(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}

// TemplateSummarizer renders a deterministic summary with no network
// calls. It is the default and the fallback when an API summarizer
// fails.
type TemplateSummarizer struct{}

func (TemplateSummarizer) Name() string { return "template" }

// Summarize describes the evidence set: counts, domains and the
// dominant evidence types.
func (TemplateSummarizer) Summarize(_ context.Context, req SummarizeRequest) (string, error) {
	if len(req.Evidence) == 0 {
		return "No supporting evidence found.", nil
	}

	domains := make(map[string]struct{})
	typeCounts := make(map[model.EvidenceType]int)
	for _, ev := range req.Evidence {
		domains[ev.Domain] = struct{}{}
		typeCounts[ev.EvidenceType]++
	}

	types := make([]string, 0, len(typeCounts))
	for etype := range typeCounts {
		types = append(types, strings.ReplaceAll(string(etype), "_", " "))
	}
	sort.Strings(types)

	topic := "their stated research activity"
	if len(req.Claims) > 0 {
		topic = strings.ToLower(strings.TrimRight(req.Claims[0].Text, ".!?"))
	}

	return fmt.Sprintf("%d sources across %d domains support %s (%s).",
		len(req.Evidence), len(domains), topic, strings.Join(types, ", ")), nil
}

// BuildPrompt constructs the evidence-constrained summarization prompt.
func BuildPrompt(req SummarizeRequest) string {
	var b strings.Builder
	b.WriteString("Summarize the web evidence gathered for a sales prospect's research activity.\n\n")
	b.WriteString("RULES:\n")
	b.WriteString("1. Mention ONLY the URLs listed below; never invent or recall other sources.\n")
	b.WriteString("2. Describe what the evidence shows, not whether it is true.\n")
	b.WriteString("3. Do not mention the prospect by name.\n\n")

	b.WriteString("Research claims:\n")
	for i, claim := range req.Claims {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", claim.Text)
	}

	b.WriteString("\nEvidence URLs:\n")
	for _, ev := range req.Evidence {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", ev.URL, ev.EvidenceType, ev.SourceTier)
	}

	b.WriteString("\nWrite 2-3 sentences.")
	return b.String()
}
