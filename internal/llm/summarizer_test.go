package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/evidra/evidra/internal/model"
)

func TestNewSummarizerDefaultsToTemplate(t *testing.T) {
	s, err := NewSummarizer(model.LLMConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Name() != "template" {
		t.Errorf("default summarizer = %q, want template", s.Name())
	}
}

func TestNewSummarizerUnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(model.LLMConfig{Provider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewSummarizerOpenAIRequiresKey(t *testing.T) {
	if _, err := NewSummarizer(model.LLMConfig{Provider: "openai"}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestTemplateSummarizer(t *testing.T) {
	req := SummarizeRequest{
		Claims: []model.Claim{{Text: "Comparing CRM subscription pricing plans."}},
		Evidence: []model.EvidenceURL{
			{URL: "https://zoho.com/crm/pricing", Domain: "zoho.com", EvidenceType: model.EvidencePricingPage},
			{URL: "https://g2.com/products/zoho-crm", Domain: "g2.com", EvidenceType: model.EvidenceComparison},
		},
	}

	summary, err := TemplateSummarizer{}.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(summary, "2 sources across 2 domains") {
		t.Errorf("summary missing counts: %q", summary)
	}
	if !strings.Contains(summary, "comparing crm subscription pricing plans") {
		t.Errorf("summary missing claim topic: %q", summary)
	}
}

func TestTemplateSummarizerEmpty(t *testing.T) {
	summary, err := TemplateSummarizer{}.Summarize(context.Background(), SummarizeRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "No supporting evidence found." {
		t.Errorf("unexpected empty summary: %q", summary)
	}
}

func TestBuildPromptListsOnlyGivenURLs(t *testing.T) {
	req := SummarizeRequest{
		CandidateName: "Jordan Example",
		Claims:        []model.Claim{{Text: "Researching luxury real estate listings."}},
		Evidence:      []model.EvidenceURL{{URL: "https://trulia.com/ct/greenwich", EvidenceType: model.EvidenceGeneral, SourceTier: model.TierMidTier}},
	}
	prompt := BuildPrompt(req)
	if !strings.Contains(prompt, "https://trulia.com/ct/greenwich") {
		t.Error("prompt must list the evidence URL")
	}
	if strings.Contains(prompt, "Jordan Example") {
		t.Error("prompt must not leak the candidate name")
	}
}
