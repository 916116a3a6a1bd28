package extract

import (
	"reflect"
	"strings"
	"testing"

	"github.com/evidra/evidra/internal/model"
)

func TestExtract_RequiresAllThreeConditions(t *testing.T) {
	e := NewClaimExtractor()

	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "activity and topic and length",
			text: "Visited the Salesforce pricing page several times last week.",
			want: 1,
		},
		{
			name: "topic without activity marker",
			text: "Salesforce pricing is listed on their public website page.",
			want: 0,
		},
		{
			name: "activity without topic marker",
			text: "Spent the afternoon researching things around the neighborhood quietly.",
			want: 0,
		},
		{
			name: "too short despite markers",
			text: "Researching CRM pricing now.",
			want: 0,
		},
		{
			name: "empty input",
			text: "",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := e.Extract(tt.text)
			if len(claims) != tt.want {
				t.Errorf("Extract(%q) = %d claims, want %d", tt.text, len(claims), tt.want)
			}
		})
	}
}

func TestExtract_CategoryWaterfallOrder(t *testing.T) {
	e := NewClaimExtractor()

	// Real-estate keywords and generic investment keywords collide; the
	// waterfall must resolve to real estate every time.
	text := "Researching real estate investment forums in Greenwich with a focus on pricing."

	for i := 0; i < 10; i++ {
		claims := e.Extract(text)
		if len(claims) == 0 {
			t.Fatal("expected at least one claim")
		}
		if claims[0].Category != model.CategoryRealEstateResearch {
			t.Fatalf("run %d: category = %s, want %s", i, claims[0].Category, model.CategoryRealEstateResearch)
		}
	}
}

func TestExtract_CategoryAssignment(t *testing.T) {
	e := NewClaimExtractor()

	tests := []struct {
		text string
		want model.ClaimCategory
	}{
		{"Comparing mortgage loan costs across several banks this quarter.", model.CategoryFinancialServicesResearch},
		{"Evaluating ETF portfolio trading platform costs before year end.", model.CategoryInvestmentResearch},
		{"Researching CRM subscription pricing for a thirty seat team.", model.CategoryPricingResearch},
		{"Reviewing feature comparison pages for the CRM platform demos.", model.CategoryProductEvaluation},
	}

	for _, tt := range tests {
		claims := e.Extract(tt.text)
		if len(claims) == 0 {
			t.Errorf("Extract(%q): no claims", tt.text)
			continue
		}
		if claims[0].Category != tt.want {
			t.Errorf("Extract(%q) category = %s, want %s", tt.text, claims[0].Category, tt.want)
		}
	}
}

func TestExtract_CompanyEntityRaisesPriority(t *testing.T) {
	e := NewClaimExtractor()

	withCompany := e.Extract("Researching HubSpot pricing plans for the sales organization.")
	withoutCompany := e.Extract("Researching pricing plans for a new sales tool stack.")

	if len(withCompany) == 0 || len(withoutCompany) == 0 {
		t.Fatal("expected claims from both inputs")
	}
	if got := withCompany[0].Entities[model.EntityCompanies]; len(got) == 0 || got[0] != "hubspot" {
		t.Errorf("companies = %v, want [hubspot]", got)
	}
	if withCompany[0].Priority <= withoutCompany[0].Priority {
		t.Errorf("company claim priority %d should exceed no-company priority %d",
			withCompany[0].Priority, withoutCompany[0].Priority)
	}
}

func TestExtract_CapsAtFiveClaims(t *testing.T) {
	e := NewClaimExtractor()

	var sb strings.Builder
	subjects := []string{"Salesforce", "HubSpot", "Zoho", "Pipedrive", "Freshworks", "Insightly", "Zendesk"}
	for _, s := range subjects {
		sb.WriteString("Researching " + s + " pricing plans for the whole team. ")
	}

	claims := e.Extract(sb.String())
	if len(claims) > 5 {
		t.Errorf("got %d claims, want at most 5", len(claims))
	}
	if len(claims) < 5 {
		t.Errorf("got %d claims, want 5 from 7 qualifying sentences", len(claims))
	}

	// Ordered by (priority, confidence) descending.
	for i := 1; i < len(claims); i++ {
		if claims[i].Priority > claims[i-1].Priority {
			t.Errorf("claims not ordered by priority: %d before %d", claims[i-1].Priority, claims[i].Priority)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewClaimExtractor()
	text := "Visited luxury real estate sites for Greenwich CT and compared property pricing."

	first := e.Extract(text)
	for i := 0; i < 5; i++ {
		if got := e.Extract(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("extraction not deterministic on run %d", i)
		}
	}
}

func TestExtract_SearchTermsLeadWithCompanies(t *testing.T) {
	e := NewClaimExtractor()

	claims := e.Extract("Comparing Pipedrive subscription pricing against other CRM platforms.")
	if len(claims) == 0 {
		t.Fatal("expected a claim")
	}
	terms := claims[0].SearchTerms
	if len(terms) == 0 || terms[0] != "pipedrive" {
		t.Errorf("search terms = %v, want pipedrive first", terms)
	}
	if len(terms) > maxSearchTerms {
		t.Errorf("got %d search terms, want at most %d", len(terms), maxSearchTerms)
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Researched CRM pricing for weeks. Compared vendor demos carefully! Too short."
	sentences := splitSentences(text)
	if len(sentences) != 3 {
		t.Fatalf("got %d sentences, want 3: %v", len(sentences), sentences)
	}
}
