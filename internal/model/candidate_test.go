package model

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestCandidateUnmarshalVariants(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		wantID   string
		wantName string
		wantExpl []string
	}{
		{
			name:     "person_id with reasons array",
			in:       `{"person_id":"p1","name":"Jordan Blake","reasons":["Researching CRM pricing","Visited demo page"]}`,
			wantID:   "p1",
			wantName: "Jordan Blake",
			wantExpl: []string{"Researching CRM pricing", "Visited demo page"},
		},
		{
			name:     "id wins over person_id",
			in:       `{"id":"a","person_id":"b","full_name":"Casey"}`,
			wantID:   "a",
			wantName: "Casey",
		},
		{
			name:     "numeric id",
			in:       `{"id":42,"name":"Sam"}`,
			wantID:   "42",
			wantName: "Sam",
		},
		{
			name:     "behavioral_insight scalar",
			in:       `{"name":"Alex","behavioral_insight":"Comparing loan rates"}`,
			wantName: "Alex",
			wantExpl: []string{"Comparing loan rates"},
		},
		{
			name:     "multiple explanation keys accumulate",
			in:       `{"name":"Riley","reasons":["one"],"activity_summary":"two"}`,
			wantName: "Riley",
			wantExpl: []string{"one", "two"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Candidate
			if err := json.Unmarshal([]byte(tc.in), &c); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if c.ID != tc.wantID {
				t.Errorf("ID = %q, want %q", c.ID, tc.wantID)
			}
			if c.Name != tc.wantName {
				t.Errorf("Name = %q, want %q", c.Name, tc.wantName)
			}
			if !reflect.DeepEqual(c.Explanations, tc.wantExpl) {
				t.Errorf("Explanations = %v, want %v", c.Explanations, tc.wantExpl)
			}
		})
	}
}

func TestCandidateUnmarshalRejectsNonObject(t *testing.T) {
	var c Candidate
	if err := json.Unmarshal([]byte(`"just a string"`), &c); err == nil {
		t.Error("expected error for non-object record")
	}
}

func TestNameTokens(t *testing.T) {
	c := Candidate{Name: "Dr. Jordan Blake-Smith"}
	tokens := c.NameTokens()
	for _, want := range []string{"jordan"} {
		found := false
		for _, tok := range tokens {
			if tok == want {
				found = true
			}
		}
		if !found {
			t.Errorf("tokens %v missing %q", tokens, want)
		}
	}
}

func TestEnhancedCandidateMarshalPreservesOriginalFields(t *testing.T) {
	var c Candidate
	in := `{"person_id":"p1","name":"Jordan","company":"Acme","score":0.93,"reasons":["Researching CRM pricing"]}`
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatal(err)
	}

	e := EnhancedCandidate{
		Candidate:          &c,
		State:              StateRegistered,
		EvidenceURLs:       []EvidenceURL{{URL: "https://zoho.com/crm/pricing", Domain: "zoho.com"}},
		EvidenceSummary:    "1 source.",
		EvidenceConfidence: 0.7,
	}

	out, err := json.Marshal(&e)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)

	for _, want := range []string{
		`"person_id":"p1"`, `"company":"Acme"`, `"score":0.93`,
		`"evidence_urls"`, `"evidence_summary":"1 source."`,
		`"evidence_state":"REGISTERED"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %s: %s", want, text)
		}
	}
}

func TestEnhancedCandidateMarshalEmptyEvidenceIsArray(t *testing.T) {
	e := EnhancedCandidate{
		Candidate: &Candidate{Fields: map[string]json.RawMessage{}},
		State:     StateRegistered,
	}
	out, err := json.Marshal(&e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"evidence_urls":[]`) {
		t.Errorf("empty evidence must serialize as [], got %s", out)
	}
}
