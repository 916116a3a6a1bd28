package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// explanationKeys are the candidate-record fields recognized as
// behavioral explanation text. Both string and []string values are
// accepted under any of them.
var explanationKeys = []string{
	"reasons",
	"behavioral_insight",
	"behavioral_insights",
	"explanation",
	"explanations",
	"activity_summary",
	"insights",
}

// nameKeys are the fields a person's display name may arrive under.
// Name tokens must never leak into generated query text, so the field
// is extracted explicitly rather than left opaque.
var nameKeys = []string{"name", "full_name", "person_name"}

// Candidate is a free-form person record at the batch boundary. All
// original fields are preserved in Fields and passed through unchanged;
// ID, Name and Explanations are the views the pipeline consumes.
type Candidate struct {
	ID           string
	Name         string
	Explanations []string
	Fields       map[string]json.RawMessage
}

// UnmarshalJSON decodes a candidate from an arbitrary JSON object,
// pulling out the identifier, name and explanation strings and keeping
// every original field for passthrough.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("candidate record must be a JSON object: %w", err)
	}
	c.Fields = fields

	if raw, ok := fields["id"]; ok {
		c.ID = decodeScalar(raw)
	}
	if c.ID == "" {
		if raw, ok := fields["person_id"]; ok {
			c.ID = decodeScalar(raw)
		}
	}

	for _, key := range nameKeys {
		if raw, ok := fields[key]; ok {
			if name := decodeScalar(raw); name != "" {
				c.Name = name
				break
			}
		}
	}

	for _, key := range explanationKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		for _, s := range decodeStrings(raw) {
			if s = strings.TrimSpace(s); s != "" {
				c.Explanations = append(c.Explanations, s)
			}
		}
	}

	return nil
}

// decodeScalar reads a JSON string or number as a string.
func decodeScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeStrings reads a JSON string or array of strings.
func decodeStrings(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}

// NameTokens returns the lowercase tokens of the candidate's name,
// used to keep person-identifying terms out of query text.
func (c *Candidate) NameTokens() []string {
	if c.Name == "" {
		return nil
	}
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(c.Name)) {
		t = strings.Trim(t, ".,-")
		if len(t) >= 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// CandidateState tracks a candidate's progress through the selection
// pipeline. REGISTERED is the only success terminal; an empty evidence
// list in REGISTERED is a normal outcome, not an error.
type CandidateState string

const (
	StatePending          CandidateState = "PENDING"
	StateClaimsExtracted  CandidateState = "CLAIMS_EXTRACTED"
	StateQueriesGenerated CandidateState = "QUERIES_GENERATED"
	StateSearched         CandidateState = "SEARCHED"
	StateScored           CandidateState = "SCORED"
	StateSelected         CandidateState = "SELECTED"
	StateRegistered       CandidateState = "REGISTERED"
	StateError            CandidateState = "ERROR"
)

// EnhancedCandidate is the batch output: the original record plus the
// selected evidence set, a summary and an aggregate confidence.
type EnhancedCandidate struct {
	Candidate          *Candidate
	State              CandidateState
	EvidenceURLs       []EvidenceURL
	EvidenceSummary    string
	EvidenceConfidence float64
	FailureReason      string // Machine-readable reason when State is ERROR or evidence is empty
}

// MarshalJSON emits the original candidate fields unchanged with the
// evidence fields appended.
func (e *EnhancedCandidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Candidate.Fields)+5)
	for k, v := range e.Candidate.Fields {
		out[k] = v
	}
	urls := e.EvidenceURLs
	if urls == nil {
		urls = []EvidenceURL{}
	}
	out["evidence_urls"] = urls
	out["evidence_summary"] = e.EvidenceSummary
	out["evidence_confidence"] = e.EvidenceConfidence
	out["evidence_state"] = e.State
	if e.FailureReason != "" {
		out["evidence_failure_reason"] = e.FailureReason
	}
	return json.Marshal(out)
}
