package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/evidra/evidra/internal/model"
)

// Enhancer runs one candidate through the enhancement pipeline.
type Enhancer interface {
	Enhance(ctx context.Context, cand *model.Candidate, seed int) *model.EnhancedCandidate
}

// CandidateJob enhances one candidate. Ordinal is the candidate's
// position in the batch and doubles as the query rotation seed, so two
// look-alike candidates in one batch fan out to different sources.
type CandidateJob struct {
	Ordinal   int
	Candidate *model.Candidate
	Enhancer  Enhancer
}

// Execute runs the enhancement.
func (j *CandidateJob) Execute(ctx context.Context) Result {
	return &CandidateResult{
		Ordinal:  j.Ordinal,
		Enhanced: j.Enhancer.Enhance(ctx, j.Candidate, j.Ordinal),
	}
}

// CandidateResult is the outcome of one candidate job.
type CandidateResult struct {
	Ordinal  int
	Enhanced *model.EnhancedCandidate
}

// GetError always returns nil: enhancement failures surface as the
// candidate's error state, never as a job error.
func (r *CandidateResult) GetError() error { return nil }

// BatchProcessor enhances candidate batches concurrently. Input order
// is restored on output: candidate i in always yields result i out.
type BatchProcessor struct {
	enhancer    Enhancer
	concurrency int
}

// NewBatchProcessor creates a processor with the given worker count.
func NewBatchProcessor(enhancer Enhancer, concurrency int) *BatchProcessor {
	return &BatchProcessor{enhancer: enhancer, concurrency: concurrency}
}

// ProcessCandidates enhances every candidate and returns exactly one
// result per input, in input order.
func (b *BatchProcessor) ProcessCandidates(ctx context.Context, candidates []*model.Candidate) []*model.EnhancedCandidate {
	if len(candidates) == 0 {
		return []*model.EnhancedCandidate{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, cand := range candidates {
		pool.Submit(&CandidateJob{Ordinal: i, Candidate: cand, Enhancer: b.enhancer})
	}
	results := pool.Wait()

	enhanced := make([]*model.EnhancedCandidate, len(candidates))
	for _, result := range results {
		r := result.(*CandidateResult)
		enhanced[r.Ordinal] = r.Enhanced
	}
	// Jobs lost to cancellation still produce a terminal record.
	for i, e := range enhanced {
		if e == nil {
			enhanced[i] = &model.EnhancedCandidate{
				Candidate:     candidates[i],
				State:         model.StateError,
				EvidenceURLs:  []model.EvidenceURL{},
				FailureReason: "cancelled",
			}
		}
	}
	return enhanced
}

// ProcessFile reads a candidates JSON file and enhances every record.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*model.EnhancedCandidate, error) {
	candidates, err := ReadCandidatesFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return b.ProcessCandidates(ctx, candidates), nil
}

// ReadCandidatesFile parses a JSON array of candidate records; a single
// object is accepted as a batch of one. Candidates without an ID get a
// generated one.
func ReadCandidatesFile(path string) ([]*model.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return ParseCandidates(data)
}

// ParseCandidates decodes candidate JSON.
func ParseCandidates(data []byte) ([]*model.Candidate, error) {
	var candidates []*model.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		var single model.Candidate
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("parse candidates JSON: %w", err)
		}
		candidates = []*model.Candidate{&single}
	}

	for _, cand := range candidates {
		if cand.ID == "" {
			cand.ID = uuid.NewString()
		}
	}
	return candidates, nil
}

// WriteEnhancedFile writes the enhanced batch as a JSON array. An empty
// path writes to stdout.
func WriteEnhancedFile(path string, enhanced []*model.EnhancedCandidate) error {
	data, err := json.MarshalIndent(enhanced, "", "  ")
	if err != nil {
		return fmt.Errorf("encode enhanced candidates: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
