// Package retrieval turns ranked nearest-neighbor matches into an answer
// string under a confidence threshold.
package retrieval

import (
	"context"
	"strings"

	"github.com/vetlabs/vetassist/internal/domain"
)

// Spanish answer framing. Single confident matches are passed through with no
// framing at all: downstream stages rely on being able to tell verified source
// text from anything generated or labeled.
const (
	notFoundAnswer      = "No se encontró información relevante en la base de conocimientos."
	lowConfidenceHeader = "⚠️ Información potencialmente relacionada (no verificada):"
	multiMatchHeader    = "Se encontraron múltiples resultados relevantes:"
)

// Outcome names which decision branch produced the answer.
type Outcome string

const (
	OutcomeNotFound      Outcome = "not_found"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeSingle        Outcome = "single_match"
	OutcomeMultiple      Outcome = "multiple_matches"
)

// Searcher defines the interface for querying the embedding index.
type Searcher interface {
	Query(ctx context.Context, text string, topK int) ([]domain.Match, error)
}

// Result is the retrieval verdict for one query. Answer is always non-empty
// for a non-empty query; there is no silent branch.
type Result struct {
	Outcome   Outcome
	Answer    string
	Matches   []domain.Match
	Confident []domain.Match
}

// Engine applies the distance threshold to raw index matches and formats the
// answer. The threshold is the critical tuning knob: too loose and unrelated
// chunks leak into answers, too strict and valid queries degrade to not-found.
// It is calibrated per embedding model and distance metric and therefore
// injected, never hardcoded.
type Engine struct {
	index     Searcher
	threshold float32
	topK      int
}

// NewEngine creates a new retrieval Engine instance
func NewEngine(index Searcher, threshold float32, topK int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{index: index, threshold: threshold, topK: topK}
}

// Threshold returns the configured distance threshold.
func (e *Engine) Threshold() float32 {
	return e.threshold
}

// Retrieve queries the index and decides what to surface:
//   - no raw matches at all: the not-found answer (terminal, not an error)
//   - no match under the threshold: the single best raw match, labeled
//     low-confidence
//   - exactly one match under the threshold: its content verbatim
//   - several matches under the threshold: all of them as a bulleted list
//
// Matches arrive ordered by ascending distance and ties keep that order, so
// partitioning never reorders anything.
func (e *Engine) Retrieve(ctx context.Context, query string) (*Result, error) {
	return e.RetrieveTopK(ctx, query, e.topK)
}

// RetrieveTopK is Retrieve with an explicit result bound, used by the debug
// search endpoint. Non-positive topK falls back to the configured default.
func (e *Engine) RetrieveTopK(ctx context.Context, query string, topK int) (*Result, error) {
	if topK <= 0 {
		topK = e.topK
	}
	matches, err := e.index.Query(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return &Result{Outcome: OutcomeNotFound, Answer: notFoundAnswer}, nil
	}

	var confident []domain.Match
	for _, m := range matches {
		if m.Distance < e.threshold {
			confident = append(confident, m)
		}
	}

	result := &Result{Matches: matches, Confident: confident}
	switch len(confident) {
	case 0:
		result.Outcome = OutcomeLowConfidence
		result.Answer = lowConfidenceHeader + "\n\n" + matches[0].Content
	case 1:
		result.Outcome = OutcomeSingle
		result.Answer = confident[0].Content
	default:
		result.Outcome = OutcomeMultiple
		result.Answer = formatMultiMatch(confident)
	}
	return result, nil
}

func formatMultiMatch(confident []domain.Match) string {
	var b strings.Builder
	b.WriteString(multiMatchHeader)
	for _, m := range confident {
		b.WriteString("\n\n- ")
		b.WriteString(m.Content)
	}
	return b.String()
}
