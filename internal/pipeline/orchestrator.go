// Package pipeline runs one user query through the fixed four-stage workflow:
// classify, retrieve, draft, review. Stages run in order, exactly once, and
// each reads only what earlier stages wrote into the turn context.
package pipeline

import (
	"context"
	"log"
	"strings"

	"github.com/vetlabs/vetassist/internal/domain"
	"github.com/vetlabs/vetassist/internal/retrieval"
	"github.com/vetlabs/vetassist/internal/telemetry"
)

// Completer defines the interface for chat completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Retriever defines the interface for the retrieval engine.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// SessionStore defines the interface for session history.
type SessionStore interface {
	Recent(sessionID string) []string
	Append(sessionID, query string)
}

// Pipeline orchestrates the four stages for one turn.
type Pipeline struct {
	llm       Completer
	retriever Retriever
	sessions  SessionStore
}

// NewPipeline creates a new Pipeline instance
func NewPipeline(llm Completer, retriever Retriever, sessions SessionStore) *Pipeline {
	return &Pipeline{llm: llm, retriever: retriever, sessions: sessions}
}

// Run executes the full pipeline for one query and returns the completed
// turn context. Failure semantics per stage:
//   - classify: fatal, nothing sensible can be answered without a type
//   - retrieve: fail open, the draft proceeds flagged as unverified
//   - draft: fatal
//   - review: fail open, the unreviewed draft is surfaced
//
// A detected emergency must keep its banner on every path, degraded or not.
func (p *Pipeline) Run(ctx context.Context, sessionID, query string) (*domain.TurnContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	turn := &domain.TurnContext{
		SessionID:     sessionID,
		Query:         query,
		RecentQueries: p.sessions.Recent(sessionID),
	}

	ctx, span := telemetry.StartSpan(ctx, "pipeline.run", telemetry.SpanAttributes{SessionID: sessionID})
	defer span.End()

	if err := p.runStage(ctx, turn, "classify", p.classify); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := p.runStage(ctx, turn, "retrieve", p.retrieve); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := p.runStage(ctx, turn, "draft", p.draft); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := p.runStage(ctx, turn, "review", p.review); err != nil {
		span.SetError(err)
		return nil, err
	}

	p.sessions.Append(sessionID, query)
	return turn, nil
}

func (p *Pipeline) runStage(ctx context.Context, turn *domain.TurnContext, name string, stage func(context.Context, *domain.TurnContext) error) error {
	ctx, span := telemetry.StartSpan(ctx, "pipeline."+name, telemetry.SpanAttributes{
		SessionID: turn.SessionID,
		Stage:     name,
	})
	defer span.End()

	if err := stage(ctx, turn); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// retrieve runs the second stage. When the classifier decided no search is
// needed the stage still writes an explicit marker; later stages must never
// have to guess whether retrieval was skipped or came back empty.
func (p *Pipeline) retrieve(ctx context.Context, turn *domain.TurnContext) error {
	if !turn.Classification.SearchNeeded {
		turn.RetrievalStatus = domain.RetrievalNotRequired
		return nil
	}

	result, err := p.retriever.Retrieve(ctx, turn.Classification.RefinedQuery)
	if err != nil {
		// fail open: the turn continues without verified content
		log.Printf("Retrieval failed for session %s, continuing unverified: %v", turn.SessionID, err)
		telemetry.CaptureError(ctx, domain.NewRetrievalError(err))
		turn.RetrievalStatus = domain.RetrievalFailed
		return nil
	}

	turn.RetrievalStatus = domain.RetrievalCompleted
	turn.RetrievedText = result.Answer
	turn.RetrievalGrounded = result.Outcome == retrieval.OutcomeSingle || result.Outcome == retrieval.OutcomeMultiple
	telemetry.AddBreadcrumb(ctx, "pipeline", "retrieval outcome "+string(result.Outcome))
	return nil
}

// draft runs the third stage. Failure is fatal to the turn.
func (p *Pipeline) draft(ctx context.Context, turn *domain.TurnContext) error {
	c := turn.Classification

	retrieved := ""
	switch turn.RetrievalStatus {
	case domain.RetrievalCompleted:
		retrieved = turn.RetrievedText
	case domain.RetrievalNotRequired:
		retrieved = SearchNotRequiredMarker
	case domain.RetrievalFailed:
		// nothing verified to pass on
	}

	draft, err := p.llm.Complete(ctx, draftSystemPrompt,
		draftPrompt(turn.Query, string(c.Type), string(c.Urgency), retrieved))
	if err != nil {
		if _, ok := domain.AsRateLimit(err); ok {
			return err
		}
		return domain.NewDraftError(err)
	}

	turn.DraftSource = draftSource(turn)
	turn.Draft = ensureBanners(draft, turn)
	return nil
}

// review runs the final stage. On failure the draft is surfaced unmodified;
// the disclaimer is still appended locally so a review outage never strips
// the educational framing from domain answers.
func (p *Pipeline) review(ctx context.Context, turn *domain.TurnContext) error {
	c := turn.Classification

	if c.Type != domain.QueryTypeDomain {
		// system and out-of-scope responses pass through unreviewed
		turn.Final = turn.Draft
		turn.Reviewed = true
		return nil
	}

	reviewed, err := p.llm.Complete(ctx, reviewSystemPrompt,
		reviewPrompt(turn.Query, string(c.Type), string(c.Urgency), turn.Draft))
	if err != nil {
		log.Printf("Review failed for session %s, surfacing draft: %v", turn.SessionID, err)
		telemetry.CaptureError(ctx, domain.NewReviewError(err))
		turn.Final = withDisclaimer(ensureBanners(turn.Draft, turn))
		turn.Reviewed = false
		return nil
	}

	turn.Final = withDisclaimer(ensureBanners(reviewed, turn))
	turn.Reviewed = true
	return nil
}

// ensureBanners guarantees the safety markers regardless of what the model
// produced: the emergency banner for emergencies, and the general-knowledge
// banner when nothing verified backed the answer.
func ensureBanners(text string, turn *domain.TurnContext) string {
	c := turn.Classification

	if turn.DraftSource == domain.SourceGeneralKnowledge && !strings.Contains(text, GeneralKnowledgeBanner) {
		text = GeneralKnowledgeBanner + "\n\n" + text
	}
	if c.IsEmergency() && !strings.Contains(text, EmergencyBanner) {
		text = EmergencyBanner + "\n\n" + text
	}
	return text
}

func withDisclaimer(text string) string {
	if strings.Contains(text, EducationalDisclaimer) {
		return text
	}
	return text + "\n\n" + EducationalDisclaimer
}

func draftSource(turn *domain.TurnContext) domain.ResponseSource {
	if turn.Classification.Type != domain.QueryTypeDomain {
		return domain.SourceNone
	}
	if turn.RetrievalStatus == domain.RetrievalCompleted && turn.RetrievalGrounded {
		return domain.SourceKnowledgeBase
	}
	return domain.SourceGeneralKnowledge
}
