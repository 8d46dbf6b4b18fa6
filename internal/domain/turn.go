package domain

// ResponseSource tags where the draft's facts came from, so downstream stages
// and callers can tell verified store text from model-generated text.
type ResponseSource string

const (
	// SourceKnowledgeBase means the draft was grounded on retrieved store
	// content.
	SourceKnowledgeBase ResponseSource = "knowledge_base"
	// SourceGeneralKnowledge means the model answered without verified store
	// content.
	SourceGeneralKnowledge ResponseSource = "general_knowledge"
	// SourceNone applies to system and out-of-scope responses.
	SourceNone ResponseSource = "none"
)

// RetrievalStatus records how the retrieve stage concluded. An explicit
// marker is required: later stages must be able to distinguish "no search was
// required" from "search ran and returned nothing" and from a missing field.
type RetrievalStatus string

const (
	// RetrievalNotRequired means the classifier decided no search was needed.
	RetrievalNotRequired RetrievalStatus = "not_required"
	// RetrievalCompleted means the index was queried and produced an answer
	// string (which may be the not-found or low-confidence text).
	RetrievalCompleted RetrievalStatus = "completed"
	// RetrievalFailed means the index query errored; the pipeline continued
	// with no retrieved text, flagged as unverified.
	RetrievalFailed RetrievalStatus = "failed"
)

// TurnContext accumulates the output of each pipeline stage for one user
// turn. Stages append in order and read only what earlier stages wrote; it is
// created for a single query and discarded afterwards.
type TurnContext struct {
	SessionID string
	Query     string
	// RecentQueries are earlier queries from the same session, oldest first,
	// given to the classifier for context.
	RecentQueries []string

	Classification *Classification

	RetrievalStatus RetrievalStatus
	// RetrievedText is the retrieval engine's formatted answer. Empty unless
	// RetrievalStatus is RetrievalCompleted.
	RetrievedText string
	// RetrievalGrounded is true when at least one confident match backed the
	// retrieved text. Not-found and low-confidence answers are not grounded.
	RetrievalGrounded bool

	Draft       string
	DraftSource ResponseSource

	Final string
	// Reviewed is false when the review stage failed and the draft was
	// surfaced unmodified.
	Reviewed bool
}
