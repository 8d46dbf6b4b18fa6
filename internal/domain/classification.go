package domain

// QueryType is the classifier's verdict on what kind of query this is.
type QueryType string

const (
	// QueryTypeDomain is a veterinary medicine question.
	QueryTypeDomain QueryType = "domain"
	// QueryTypeSystem covers greetings, thanks, farewells and questions about
	// the assistant itself.
	QueryTypeSystem QueryType = "system"
	// QueryTypeOutOfScope is anything non-veterinary (cooking, human
	// medicine, sports, ...).
	QueryTypeOutOfScope QueryType = "out_of_scope"
)

// IsValid checks if the query type is one of the accepted values.
func (t QueryType) IsValid() bool {
	switch t {
	case QueryTypeDomain, QueryTypeSystem, QueryTypeOutOfScope:
		return true
	}
	return false
}

// Urgency applies to domain queries only.
type Urgency string

const (
	UrgencyEmergency    Urgency = "emergency"
	UrgencyNonEmergency Urgency = "non_emergency"
)

// Classification is the output of the pipeline's first stage.
type Classification struct {
	Type    QueryType
	Urgency Urgency
	// SearchNeeded is true when the knowledge base should be queried before
	// drafting a response.
	SearchNeeded bool
	// RefinedQuery is a context-complete reformulation of the user's query,
	// produced specifically to improve embedding-based retrieval. Empty when
	// SearchNeeded is false.
	RefinedQuery string
}

// Validate checks classifier output for internal consistency.
func (c *Classification) Validate() error {
	if !c.Type.IsValid() {
		return ErrInvalidQueryType
	}
	if c.Type == QueryTypeDomain && c.Urgency != UrgencyEmergency && c.Urgency != UrgencyNonEmergency {
		return ErrMissingUrgency
	}
	if c.SearchNeeded && c.RefinedQuery == "" {
		return ErrMissingRefinedQuery
	}
	return nil
}

// IsEmergency reports whether the classifier flagged a life-threatening case.
func (c *Classification) IsEmergency() bool {
	return c.Type == QueryTypeDomain && c.Urgency == UrgencyEmergency
}
