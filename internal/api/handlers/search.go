package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vetlabs/vetassist/internal/api"
	"github.com/vetlabs/vetassist/internal/retrieval"
)

// SearchEngine defines the interface for direct retrieval queries.
type SearchEngine interface {
	RetrieveTopK(ctx context.Context, query string, topK int) (*retrieval.Result, error)
}

// SearchHandler exposes the retrieval engine directly, bypassing the
// pipeline. Operator surface for threshold calibration and debugging.
type SearchHandler struct {
	engine SearchEngine
}

func NewSearchHandler(engine SearchEngine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type SearchMatch struct {
	Key      string  `json:"key"`
	Category string  `json:"category,omitempty"`
	Topic    string  `json:"topic,omitempty"`
	Distance float32 `json:"distance"`
	Content  string  `json:"content"`
}

type SearchResponse struct {
	Outcome string        `json:"outcome"`
	Answer  string        `json:"answer"`
	Matches []SearchMatch `json:"matches"`
}

func (h *SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.engine.RetrieveTopK(r.Context(), req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	matches := make([]SearchMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, SearchMatch{
			Key:      m.Key,
			Category: string(m.Category),
			Topic:    m.Topic,
			Distance: m.Distance,
			Content:  m.Content,
		})
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Outcome: string(result.Outcome),
		Answer:  result.Answer,
		Matches: matches,
	})
}
