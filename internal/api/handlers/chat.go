package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vetlabs/vetassist/internal/api"
	"github.com/vetlabs/vetassist/internal/domain"
)

// ChatPipeline defines the interface for running one conversation turn.
type ChatPipeline interface {
	Run(ctx context.Context, sessionID, query string) (*domain.TurnContext, error)
}

type ChatHandler struct {
	pipeline ChatPipeline
}

func NewChatHandler(pipeline ChatPipeline) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	SessionID       string `json:"session_id"`
	Response        string `json:"response"`
	QueryType       string `json:"query_type"`
	Urgency         string `json:"urgency,omitempty"`
	Source          string `json:"source"`
	RetrievalStatus string `json:"retrieval_status"`
	Reviewed        bool   `json:"reviewed"`
}

// Handle runs the pipeline for one query. A missing session id starts a new
// session; the generated id comes back in the response so the client can
// continue the conversation.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	turn, err := h.pipeline.Run(r.Context(), sessionID, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		SessionID:       sessionID,
		Response:        turn.Final,
		QueryType:       string(turn.Classification.Type),
		Urgency:         string(turn.Classification.Urgency),
		Source:          string(turn.DraftSource),
		RetrievalStatus: string(turn.RetrievalStatus),
		Reviewed:        turn.Reviewed,
	})
}
