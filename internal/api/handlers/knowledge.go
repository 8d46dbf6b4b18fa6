package handlers

import (
	"context"
	"net/http"

	"github.com/vetlabs/vetassist/internal/api"
	"github.com/vetlabs/vetassist/internal/domain"
)

// Catalog defines the interface for reading the knowledge catalog.
type Catalog interface {
	All() []domain.Chunk
}

// IndexCounter defines the interface for index statistics.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}

// KnowledgeHandler serves the catalog manifest: what the store holds and how
// much of it is indexed. Content is omitted; this is an inventory view.
type KnowledgeHandler struct {
	catalog Catalog
	index   IndexCounter
}

func NewKnowledgeHandler(catalog Catalog, index IndexCounter) *KnowledgeHandler {
	return &KnowledgeHandler{catalog: catalog, index: index}
}

type KnowledgeManifestEntry struct {
	Key      string `json:"key"`
	Category string `json:"category,omitempty"`
	Topic    string `json:"topic,omitempty"`
}

type KnowledgeManifestResponse struct {
	Chunks       []KnowledgeManifestEntry `json:"chunks"`
	ChunkCount   int                      `json:"chunk_count"`
	IndexedCount int                      `json:"indexed_count"`
}

func (h *KnowledgeHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	indexed, err := h.index.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	chunks := h.catalog.All()
	entries := make([]KnowledgeManifestEntry, 0, len(chunks))
	for _, c := range chunks {
		entries = append(entries, KnowledgeManifestEntry{
			Key:      c.Key,
			Category: string(c.Category),
			Topic:    c.Topic,
		})
	}

	api.Success(w, http.StatusOK, KnowledgeManifestResponse{
		Chunks:       entries,
		ChunkCount:   len(entries),
		IndexedCount: indexed,
	})
}
