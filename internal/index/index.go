// Package index maintains the embedding index over the knowledge catalog.
package index

import (
	"context"
	"log"
	"sync"

	"github.com/vetlabs/vetassist/internal/domain"
)

// Embedder defines the interface for turning text into vectors.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EntryRepository defines the persistence interface for index entries.
type EntryRepository interface {
	Insert(ctx context.Context, entry *domain.IndexEntry) error
	ListKeys(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, embedding []float32, limit int) ([]domain.Match, error)
	DeleteAll(ctx context.Context) error
}

// Report summarizes one indexing run.
type Report struct {
	Indexed int
	Skipped int
	Failed  []string
}

// Indexer builds and queries the embedding index. Indexing is idempotent:
// chunks whose key is already present are skipped, never re-embedded, so
// repeated runs against the same catalog cost nothing after the first.
type Indexer struct {
	embedder Embedder
	repo     EntryRepository

	// writeMu serializes Index and Reset. Queries are not blocked by it.
	writeMu sync.Mutex
}

// NewIndexer creates a new Indexer instance
func NewIndexer(embedder Embedder, repo EntryRepository) *Indexer {
	return &Indexer{embedder: embedder, repo: repo}
}

// Index embeds and stores every chunk not already present in the index.
// A failure on one chunk does not abort the run: the chunk is recorded in
// the report and the rest of the batch proceeds, so a transient provider
// error leaves a partial index that the next run completes.
func (ix *Indexer) Index(ctx context.Context, chunks []domain.Chunk) (*Report, error) {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	keys, err := ix.repo.ListKeys(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeIndexing, "failed to list indexed keys", err)
	}
	existing := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		existing[k] = struct{}{}
	}

	report := &Report{}
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if _, ok := existing[chunk.Key]; ok {
			report.Skipped++
			continue
		}

		if err := ix.indexOne(ctx, chunk); err != nil {
			log.Printf("Error indexing chunk %s: %v", chunk.Key, err)
			report.Failed = append(report.Failed, chunk.Key)
			continue
		}
		existing[chunk.Key] = struct{}{}
		report.Indexed++
	}

	log.Printf("Indexing complete: %d indexed, %d skipped, %d failed",
		report.Indexed, report.Skipped, len(report.Failed))
	return report, nil
}

func (ix *Indexer) indexOne(ctx context.Context, chunk domain.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return domain.NewIndexingError(chunk.Key, err)
	}

	embedding, err := ix.embedder.EmbedDocument(ctx, chunk.Content)
	if err != nil {
		return domain.NewIndexingError(chunk.Key, err)
	}

	entry := &domain.IndexEntry{
		Key:       chunk.Key,
		Content:   chunk.Content,
		Category:  chunk.Category,
		Topic:     chunk.Topic,
		Embedding: embedding,
	}
	if err := ix.repo.Insert(ctx, entry); err != nil {
		return domain.NewIndexingError(chunk.Key, err)
	}
	return nil
}

// Query embeds the query text and returns up to topK nearest entries,
// ordered by ascending distance.
func (ix *Indexer) Query(ctx context.Context, text string, topK int) ([]domain.Match, error) {
	if text == "" {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = 5
	}

	embedding, err := ix.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, domain.NewRetrievalError(err)
	}

	matches, err := ix.repo.Search(ctx, embedding, topK)
	if err != nil {
		return nil, domain.NewRetrievalError(err)
	}
	return matches, nil
}

// Count returns the number of indexed entries.
func (ix *Indexer) Count(ctx context.Context) (int, error) {
	return ix.repo.Count(ctx)
}

// Reset destroys the entire index. Never called implicitly; only the
// explicit reset command reaches this.
func (ix *Indexer) Reset(ctx context.Context) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	if err := ix.repo.DeleteAll(ctx); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeIndexing, "failed to reset index", err)
	}
	log.Println("Index reset: all entries deleted")
	return nil
}
