package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vetlabs/vetassist/internal/domain"
	"github.com/vetlabs/vetassist/internal/index"
)

// ChunkSource defines the interface for reading the knowledge catalog.
type ChunkSource interface {
	All() []domain.Chunk
}

// ChunkIndexer defines the interface for the idempotent index operation.
type ChunkIndexer interface {
	Index(ctx context.Context, chunks []domain.Chunk) (*index.Report, error)
}

// IndexSyncWorker keeps the embedding index in step with the catalog by
// re-running the indexer on a fixed interval. Indexing is idempotent, so each
// pass only embeds chunks added since the last one; a pass over an unchanged
// catalog is a cheap no-op. Chunks that failed a previous pass (for example
// when the embedding provider rate limited) get retried on the next tick.
type IndexSyncWorker struct {
	source   ChunkSource
	indexer  ChunkIndexer
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewIndexSyncWorker creates a sync worker polling at the given interval.
func NewIndexSyncWorker(source ChunkSource, indexer ChunkIndexer, interval time.Duration) *IndexSyncWorker {
	return &IndexSyncWorker{
		source:   source,
		indexer:  indexer,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run polls until the context is cancelled or Stop is called. Call it in its
// own goroutine.
func (w *IndexSyncWorker) Run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("index sync: checking catalog every %v", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("index sync: context cancelled")
			return
		case <-w.stop:
			log.Println("index sync: stopping")
			return
		case <-ticker.C:
			if err := w.syncOnce(ctx); err != nil {
				log.Printf("index sync: %v", err)
			}
		}
	}
}

// Stop ends the polling loop and waits for an in-flight pass to finish.
func (w *IndexSyncWorker) Stop() {
	close(w.stop)
	<-w.done
}

// syncOnce runs a single catalog-to-index pass.
func (w *IndexSyncWorker) syncOnce(ctx context.Context) error {
	chunks := w.source.All()
	if len(chunks) == 0 {
		return nil
	}

	report, err := w.indexer.Index(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to sync index: %w", err)
	}

	if report.Indexed > 0 || len(report.Failed) > 0 {
		log.Printf("index sync: %d indexed, %d skipped, %d failed",
			report.Indexed, report.Skipped, len(report.Failed))
	}
	return nil
}
