package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vetlabs/vetassist/internal/config"
	"github.com/vetlabs/vetassist/internal/database"
	"github.com/vetlabs/vetassist/internal/embedding"
	"github.com/vetlabs/vetassist/internal/index"
	"github.com/vetlabs/vetassist/internal/repository"
)

func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the knowledge catalog",
		Long:  "Embed and index every catalog chunk that is not already in the vector index. Already-indexed chunks are skipped, so re-running is safe.",
		RunE:  runIndex,
	}

	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasEmbedding() {
		return fmt.Errorf("VETASSIST_EMBEDDING_API_KEY is required")
	}

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load knowledge catalog: %w", err)
	}

	indexer := newIndexer(pool, cfg)
	report, err := indexer.Index(ctx, catalog.All())
	if err != nil {
		return fmt.Errorf("failed to index catalog: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"indexed": report.Indexed,
			"skipped": report.Skipped,
			"failed":  report.Failed,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Indexed: %d\n", report.Indexed)
		fmt.Printf("Skipped (already indexed): %d\n", report.Skipped)
		if len(report.Failed) > 0 {
			fmt.Printf("Failed: %d\n", len(report.Failed))
			for _, key := range report.Failed {
				fmt.Printf("  %s\n", key)
			}
		}
	}

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d chunks failed to index", len(report.Failed))
	}
	return nil
}

func getDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func newIndexer(pool *pgxpool.Pool, cfg *config.Config) *index.Indexer {
	embedder := embedding.NewClient(embedding.Config{
		APIKey:     cfg.EmbeddingAPIKey,
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbeddingTimeout,
	})
	entryRepo := repository.NewIndexEntryRepository(pool, repository.Metric(cfg.DistanceMetric))
	return index.NewIndexer(embedder, entryRepo)
}
