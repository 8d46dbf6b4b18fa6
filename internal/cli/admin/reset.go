package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vetlabs/vetassist/internal/config"
	"github.com/vetlabs/vetassist/internal/repository"
)

func ResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the entire vector index",
		Long:  "Delete every entry from the vector index. The knowledge catalog itself is untouched; run 'index' afterwards to rebuild.",
		RunE:  runReset,
	}

	cmd.Flags().Bool("yes", false, "Confirm deletion (required)")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("refusing to delete the index without --yes")
	}

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	entryRepo := repository.NewIndexEntryRepository(pool, repository.Metric(cfg.DistanceMetric))

	count, err := entryRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count index entries: %w", err)
	}

	if err := entryRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}

	fmt.Printf("Index reset: %d entries deleted\n", count)
	return nil
}
