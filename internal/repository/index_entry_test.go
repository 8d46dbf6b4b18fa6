//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetlabs/vetassist/internal/domain"
	"github.com/vetlabs/vetassist/internal/testutil"
)

// unitVector builds a 1536-dim embedding pointing mostly along the given
// axis, so cosine distances between different axes are large and distances
// to nearby vectors are small.
func unitVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

func seedEntries(ctx context.Context, t *testing.T, repo *IndexEntryRepository) {
	entries := []*domain.IndexEntry{
		{
			Key:       "intoxicacion_chocolate",
			Content:   "Toxicosis por teobromina/cafeína.",
			Category:  domain.CategoryTreatment,
			Topic:     "intoxicacion_chocolate",
			Embedding: unitVector(0),
		},
		{
			Key:       "parvovirus_canino",
			Content:   "Gastroenteritis viral aguda.",
			Category:  domain.CategoryOverview,
			Topic:     "parvovirus",
			Embedding: unitVector(1),
		},
		{
			Key:       "gvd_torsion_gastrica",
			Content:   "Dilatación-vólvulo gástrico.",
			Category:  domain.CategoryTreatment,
			Topic:     "dilatacion_volvulo_gastrico",
			Embedding: unitVector(2),
		},
	}
	for _, e := range entries {
		require.NoError(t, repo.Insert(ctx, e))
	}
}

func TestIndexEntryRepository(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewIndexEntryRepository(pool, MetricCosine)

	t.Run("insert and list keys", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		seedEntries(ctx, t, repo)

		keys, err := repo.ListKeys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"gvd_torsion_gastrica", "intoxicacion_chocolate", "parvovirus_canino"}, keys)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("duplicate insert is a no-op", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		seedEntries(ctx, t, repo)

		err := repo.Insert(ctx, &domain.IndexEntry{
			Key:       "parvovirus_canino",
			Content:   "overwritten content",
			Embedding: unitVector(5),
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		entry, err := repo.GetByKey(ctx, "parvovirus_canino")
		require.NoError(t, err)
		assert.Equal(t, "Gastroenteritis viral aguda.", entry.Content)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("search ranks by ascending distance", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		seedEntries(ctx, t, repo)

		// query close to axis 0 but not identical
		query := make([]float32, 1536)
		query[0] = 1
		query[1] = 0.2

		matches, err := repo.Search(ctx, query, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "intoxicacion_chocolate", matches[0].Key)
		assert.Equal(t, "parvovirus_canino", matches[1].Key)
		assert.Less(t, matches[0].Distance, matches[1].Distance)
	})

	t.Run("embedding dimension matches the migrated schema", func(t *testing.T) {
		dim, err := repo.EmbeddingDimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1536, dim)
	})

	t.Run("get by key not found", func(t *testing.T) {
		_, err := repo.GetByKey(ctx, "leishmaniasis_canina")
		assert.ErrorIs(t, err, domain.ErrChunkNotFound)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		seedEntries(ctx, t, repo)

		require.NoError(t, repo.DeleteAll(ctx))

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)

		matches, err := repo.Search(ctx, unitVector(0), 5)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}
