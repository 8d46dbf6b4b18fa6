package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/vetlabs/vetassist/internal/domain"
)

// Metric selects the pgvector distance operator used for similarity search.
// Distances from the two metrics live on different scales; confidence
// thresholds calibrated for one do not transfer to the other.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
)

func (m Metric) operator() string {
	if m == MetricL2 {
		return "<->"
	}
	return "<=>"
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IndexEntryRepository persists the embedding index in pgvector.
type IndexEntryRepository struct {
	db     dbtx
	metric Metric
}

func NewIndexEntryRepository(pool *pgxpool.Pool, metric Metric) *IndexEntryRepository {
	return &IndexEntryRepository{db: pool, metric: metric}
}

// Insert stores a new index entry. Duplicate keys are ignored rather than
// overwritten: entries are immutable once written and the conflict clause is
// the backstop for racing writers.
func (r *IndexEntryRepository) Insert(ctx context.Context, entry *domain.IndexEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO index_entries (chunk_key, content, category, topic, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (chunk_key) DO NOTHING`,
		entry.Key,
		entry.Content,
		string(entry.Category),
		entry.Topic,
		pgvector.NewVector(entry.Embedding),
		createdAt,
	)
	return err
}

// ListKeys returns the keys of all indexed chunks, used for the idempotency
// check before indexing.
func (r *IndexEntryRepository) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT chunk_key FROM index_entries ORDER BY chunk_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// EmbeddingDimension reports the vector width the index_entries table was
// created with. pgvector stores the declared dimension as the column's type
// modifier, so this is the schema-side counterpart of the configured
// embedding width.
func (r *IndexEntryRepository) EmbeddingDimension(ctx context.Context) (int, error) {
	var dim int
	err := r.db.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute
		 WHERE attrelid = 'index_entries'::regclass AND attname = 'embedding'`,
	).Scan(&dim)
	return dim, err
}

// Count returns the number of entries in the index.
func (r *IndexEntryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM index_entries`).Scan(&count)
	return count, err
}

// GetByKey fetches a single entry's metadata (without the vector).
func (r *IndexEntryRepository) GetByKey(ctx context.Context, key string) (*domain.IndexEntry, error) {
	var entry domain.IndexEntry
	var category string
	err := r.db.QueryRow(ctx,
		`SELECT chunk_key, content, category, topic, created_at
		 FROM index_entries WHERE chunk_key = $1`,
		key,
	).Scan(&entry.Key, &entry.Content, &category, &entry.Topic, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	entry.Category = domain.ChunkCategory(category)
	return &entry, nil
}

// Search returns up to limit entries nearest to the query embedding, ordered
// by ascending distance. Ties keep the database's stable ordering.
func (r *IndexEntryRepository) Search(ctx context.Context, embedding []float32, limit int) ([]domain.Match, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)
	op := r.metric.operator()

	rows, err := r.db.Query(ctx,
		`SELECT chunk_key, content, category, topic, (embedding `+op+` $1)::float4 AS distance
		 FROM index_entries
		 ORDER BY embedding `+op+` $1, chunk_key
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.Match, 0, limit)
	for rows.Next() {
		var m domain.Match
		var category string
		if err := rows.Scan(&m.Key, &m.Content, &category, &m.Topic, &m.Distance); err != nil {
			return nil, err
		}
		m.Category = domain.ChunkCategory(category)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// DeleteAll destroys every index entry. Only the explicit reset command
// calls this.
func (r *IndexEntryRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE TABLE index_entries`)
	return err
}
