package domain

import (
	"strings"
	"time"
)

// ChunkCategory classifies what kind of clinical text a chunk holds.
type ChunkCategory string

const (
	CategoryOverview  ChunkCategory = "overview"
	CategorySymptoms  ChunkCategory = "symptoms"
	CategoryDiagnosis ChunkCategory = "diagnosis"
	CategoryTreatment ChunkCategory = "treatment"
	CategoryProtocol  ChunkCategory = "protocol"
)

// ValidChunkCategories lists all accepted categories.
var ValidChunkCategories = []ChunkCategory{
	CategoryOverview,
	CategorySymptoms,
	CategoryDiagnosis,
	CategoryTreatment,
	CategoryProtocol,
}

// IsValid checks if the category is one of the accepted values.
func (c ChunkCategory) IsValid() bool {
	for _, valid := range ValidChunkCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// Chunk is one indexable unit of veterinary knowledge. The key is stable
// across runs and is what makes indexing idempotent. Content is the unit of
// retrieval: it is never split further at query time, only concatenated for
// presentation.
type Chunk struct {
	Key      string
	Content  string
	Category ChunkCategory
	Topic    string
}

// Validate checks that the chunk is complete enough to index.
func (c *Chunk) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return ErrMissingChunkKey
	}
	if strings.TrimSpace(c.Content) == "" {
		return ErrEmptyChunkContent
	}
	if c.Category != "" && !c.Category.IsValid() {
		return ErrInvalidChunkCategory
	}
	return nil
}

// IndexEntry is a Chunk paired with its embedding vector, as persisted in the
// vector index. Entries carry a copy of the chunk metadata so retrieval does
// not need a second store lookup. Immutable after creation; removed only by an
// explicit index reset.
type IndexEntry struct {
	Key       string
	Content   string
	Category  ChunkCategory
	Topic     string
	Embedding []float32
	CreatedAt time.Time
}

// Match is one retrieval result: an index entry plus its distance from the
// query embedding. Lower distance means more similar.
type Match struct {
	Key      string
	Content  string
	Category ChunkCategory
	Topic    string
	Distance float32
}
