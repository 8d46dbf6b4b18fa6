// Package knowledge loads and holds the static chunk catalog: the full set of
// veterinary knowledge units the index is built from.
package knowledge

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/vetlabs/vetassist/internal/domain"
)

//go:embed catalog.json
var embeddedCatalog []byte

// catalogFile is the on-disk / on-object JSON shape.
type catalogFile struct {
	Chunks []catalogChunk `json:"chunks"`
}

type catalogChunk struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
	Content  string `json:"content"`
}

// ObjectFetcher retrieves the catalog document from remote storage.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, key string) ([]byte, error)
}

// Store is the static knowledge table: a validated mapping from chunk key to
// chunk record. Loading fails loudly on duplicate keys or empty content;
// runtime mutation is append-only.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Store, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Chunks) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	chunks := make(map[string]domain.Chunk, len(file.Chunks))
	for _, c := range file.Chunks {
		chunk := domain.Chunk{
			Key:      c.Key,
			Content:  c.Content,
			Category: domain.ChunkCategory(c.Category),
			Topic:    c.Topic,
		}
		if err := chunk.Validate(); err != nil {
			return nil, fmt.Errorf("invalid chunk %q: %w", c.Key, err)
		}
		if _, exists := chunks[chunk.Key]; exists {
			return nil, fmt.Errorf("chunk %q: %w", chunk.Key, domain.ErrDuplicateChunkKey)
		}
		chunks[chunk.Key] = chunk
	}

	return &Store{chunks: chunks}, nil
}

// LoadEmbedded loads the catalog compiled into the binary.
func LoadEmbedded() (*Store, error) {
	return Load(embeddedCatalog)
}

// LoadFile loads a catalog from a local JSON file.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Load(data)
}

// LoadRemote fetches the catalog object from storage and loads it.
func LoadRemote(ctx context.Context, fetcher ObjectFetcher, key string) (*Store, error) {
	data, err := fetcher.FetchObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog object: %w", err)
	}
	return Load(data)
}

// Get returns the chunk for a key.
func (s *Store) Get(key string) (domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[key]
	if !ok {
		return domain.Chunk{}, domain.ErrChunkNotFound
	}
	return chunk, nil
}

// All returns every chunk, ordered by key for deterministic iteration.
func (s *Store) All() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.Chunk, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.chunks[k])
	}
	return out
}

// Len returns the number of chunks in the catalog.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Add appends a new chunk at runtime. Existing chunks are never overwritten:
// changing one requires delete+reinsert via a full index reset.
func (s *Store) Add(chunk domain.Chunk) error {
	if err := chunk.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.chunks[chunk.Key]; exists {
		return fmt.Errorf("chunk %q: %w", chunk.Key, domain.ErrDuplicateChunkKey)
	}
	s.chunks[chunk.Key] = chunk
	return nil
}
