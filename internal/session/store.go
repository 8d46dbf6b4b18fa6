// Package session holds per-session conversation history. The store is
// bounded on both axes (entry count and idle TTL), so an abandoned session
// can never pin memory for the life of the process.
package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultMaxEntries bounds how many concurrent sessions are tracked.
	DefaultMaxEntries = 512
	// DefaultTTL evicts sessions idle longer than this.
	DefaultTTL = 30 * time.Minute
	// maxRecentQueries bounds the history kept per session; only the last
	// few queries matter for classification context.
	maxRecentQueries = 5
)

type history struct {
	queries []string
}

// LRUStore is an expirable-LRU backed session store. The cache handles capacity and
// TTL eviction; the mutex serializes read-modify-write on a session's history
// slice, which the cache alone cannot make atomic.
type LRUStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *history]
}

// NewLRUStore creates a session store with the given bounds. Non-positive
// values fall back to the defaults.
func NewLRUStore(maxEntries int, ttl time.Duration) *LRUStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LRUStore{
		cache: expirable.NewLRU[string, *history](maxEntries, nil, ttl),
	}
}

// Recent returns a copy of the session's recent queries, oldest first.
// Unknown or expired sessions yield nil.
func (s *LRUStore) Recent(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.cache.Get(sessionID)
	if !ok {
		return nil
	}
	out := make([]string, len(h.queries))
	copy(out, h.queries)
	return out
}

// Append records a query for the session, creating it if absent and
// trimming history beyond the per-session bound.
func (s *LRUStore) Append(sessionID, query string) {
	if sessionID == "" || query == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.cache.Get(sessionID)
	if !ok {
		h = &history{}
	}
	h.queries = append(h.queries, query)
	if len(h.queries) > maxRecentQueries {
		h.queries = h.queries[len(h.queries)-maxRecentQueries:]
	}
	s.cache.Add(sessionID, h)
}

// Evict drops a session's history immediately.
func (s *LRUStore) Evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(sessionID)
}

// Len returns the number of live sessions.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
