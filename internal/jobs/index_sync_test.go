package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vetlabs/vetassist/internal/domain"
	"github.com/vetlabs/vetassist/internal/index"
)

// MockChunkIndexer is a mock implementation of ChunkIndexer
type MockChunkIndexer struct {
	mock.Mock
}

func (m *MockChunkIndexer) Index(ctx context.Context, chunks []domain.Chunk) (*index.Report, error) {
	args := m.Called(ctx, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*index.Report), args.Error(1)
}

type staticSource struct {
	chunks []domain.Chunk
}

func (s *staticSource) All() []domain.Chunk { return s.chunks }

func TestIndexSyncWorker_RunStop(t *testing.T) {
	chunks := []domain.Chunk{
		{Key: "parvovirus_canino", Content: "Gastroenteritis viral aguda."},
	}
	mockIndexer := new(MockChunkIndexer)
	mockIndexer.On("Index", mock.Anything, chunks).Return(&index.Report{Skipped: 1}, nil)

	worker := NewIndexSyncWorker(&staticSource{chunks: chunks}, mockIndexer, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockIndexer.AssertCalled(t, "Index", mock.Anything, chunks)
}

func TestIndexSyncWorker_ContextCancellation(t *testing.T) {
	chunks := []domain.Chunk{{Key: "a", Content: "x"}}
	mockIndexer := new(MockChunkIndexer)
	mockIndexer.On("Index", mock.Anything, chunks).Return(&index.Report{Skipped: 1}, nil)

	worker := NewIndexSyncWorker(&staticSource{chunks: chunks}, mockIndexer, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockIndexer.AssertCalled(t, "Index", mock.Anything, chunks)
}

func TestIndexSyncWorker_SyncOnce_EmptyCatalog(t *testing.T) {
	mockIndexer := new(MockChunkIndexer)

	worker := NewIndexSyncWorker(&staticSource{}, mockIndexer, time.Minute)
	err := worker.syncOnce(context.Background())

	assert.NoError(t, err)
	mockIndexer.AssertNotCalled(t, "Index", mock.Anything, mock.Anything)
}

func TestIndexSyncWorker_SyncOnce_RunsIndexer(t *testing.T) {
	chunks := []domain.Chunk{
		{Key: "parvovirus_canino", Content: "Gastroenteritis viral aguda."},
	}
	mockIndexer := new(MockChunkIndexer)
	mockIndexer.On("Index", mock.Anything, chunks).Return(&index.Report{Indexed: 1}, nil)

	worker := NewIndexSyncWorker(&staticSource{chunks: chunks}, mockIndexer, time.Minute)
	err := worker.syncOnce(context.Background())

	assert.NoError(t, err)
	mockIndexer.AssertExpectations(t)
}

func TestIndexSyncWorker_SyncOnce_IndexerError(t *testing.T) {
	chunks := []domain.Chunk{{Key: "a", Content: "x"}}
	mockIndexer := new(MockChunkIndexer)
	mockIndexer.On("Index", mock.Anything, chunks).Return(nil, errors.New("database error"))

	worker := NewIndexSyncWorker(&staticSource{chunks: chunks}, mockIndexer, time.Minute)
	err := worker.syncOnce(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sync index")
}
