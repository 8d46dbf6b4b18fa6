package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormatting(t *testing.T) {
	err := NewDomainError(ErrCodeValidation, "bad input")
	assert.Equal(t, "[VALIDATION_ERROR] bad input", err.Error())

	cause := errors.New("connection refused")
	wrapped := NewDomainErrorWithCause(ErrCodeRetrieval, "knowledge index query failed", cause)
	assert.Contains(t, wrapped.Error(), "RETRIEVAL_ERROR")
	assert.ErrorIs(t, wrapped, cause)
}

func TestStageErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, ErrCodeIndexing, NewIndexingError("parvovirus_canino", cause).Code)
	assert.Equal(t, ErrCodeRetrieval, NewRetrievalError(cause).Code)
	assert.Equal(t, ErrCodeClassification, NewClassificationError(cause).Code)
	assert.Equal(t, ErrCodeDraft, NewDraftError(cause).Code)
	assert.Equal(t, ErrCodeReview, NewReviewError(cause).Code)

	idxErr := NewIndexingError("gvd_torsion_gastrica", cause)
	assert.Contains(t, idxErr.Error(), "gvd_torsion_gastrica")
	assert.ErrorIs(t, idxErr, cause)
}

func TestRateLimitError(t *testing.T) {
	cause := errors.New("429 too many requests")

	minute := &RateLimitError{Scope: RateLimitPerMinute, RetryAfter: 45 * time.Second, Err: cause}
	assert.Contains(t, minute.Error(), "per-minute")

	day := &RateLimitError{Scope: RateLimitPerDay, Err: cause}
	assert.Contains(t, day.Error(), "daily quota")

	// extractable through wrapping
	wrapped := fmt.Errorf("turn failed: %w", minute)
	got, ok := AsRateLimit(wrapped)
	require.True(t, ok)
	assert.Equal(t, RateLimitPerMinute, got.Scope)
	assert.Equal(t, 45*time.Second, got.RetryAfter)

	_, ok = AsRateLimit(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ErrCodeValidation, ErrorCode(ErrEmptyQuery))
	assert.Equal(t, ErrCodeValidation, ErrorCode(fmt.Errorf("wrapped: %w", ErrDuplicateChunkKey)))
	assert.Equal(t, ErrCodeRateLimited, ErrorCode(&RateLimitError{Scope: RateLimitPerDay, Err: errors.New("x")}))
	assert.Equal(t, ErrCodeInternalError, ErrorCode(errors.New("anything else")))
}
