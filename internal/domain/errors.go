package domain

import (
	"errors"
	"fmt"
	"time"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
	ErrCodeIndexing       = "INDEXING_ERROR"
	ErrCodeRetrieval      = "RETRIEVAL_ERROR"
	ErrCodeClassification = "CLASSIFICATION_ERROR"
	ErrCodeDraft          = "DRAFT_ERROR"
	ErrCodeReview         = "REVIEW_ERROR"
	ErrCodeRateLimited    = "RATE_LIMITED"
)

// Validation errors
var (
	ErrMissingChunkKey      = NewDomainError(ErrCodeValidation, "chunk key is required")
	ErrEmptyChunkContent    = NewDomainError(ErrCodeValidation, "chunk content is empty")
	ErrInvalidChunkCategory = NewDomainError(ErrCodeValidation, "invalid chunk category")
	ErrDuplicateChunkKey    = NewDomainError(ErrCodeValidation, "duplicate chunk key")
	ErrEmptyCatalog         = NewDomainError(ErrCodeValidation, "knowledge catalog is empty")
	ErrInvalidQueryType     = NewDomainError(ErrCodeValidation, "invalid query type")
	ErrMissingUrgency       = NewDomainError(ErrCodeValidation, "domain query missing urgency")
	ErrMissingRefinedQuery  = NewDomainError(ErrCodeValidation, "search requested without a refined query")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query is empty")
)

// Not found errors
var (
	ErrChunkNotFound = NewDomainError(ErrCodeNotFound, "chunk not found")
)

// Authorization errors
var (
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid service token")
)

// NewIndexingError wraps a single-chunk indexing failure. Callers log it and
// continue with the rest of the batch.
func NewIndexingError(key string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeIndexing, fmt.Sprintf("failed to index chunk %q", key), err)
}

// NewRetrievalError wraps an index query failure. The pipeline fails open on
// this error and continues without retrieved text.
func NewRetrievalError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeRetrieval, "knowledge index query failed", err)
}

// NewClassificationError wraps a classify-stage failure. Fatal to the turn:
// there is no safe default for what type a query is.
func NewClassificationError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeClassification, "query classification failed", err)
}

// NewDraftError wraps a draft-stage failure. Fatal to the turn.
func NewDraftError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeDraft, "response drafting failed", err)
}

// NewReviewError wraps a review-stage failure. The pipeline fails open on
// this error and surfaces the unreviewed draft.
func NewReviewError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeReview, "response review failed", err)
}

// RateLimitScope distinguishes per-minute throttling from daily quota
// exhaustion, which get different user-facing guidance.
type RateLimitScope string

const (
	RateLimitPerMinute RateLimitScope = "per_minute"
	RateLimitPerDay    RateLimitScope = "per_day"
)

// RateLimitError is a typed upstream rate-limit signal. It is constructed
// once, at the boundary where the provider error is first observed; nothing
// deeper in the stack re-parses error text.
type RateLimitError struct {
	Scope      RateLimitScope
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Scope == RateLimitPerDay {
		return fmt.Sprintf("[%s] daily quota exhausted: %v", ErrCodeRateLimited, e.Err)
	}
	return fmt.Sprintf("[%s] per-minute limit reached: %v", ErrCodeRateLimited, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// AsRateLimit extracts a RateLimitError from an error chain.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// ErrorCode returns the DomainError code of err, or ErrCodeInternalError when
// err is not a domain error. RateLimitError maps to ErrCodeRateLimited.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := AsRateLimit(err); ok {
		return ErrCodeRateLimited
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}
