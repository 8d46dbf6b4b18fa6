package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vetlabs/vetassist/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// RateLimitScope and RetryAfterSeconds are set on 429 responses only, so
	// callers can show per-minute vs per-day guidance.
	RateLimitScope    string `json:"rate_limit_scope,omitempty"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if _, ok := domain.AsRateLimit(err); ok {
		return http.StatusTooManyRequests
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeClassification, domain.ErrCodeDraft:
		// upstream model failure, retryable by the client
		return http.StatusBadGateway
	case domain.ErrCodeRetrieval, domain.ErrCodeIndexing, domain.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an appropriate error response based on the error type.
// Rate limits carry their scope and a wait hint in the body and the standard
// Retry-After header.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)

	if rle, ok := domain.AsRateLimit(err); ok {
		retryAfter := int64(rle.RetryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		JSON(w, status, ErrorResponse{
			Error:             rateLimitMessage(rle.Scope),
			Code:              domain.ErrCodeRateLimited,
			RateLimitScope:    string(rle.Scope),
			RetryAfterSeconds: retryAfter,
		})
		return
	}

	JSON(w, status, ErrorResponse{Error: err.Error(), Code: domain.ErrorCode(err)})
}

func rateLimitMessage(scope domain.RateLimitScope) string {
	if scope == domain.RateLimitPerDay {
		return "daily quota exhausted, try again tomorrow"
	}
	return "rate limit reached, try again in about a minute"
}
