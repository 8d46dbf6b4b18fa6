// Package llm wraps the chat-completion provider. This is the only place
// that looks at provider rate-limit responses: they are mapped into the typed
// RateLimitError here, and nothing deeper in the stack re-parses error text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vetlabs/vetassist/internal/domain"
)

const (
	// DefaultModel matches the provider's recommended general model.
	DefaultModel = "llama-3.3-70b-versatile"
	// DefaultTemperature keeps drafting conservative for clinical content.
	DefaultTemperature float32 = 0.3

	maxRetries     = 2
	initialBackoff = 500 * time.Millisecond
)

// ErrEmptyPrompt is returned when the prompt is empty
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// ChatAPI defines the interface for chat completion
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client calls an OpenAI-compatible chat endpoint with a per-call timeout,
// bounded retries for transient server errors, and rate-limit mapping.
type Client struct {
	api         ChatAPI
	model       string
	temperature float32
	timeout     time.Duration
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// NewClient creates a client against an OpenAI-compatible provider.
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewClientWithAPI(openai.NewClientWithConfig(clientCfg), cfg)
}

// NewClientWithAPI creates a client with an explicit API implementation.
func NewClientWithAPI(api ChatAPI, cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{api: api, model: model, temperature: temperature, timeout: timeout}
}

// Complete sends a system+user prompt pair and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", ErrEmptyPrompt
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    messages,
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := c.complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// isRetryable reports whether the error is a transient server-side failure.
// Rate limits are not retried here; the caller decides how to surface them.
func isRetryable(err error) bool {
	if _, ok := domain.AsRateLimit(err); ok {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return false
}

// mapError converts a 429 from the provider into the typed RateLimitError,
// classifying scope from the provider's message. Groq and OpenAI both name
// the limit window in the message body (TPM/RPM vs TPD/RPD).
func mapError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("chat completion failed: %w", err)
	}

	scope := domain.RateLimitPerMinute
	retryAfter := time.Minute
	if isDailyLimit(apiErr.Message) {
		scope = domain.RateLimitPerDay
		retryAfter = 24 * time.Hour
	}
	return &domain.RateLimitError{Scope: scope, RetryAfter: retryAfter, Err: err}
}

func isDailyLimit(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range []string{"per day", "daily", "tpd", "rpd"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
