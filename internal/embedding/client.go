// Package embedding wraps the external embedding provider behind a small
// client that applies the asymmetric document/query prefixes the e5 model
// family is trained with. Skipping or mixing up the prefixes does not fail,
// it silently degrades ranking quality, so they are applied here in one
// place and nowhere else.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimensions is the expected embedding width for the default model.
	DefaultDimensions = 1536

	// documentPrefix and queryPrefix follow the e5 asymmetric convention:
	// stored passages and incoming queries are embedded into the same space
	// from different sides.
	documentPrefix = "passage: "
	queryPrefix    = "query: "
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when the provider returns a vector of
	// unexpected width
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client computes document and query embeddings with consistent prefixes,
// dimension validation and a per-call timeout.
type Client struct {
	api        EmbeddingAPI
	dimensions int
	timeout    time.Duration
}

// OpenAIAdapter calls an OpenAI-compatible embeddings endpoint.
type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey, baseURL, model string) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}
}

// CreateEmbeddings calls the provider to embed a single text
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// NewClient creates a client against an OpenAI-compatible provider.
func NewClient(cfg Config) *Client {
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model),
		dimensions: dimensions,
		timeout:    timeout,
	}
}

// NewClientWithAPI creates a client with an explicit API implementation.
func NewClientWithAPI(api EmbeddingAPI, dimensions int, timeout time.Duration) *Client {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{api: api, dimensions: dimensions, timeout: timeout}
}

// EmbedDocument embeds chunk content for indexing.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, documentPrefix, text)
}

// EmbedQuery embeds a search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, queryPrefix, text)
}

func (c *Client) embed(ctx context.Context, prefix, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vector, err := c.api.CreateEmbeddings(ctx, prefix+text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(vector) != c.dimensions {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, c.dimensions, len(vector))
	}

	return vector, nil
}
