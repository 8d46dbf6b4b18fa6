package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DistanceMetric selects how the vector index ranks neighbors. Confidence
// thresholds are calibrated against a specific metric and are not portable
// across metrics.
type DistanceMetric string

const (
	MetricCosine    DistanceMetric = "cosine"
	MetricEuclidean DistanceMetric = "l2"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// ServiceTokens are the bearer tokens accepted by the HTTP API,
	// comma-separated. Empty disables auth (local development only).
	ServiceTokens []string `envconfig:"SERVICE_TOKENS"`

	// Embedding provider (OpenAI-compatible). EmbeddingDimensions must match
	// the vector column width in the index_entries migration; changing it
	// requires a new migration (and a reindex), not just an env change. The
	// server verifies the two agree at startup.
	EmbeddingAPIKey     string        `envconfig:"EMBEDDING_API_KEY"`
	EmbeddingBaseURL    string        `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingTimeout    time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"15s"`

	// Chat-completion provider (OpenAI-compatible; the default deployment
	// points LLM_BASE_URL at Groq).
	LLMAPIKey      string        `envconfig:"LLM_API_KEY"`
	LLMBaseURL     string        `envconfig:"LLM_BASE_URL"`
	LLMModel       string        `envconfig:"LLM_MODEL" default:"llama-3.3-70b-versatile"`
	LLMTemperature float32       `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	// Retrieval tuning. DistanceThreshold is the confidence cutoff: matches
	// at or beyond it are discarded (or surfaced as low-confidence fallback).
	// The default is calibrated for cosine distance; recalibrate whenever the
	// embedding model, metric, or chunk granularity changes.
	DistanceThreshold float32        `envconfig:"DISTANCE_THRESHOLD" default:"0.21"`
	DistanceMetric    DistanceMetric `envconfig:"DISTANCE_METRIC" default:"cosine"`
	TopK              int            `envconfig:"TOP_K" default:"5"`

	// Knowledge catalog sources. The loader tries S3 (when configured), then
	// CatalogPath, then the embedded default catalog.
	CatalogPath  string `envconfig:"CATALOG_PATH"`
	S3Endpoint   string `envconfig:"S3_ENDPOINT"`
	S3AccessKey  string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey  string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket     string `envconfig:"S3_BUCKET" default:"vetassist-catalog"`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	S3CatalogKey string `envconfig:"S3_CATALOG_KEY" default:"catalog.json"`

	// Session store bounds. The store evicts by LRU size and by TTL.
	SessionMaxEntries int           `envconfig:"SESSION_MAX_ENTRIES" default:"512"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	// IndexSyncInterval controls the background worker that picks up catalog
	// chunks added at runtime. Zero disables the worker.
	IndexSyncInterval time.Duration `envconfig:"INDEX_SYNC_INTERVAL" default:"0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("VETASSIST", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.DistanceMetric != MetricCosine && cfg.DistanceMetric != MetricEuclidean {
		return nil, fmt.Errorf("invalid distance metric %q (expected cosine or l2)", cfg.DistanceMetric)
	}
	if cfg.DistanceThreshold <= 0 {
		return nil, fmt.Errorf("distance threshold must be positive, got %v", cfg.DistanceThreshold)
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", cfg.TopK)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasEmbedding() bool {
	return c.EmbeddingAPIKey != ""
}

func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}
