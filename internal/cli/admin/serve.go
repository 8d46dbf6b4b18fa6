package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/vetlabs/vetassist/internal/api/handlers"
	"github.com/vetlabs/vetassist/internal/config"
	"github.com/vetlabs/vetassist/internal/database"
	"github.com/vetlabs/vetassist/internal/embedding"
	"github.com/vetlabs/vetassist/internal/index"
	"github.com/vetlabs/vetassist/internal/jobs"
	"github.com/vetlabs/vetassist/internal/knowledge"
	"github.com/vetlabs/vetassist/internal/llm"
	"github.com/vetlabs/vetassist/internal/pipeline"
	"github.com/vetlabs/vetassist/internal/repository"
	"github.com/vetlabs/vetassist/internal/retrieval"
	"github.com/vetlabs/vetassist/internal/server"
	"github.com/vetlabs/vetassist/internal/session"
	"github.com/vetlabs/vetassist/internal/storage"
	"github.com/vetlabs/vetassist/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the vetassist API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-index", false, "Skip the initial catalog indexing run on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	applyPortFlag(cmd, cfg)

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	catalog, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load knowledge catalog: %w", err)
	}
	log.Printf("knowledge catalog loaded: %d chunks", catalog.Len())

	if !cfg.HasEmbedding() {
		return fmt.Errorf("VETASSIST_EMBEDDING_API_KEY is required")
	}
	if !cfg.HasLLM() {
		return fmt.Errorf("VETASSIST_LLM_API_KEY is required")
	}

	embedder := embedding.NewClient(embedding.Config{
		APIKey:     cfg.EmbeddingAPIKey,
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbeddingTimeout,
	})

	entryRepo := repository.NewIndexEntryRepository(pool, repository.Metric(cfg.DistanceMetric))

	// Catch a dimension mismatch before the first insert fails with an opaque
	// pgvector error. The column width comes from the migrations, not the env.
	if dim, err := entryRepo.EmbeddingDimension(ctx); err != nil {
		log.Printf("warning: could not verify embedding column width: %v", err)
	} else if dim != cfg.EmbeddingDimensions {
		return fmt.Errorf("EMBEDDING_DIMENSIONS is %d but the index_entries embedding column is vector(%d); the column width is fixed by the migrations", cfg.EmbeddingDimensions, dim)
	}

	indexer := index.NewIndexer(embedder, entryRepo)

	noIndex, _ := cmd.Flags().GetBool("no-index")
	if !noIndex {
		report, err := indexer.Index(ctx, catalog.All())
		if err != nil {
			return fmt.Errorf("failed to index catalog: %w", err)
		}
		if len(report.Failed) > 0 {
			log.Printf("warning: %d chunks failed to index and will be retried by the sync worker", len(report.Failed))
		}
	}

	engine := retrieval.NewEngine(indexer, cfg.DistanceThreshold, cfg.TopK)

	chatClient := llm.NewClient(llm.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	})

	sessions := session.NewLRUStore(cfg.SessionMaxEntries, cfg.SessionTTL)
	chatPipeline := pipeline.NewPipeline(chatClient, engine, sessions)

	var syncWorker *jobs.IndexSyncWorker
	if cfg.IndexSyncInterval > 0 {
		syncWorker = jobs.NewIndexSyncWorker(catalog, indexer, cfg.IndexSyncInterval)
		go syncWorker.Run(ctx)
	}

	router := server.NewRouter(server.RouterConfig{
		ServiceTokens:    cfg.ServiceTokens,
		ChatHandler:      handlers.NewChatHandler(chatPipeline),
		SearchHandler:    handlers.NewSearchHandler(engine),
		KnowledgeHandler: handlers.NewKnowledgeHandler(catalog, indexer),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if syncWorker != nil {
		syncWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// applyPortFlag overrides the configured port only when --port was passed
// explicitly, so an untouched flag default never shadows VETASSIST_PORT.
func applyPortFlag(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("port") {
		return
	}
	if port, err := cmd.Flags().GetString("port"); err == nil && port != "" {
		cfg.Port = port
	}
}

// loadCatalog resolves the catalog source: S3 when configured, then a local
// file path, then the embedded default.
func loadCatalog(ctx context.Context, cfg *config.Config) (*knowledge.Store, error) {
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}

		exists, err := s3Client.ObjectExists(ctx, cfg.S3CatalogKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check catalog object: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("catalog object %q not found in bucket %q", cfg.S3CatalogKey, cfg.S3Bucket)
		}

		log.Printf("loading catalog from s3://%s/%s", cfg.S3Bucket, cfg.S3CatalogKey)
		return knowledge.LoadRemote(ctx, s3Client, cfg.S3CatalogKey)
	}

	if cfg.CatalogPath != "" {
		log.Printf("loading catalog from %s", cfg.CatalogPath)
		return knowledge.LoadFile(cfg.CatalogPath)
	}

	return knowledge.LoadEmbedded()
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
