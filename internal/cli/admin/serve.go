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
	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/api/handlers"
	"github.com/prepstack/examtutor/internal/config"
	"github.com/prepstack/examtutor/internal/database"
	"github.com/prepstack/examtutor/internal/jobs"
	"github.com/prepstack/examtutor/internal/logger"
	"github.com/prepstack/examtutor/internal/openai"
	"github.com/prepstack/examtutor/internal/repository"
	"github.com/prepstack/examtutor/internal/server"
	"github.com/prepstack/examtutor/internal/service"
	"github.com/prepstack/examtutor/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the examtutor API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer zlog.Sync()

	if cfg.SentryDSN != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			zlog.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
		} else {
			defer shutdownTelemetry()
		}
	}

	cfg.Port = resolvePort(cmd, cfg.Port)

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	zlog.Info("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("EXAMTUTOR_OPENAI_API_KEY is required to serve")
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		ChatModel:           cfg.ChatModel,
		EmbeddingDimensions: cfg.EmbeddingDims,
	})

	chunkRepo := repository.NewChunkRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	retriever := service.NewRetriever(aiClient, chunkRepo, service.RetrieverConfig{
		SimilarityFloor:  cfg.SimilarityFloor,
		NearDupThreshold: cfg.NearDupThreshold,
		EmbedTimeout:     cfg.EmbedTimeout,
	}, zlog.Named("retriever"))

	synthesizer := service.NewSynthesizer(aiClient, service.SynthesizerConfig{
		Timeout: cfg.SynthesisTimeout,
		Retries: cfg.SynthesisRetries,
	}, zlog.Named("synthesizer"))

	engine := service.NewEngine(retriever, synthesizer, service.EngineConfig{
		RetrievalK:      cfg.RetrievalK,
		ExcerptMaxChars: cfg.ExcerptMaxChars,
	}, zlog.Named("engine"))

	embeddingProcessor := jobs.NewEmbeddingWorker(chunkRepo, aiClient, zlog.Named("embedding_worker"))
	embeddingWorker := jobs.NewWorker(embeddingProcessor, cfg.WorkerPollInterval, zlog.Named("worker"))
	go embeddingWorker.Start(ctx)

	router := server.NewRouter(server.RouterConfig{
		AskHandler:    handlers.NewAskHandler(engine),
		CorpusHandler: handlers.NewCorpusHandler(retriever, chunkRepo, cfg.RetrievalK),
		ExamHandler:   handlers.NewExamHandler(examRepo),
		Logger:        zlog.Named("http"),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zlog.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	embeddingWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zlog.Info("server exited")
	return nil
}

// resolvePort prefers an explicitly set --port flag over the configured
// port, even when the flag repeats the default value.
func resolvePort(cmd *cobra.Command, configured string) string {
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetString("port")
		return port
	}
	return configured
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
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
