package admin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/config"
	"github.com/prepstack/examtutor/internal/database"
	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/logger"
	"github.com/prepstack/examtutor/internal/openai"
	"github.com/prepstack/examtutor/internal/repository"
	"github.com/prepstack/examtutor/internal/service"
	"github.com/prepstack/examtutor/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest course material into the knowledge corpus",
		Long: `Chunk and store course material for one subject.

Material is read from a local directory or from an S3 prefix. Each file
becomes one source label unless --source-label overrides it. Chunks are
embedded inline when an OpenAI key is configured; otherwise they are stored
unembedded and the background worker fills them in.`,
		RunE: runIngest,
	}

	cmd.Flags().String("subject", "", "Subject the material belongs to (required)")
	cmd.Flags().String("dir", "", "Local directory of .txt/.md files to ingest")
	cmd.Flags().String("s3-prefix", "", "S3 key prefix to ingest instead of a local directory")
	cmd.Flags().String("source-label", "", "Source label for every chunk (defaults to the file name)")
	cmd.Flags().Bool("no-embed", false, "Store chunks without embeddings and let the worker backfill")
	cmd.MarkFlagRequired("subject")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	subjectFlag, _ := cmd.Flags().GetString("subject")
	subject, err := domain.ParseSubject(subjectFlag)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	s3Prefix, _ := cmd.Flags().GetString("s3-prefix")
	if (dir == "") == (s3Prefix == "") {
		return fmt.Errorf("exactly one of --dir or --s3-prefix is required")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var embedder service.EmbeddingClient
	noEmbed, _ := cmd.Flags().GetBool("no-embed")
	if !noEmbed && cfg.HasOpenAI() {
		embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			EmbeddingModel:      cfg.EmbeddingModel,
			EmbeddingDimensions: cfg.EmbeddingDims,
		})
	}

	var sources []ingestSource
	if dir != "" {
		sources, err = localSources(dir)
	} else {
		sources, err = s3Sources(ctx, cfg, s3Prefix)
	}
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no ingestable files found")
	}

	labelOverride, _ := cmd.Flags().GetString("source-label")
	chunkRepo := repository.NewChunkRepository(pool)
	chunkCfg := service.DefaultChunkConfig()

	total := 0
	for _, src := range sources {
		label := labelOverride
		if label == "" {
			label = src.Label
		}

		pieces := service.ChunkText(src.Text, chunkCfg)
		chunks := make([]domain.KnowledgeChunk, 0, len(pieces))
		for _, piece := range pieces {
			chunk := domain.KnowledgeChunk{
				Subject:     subject,
				Content:     piece,
				SourceLabel: label,
			}
			if embedder != nil {
				embedding, err := embedder.GenerateEmbedding(ctx, piece)
				if err != nil {
					return fmt.Errorf("failed to embed chunk from %q: %w", label, err)
				}
				chunk.Embedding = embedding
			}
			chunks = append(chunks, chunk)
		}

		if err := chunkRepo.InsertChunks(ctx, chunks); err != nil {
			return fmt.Errorf("failed to store chunks from %q: %w", label, err)
		}

		total += len(chunks)
		zlog.Info("ingested source",
			zap.String("source", label),
			zap.Int("chunks", len(chunks)),
		)
	}

	zlog.Info("ingest complete",
		zap.String("subject", string(subject)),
		zap.Int("sources", len(sources)),
		zap.Int("chunks", total),
		zap.Bool("embedded", embedder != nil),
	)
	return nil
}

type ingestSource struct {
	Label string
	Text  string
}

func localSources(dir string) ([]ingestSource, error) {
	var sources []ingestSource

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !ingestableFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", path, err)
		}

		sources = append(sources, ingestSource{
			Label: strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Text:  string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sources, nil
}

func s3Sources(ctx context.Context, cfg *config.Config, prefix string) ([]ingestSource, error) {
	if !cfg.HasS3() {
		return nil, fmt.Errorf("S3 is not configured: set EXAMTUTOR_S3_ENDPOINT and credentials")
	}

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

	keys, err := s3Client.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var sources []ingestSource
	for _, key := range keys {
		if !ingestableFile(key) {
			continue
		}

		body, err := s3Client.GetObject(ctx, key)
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read object %q: %w", key, err)
		}

		base := filepath.Base(key)
		sources = append(sources, ingestSource{
			Label: strings.TrimSuffix(base, filepath.Ext(base)),
			Text:  string(data),
		})
	}

	return sources, nil
}

func ingestableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}
