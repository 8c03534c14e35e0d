package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/telemetry"
)

const defaultBatchSize = 50

// ChunkStore lists chunks missing an embedding and stores computed ones.
type ChunkStore interface {
	ListUnembedded(ctx context.Context, limit int) ([]domain.KnowledgeChunk, error)
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error
}

// Embedder computes an embedding for a piece of text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingWorker backfills embeddings for chunks ingested without one, a
// batch per poll. Chunks stay invisible to retrieval until embedded.
type EmbeddingWorker struct {
	store    ChunkStore
	embedder Embedder
	batch    int
	logger   *zap.Logger
}

func NewEmbeddingWorker(store ChunkStore, embedder Embedder, logger *zap.Logger) *EmbeddingWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingWorker{
		store:    store,
		embedder: embedder,
		batch:    defaultBatchSize,
		logger:   logger,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *EmbeddingWorker) ProcessJobs(ctx context.Context) error {
	chunks, err := w.store.ListUnembedded(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("failed to list unembedded chunks: %w", err)
	}

	if len(chunks) == 0 {
		return nil
	}

	w.logger.Info("embedding backfill batch", zap.Int("chunks", len(chunks)))

	for _, chunk := range chunks {
		if err := w.processChunk(ctx, chunk); err != nil {
			// A failed chunk stays unembedded and is retried next poll.
			w.logger.Error("chunk embedding failed",
				zap.Int64("chunk_id", chunk.ID),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	return nil
}

func (w *EmbeddingWorker) processChunk(ctx context.Context, chunk domain.KnowledgeChunk) error {
	ctx, span := telemetry.StartSpan(ctx, "jobs.embed_chunk", telemetry.SpanAttributes{
		Subject:   string(chunk.Subject),
		ChunkID:   chunk.ID,
		Operation: "embed_chunk",
	})
	defer span.End()

	embedding, err := w.embedder.GenerateEmbedding(ctx, chunk.Content)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	if err := w.store.UpdateEmbedding(ctx, chunk.ID, embedding); err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	return nil
}
