package service

import (
	"context"

	"github.com/prepstack/examtutor/internal/domain"
)

// EmbeddingClient maps text to a fixed-length vector in the corpus embedding
// space. Queries and chunks must share the same space.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChatClient submits a composed prompt to the generative backend and returns
// the raw completion text.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ScoredChunk is a raw vector-store hit before floor filtering and
// deduplication.
type ScoredChunk struct {
	Chunk domain.KnowledgeChunk
	Score float64
}

// ChunkSearcher is the read side of the vector knowledge store.
type ChunkSearcher interface {
	Search(ctx context.Context, embedding []float32, subject *domain.Subject, limit int) ([]ScoredChunk, error)
}

// Prompt is a composed generation request: a fixed system role plus the
// per-request user message.
type Prompt struct {
	System string
	User   string
}
