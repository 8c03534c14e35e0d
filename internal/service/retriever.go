package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/domain"
)

const (
	// Over-fetch factor: floor filtering and near-duplicate removal shrink
	// the candidate set, so the store is asked for more than K.
	candidateMultiplier = 4
	minCandidates       = 20
	maxCandidates       = 200
)

// RetrieverConfig tunes retrieval behavior.
type RetrieverConfig struct {
	// SimilarityFloor excludes chunks scoring below it even when K is not
	// filled; weak grounding hurts synthesis more than no grounding.
	SimilarityFloor float64
	// NearDupThreshold is the pairwise cosine similarity above which two
	// chunks with the same source label count as duplicates.
	NearDupThreshold float64
	// EmbedTimeout bounds the query embedding call. Zero means no bound
	// beyond the caller's context.
	EmbedTimeout time.Duration
}

// Retriever turns a query into ranked, deduplicated chunks from the
// knowledge store.
type Retriever struct {
	embedder EmbeddingClient
	store    ChunkSearcher
	cfg      RetrieverConfig
	logger   *zap.Logger
}

func NewRetriever(embedder EmbeddingClient, store ChunkSearcher, cfg RetrieverConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Retrieve returns up to k chunks relevant to the query, restricted to
// subjectFilter when given. An empty result is a valid outcome, not an
// error: it means nothing in the corpus cleared the similarity floor.
func (r *Retriever) Retrieve(ctx context.Context, query string, subjectFilter *domain.Subject, k int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if k < 1 {
		return nil, domain.ErrInvalidK
	}

	embedCtx := ctx
	if r.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, r.cfg.EmbedTimeout)
		defer cancel()
	}

	embedding, err := r.embedder.GenerateEmbedding(embedCtx, query)
	if err != nil {
		r.logger.Error("query embedding failed", zap.Error(err))
		return nil, domain.ErrEmbeddingUnavailable.Wrap(err)
	}

	candidateLimit := k * candidateMultiplier
	if candidateLimit < minCandidates {
		candidateLimit = minCandidates
	}
	if candidateLimit > maxCandidates {
		candidateLimit = maxCandidates
	}

	candidates, err := r.store.Search(ctx, embedding, subjectFilter, candidateLimit)
	if err != nil {
		return nil, err
	}

	kept := make([]ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < r.cfg.SimilarityFloor {
			continue
		}
		kept = append(kept, c)
	}

	kept = dedupeNearIdentical(kept, r.cfg.NearDupThreshold)

	// Deterministic order: score descending, chunk ID breaking ties.
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Chunk.ID < kept[j].Chunk.ID
	})

	if len(kept) > k {
		kept = kept[:k]
	}

	results := make([]domain.RetrievedChunk, len(kept))
	for i, c := range kept {
		results[i] = domain.RetrievedChunk{
			Chunk: c.Chunk,
			Score: c.Score,
			Rank:  i + 1,
		}
	}

	r.logger.Debug("retrieval completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
		zap.Int("k", k),
	)

	return results, nil
}

// dedupeNearIdentical drops the lower-scored of any chunk pair that shares a
// source label and embeds almost identically. Overlapping textbook excerpts
// otherwise produce redundant citations.
func dedupeNearIdentical(chunks []ScoredChunk, threshold float64) []ScoredChunk {
	if threshold <= 0 || len(chunks) < 2 {
		return chunks
	}

	// Process best-first so the survivor of each duplicate pair is the
	// higher-scored one.
	ordered := make([]ScoredChunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Chunk.ID < ordered[j].Chunk.ID
	})

	kept := make([]ScoredChunk, 0, len(ordered))
	for _, candidate := range ordered {
		duplicate := false
		for _, existing := range kept {
			if candidate.Chunk.SourceLabel != existing.Chunk.SourceLabel {
				continue
			}
			if cosineSimilarity(candidate.Chunk.Embedding, existing.Chunk.Embedding) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}

	return kept
}

// cosineSimilarity returns the normalized inner product of two vectors, or 0
// when either has no magnitude or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
