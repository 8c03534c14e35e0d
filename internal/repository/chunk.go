package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/service"
)

// ChunkRepository is the vector knowledge store: embedded textbook chunks in
// Postgres with pgvector. Reads are concurrent; writes happen only during
// offline ingestion.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

// InsertChunks stores ingested chunks. A nil embedding is stored as NULL and
// picked up later by the embedding worker.
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		var embedding *pgvector.Vector
		if len(c.Embedding) > 0 {
			vec := pgvector.NewVector(c.Embedding)
			embedding = &vec
		}

		_, err := r.db.Exec(ctx,
			`INSERT INTO knowledge_chunks (subject, content, source_label, page, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			string(c.Subject), c.Content, c.SourceLabel, c.Page, embedding, createdAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search returns the chunks nearest to the query embedding by cosine
// similarity, restricted to one subject when given. Chunks without an
// embedding are invisible to search.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, subject *domain.Subject, limit int) ([]service.ScoredChunk, error) {
	if limit <= 0 {
		limit = 20
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT id, subject, content, source_label, page, embedding, created_at,
		       1 - (embedding <=> $1) AS score
		FROM knowledge_chunks
		WHERE embedding IS NOT NULL`
	args := []any{vec}

	if subject != nil {
		query += ` AND subject = $2`
		args = append(args, string(*subject))
	}

	query += ` ORDER BY embedding <=> $1 LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]service.ScoredChunk, 0, limit)
	for rows.Next() {
		var (
			chunk  domain.KnowledgeChunk
			subj   string
			stored pgvector.Vector
			score  float64
		)
		if err := rows.Scan(&chunk.ID, &subj, &chunk.Content, &chunk.SourceLabel, &chunk.Page, &stored, &chunk.CreatedAt, &score); err != nil {
			return nil, err
		}
		chunk.Subject = domain.Subject(subj)
		chunk.Embedding = stored.Slice()
		results = append(results, service.ScoredChunk{Chunk: chunk, Score: score})
	}

	return results, rows.Err()
}

// ListUnembedded returns chunks awaiting an embedding, oldest first.
func (r *ChunkRepository) ListUnembedded(ctx context.Context, limit int) ([]domain.KnowledgeChunk, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, subject, content, source_label, page, created_at
		 FROM knowledge_chunks
		 WHERE embedding IS NULL
		 ORDER BY created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.KnowledgeChunk
	for rows.Next() {
		var (
			chunk domain.KnowledgeChunk
			subj  string
		)
		if err := rows.Scan(&chunk.ID, &subj, &chunk.Content, &chunk.SourceLabel, &chunk.Page, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunk.Subject = domain.Subject(subj)
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// UpdateEmbedding fills in the embedding for a previously ingested chunk.
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	_, err := r.db.Exec(ctx,
		`UPDATE knowledge_chunks SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	return err
}

// Stats reports corpus totals overall and per subject.
func (r *ChunkRepository) Stats(ctx context.Context) (domain.CorpusStats, error) {
	stats := domain.CorpusStats{BySubject: make(map[domain.Subject]int)}

	rows, err := r.db.Query(ctx,
		`SELECT subject, COUNT(*) FROM knowledge_chunks GROUP BY subject`,
	)
	if err != nil {
		return domain.CorpusStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			subj  string
			count int
		)
		if err := rows.Scan(&subj, &count); err != nil {
			return domain.CorpusStats{}, err
		}
		stats.BySubject[domain.Subject(subj)] = count
		stats.Total += count
	}

	return stats, rows.Err()
}
