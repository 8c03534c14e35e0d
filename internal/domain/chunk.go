package domain

import "time"

// KnowledgeChunk is a bounded excerpt of textbook material stored with its
// embedding and subject tag. Chunks are immutable after ingestion and owned
// by the vector knowledge store.
type KnowledgeChunk struct {
	ID          int64
	Subject     Subject
	Content     string
	Embedding   []float32
	SourceLabel string
	Page        int
	CreatedAt   time.Time
}

// RetrievedChunk pairs a chunk with its similarity score for one request.
// Ordering is by descending score with ties broken by chunk ID, so identical
// inputs against an unchanged store rank identically. Never persisted.
type RetrievedChunk struct {
	Chunk KnowledgeChunk
	Score float64
	Rank  int
}

// CorpusStats summarizes the knowledge store contents.
type CorpusStats struct {
	Total     int
	BySubject map[Subject]int
}
