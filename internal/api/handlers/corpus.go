package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prepstack/examtutor/internal/api"
	"github.com/prepstack/examtutor/internal/domain"
)

type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, subjectFilter *domain.Subject, k int) ([]domain.RetrievedChunk, error)
}

type CorpusStatsStore interface {
	Stats(ctx context.Context) (domain.CorpusStats, error)
}

type CorpusHandler struct {
	retriever ChunkRetriever
	store     CorpusStatsStore
	defaultK  int
}

func NewCorpusHandler(retriever ChunkRetriever, store CorpusStatsStore, defaultK int) *CorpusHandler {
	return &CorpusHandler{retriever: retriever, store: store, defaultK: defaultK}
}

type SearchRequest struct {
	Query   string `json:"query"`
	Subject string `json:"subject,omitempty"`
	K       int    `json:"k,omitempty"`
}

type SearchHit struct {
	Rank        int            `json:"rank"`
	Score       float64        `json:"score"`
	Subject     domain.Subject `json:"subject"`
	SourceLabel string         `json:"source_label"`
	Page        int            `json:"page,omitempty"`
	Content     string         `json:"content"`
}

type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// Search exposes raw retrieval without synthesis, for inspecting what the
// engine would ground an answer on.
func (h *CorpusHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var subjectFilter *domain.Subject
	if req.Subject != "" {
		subject, err := domain.ParseSubject(req.Subject)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		subjectFilter = &subject
	}

	k := req.K
	if k == 0 {
		k = h.defaultK
	}

	chunks, err := h.retriever.Retrieve(r.Context(), req.Query, subjectFilter, k)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	hits := make([]SearchHit, len(chunks))
	for i, c := range chunks {
		hits[i] = SearchHit{
			Rank:        c.Rank,
			Score:       c.Score,
			Subject:     c.Chunk.Subject,
			SourceLabel: c.Chunk.SourceLabel,
			Page:        c.Chunk.Page,
			Content:     c.Chunk.Content,
		}
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: hits})
}

type CorpusStatsResponse struct {
	Total     int                    `json:"total"`
	BySubject map[domain.Subject]int `json:"by_subject"`
}

func (h *CorpusHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, CorpusStatsResponse{
		Total:     stats.Total,
		BySubject: stats.BySubject,
	})
}

func (h *CorpusHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string][]domain.Subject{
		"subjects": domain.Subjects(),
	})
}
