package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/examtutor/internal/domain"
)

type MockChunkRetriever struct {
	mock.Mock
}

func (m *MockChunkRetriever) Retrieve(ctx context.Context, query string, subjectFilter *domain.Subject, k int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query, subjectFilter, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

type MockCorpusStatsStore struct {
	mock.Mock
}

func (m *MockCorpusStatsStore) Stats(ctx context.Context) (domain.CorpusStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.CorpusStats), args.Error(1)
}

func TestCorpusHandler_Search(t *testing.T) {
	t.Run("returns ranked hits", func(t *testing.T) {
		retriever := new(MockChunkRetriever)
		h := NewCorpusHandler(retriever, nil, 5)

		retriever.On("Retrieve", mock.Anything, "cash flow", (*domain.Subject)(nil), 5).Return([]domain.RetrievedChunk{
			{
				Chunk: domain.KnowledgeChunk{
					ID:          1,
					Subject:     domain.SubjectEngineeringEconomics,
					Content:     "Cash flow basics.",
					SourceLabel: "textbook-a",
					Page:        7,
				},
				Score: 0.91,
				Rank:  1,
			},
		}, nil)

		w := postJSON(t, h.Search, "/search", SearchRequest{Query: "cash flow"})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool           `json:"success"`
			Data    SearchResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Results, 1)
		assert.Equal(t, 1, resp.Data.Results[0].Rank)
		assert.Equal(t, "textbook-a", resp.Data.Results[0].SourceLabel)
		assert.InDelta(t, 0.91, resp.Data.Results[0].Score, 1e-9)
	})

	t.Run("explicit k overrides the default", func(t *testing.T) {
		retriever := new(MockChunkRetriever)
		h := NewCorpusHandler(retriever, nil, 5)

		retriever.On("Retrieve", mock.Anything, "q", (*domain.Subject)(nil), 3).Return([]domain.RetrievedChunk{}, nil)

		w := postJSON(t, h.Search, "/search", SearchRequest{Query: "q", K: 3})

		assert.Equal(t, http.StatusOK, w.Code)
		retriever.AssertExpectations(t)
	})

	t.Run("empty query returns 400", func(t *testing.T) {
		retriever := new(MockChunkRetriever)
		h := NewCorpusHandler(retriever, nil, 5)

		retriever.On("Retrieve", mock.Anything, "", (*domain.Subject)(nil), 5).Return(nil, domain.ErrEmptyQuery)

		w := postJSON(t, h.Search, "/search", SearchRequest{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("embedding outage returns 502", func(t *testing.T) {
		retriever := new(MockChunkRetriever)
		h := NewCorpusHandler(retriever, nil, 5)

		retriever.On("Retrieve", mock.Anything, "q", (*domain.Subject)(nil), 5).Return(nil, domain.ErrEmbeddingUnavailable)

		w := postJSON(t, h.Search, "/search", SearchRequest{Query: "q"})

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestCorpusHandler_Stats(t *testing.T) {
	store := new(MockCorpusStatsStore)
	h := NewCorpusHandler(nil, store, 5)

	store.On("Stats", mock.Anything).Return(domain.CorpusStats{
		Total: 42,
		BySubject: map[domain.Subject]int{
			domain.SubjectEngineeringEconomics: 30,
			domain.SubjectProjectManagement:    12,
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	h.Stats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                `json:"success"`
		Data    CorpusStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 42, resp.Data.Total)
	assert.Equal(t, 30, resp.Data.BySubject[domain.SubjectEngineeringEconomics])
}

func TestCorpusHandler_Subjects(t *testing.T) {
	h := NewCorpusHandler(nil, nil, 5)

	req := httptest.NewRequest(http.MethodGet, "/subjects", nil)
	w := httptest.NewRecorder()
	h.Subjects(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Subjects []domain.Subject `json:"subjects"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Subjects, 4)
	assert.Contains(t, resp.Data.Subjects, domain.SubjectElectromechanicalPractice)
}
