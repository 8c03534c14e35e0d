package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/examtutor/internal/domain"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result["key"])
}

func TestJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, http.StatusOK, map[string]string{"answer": "42"})

	assert.Equal(t, http.StatusOK, w.Code)

	var result SuccessResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.True(t, result.Success)

	data, ok := result.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "42", data["answer"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "invalid input")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid input", result.Error)
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"empty query", domain.ErrEmptyQuery, http.StatusBadRequest},
		{"validation error", domain.ErrInvalidSubject, http.StatusBadRequest},
		{"not found error", domain.ErrQuestionNotFound, http.StatusNotFound},
		{"quota exceeded", domain.ErrQuotaExceeded, http.StatusTooManyRequests},
		{"embedding unavailable", domain.ErrEmbeddingUnavailable, http.StatusBadGateway},
		{"synthesis unavailable", domain.ErrSynthesisUnavailable, http.StatusBadGateway},
		{"wrapped sentinel", fmt.Errorf("handler: %w", domain.ErrQuotaExceeded), http.StatusTooManyRequests},
		{"internal error", domain.NewDomainError(domain.ErrCodeInternalError, "internal"), http.StatusInternalServerError},
		{"unknown domain error", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"non-domain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DomainErrorToHTTP(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleError(w, domain.ErrQuestionNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var result ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Contains(t, result.Error, "not found")
	})

	t.Run("backend failure hides the underlying cause", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleError(w, domain.ErrSynthesisUnavailable.Wrap(errors.New("dial tcp 10.0.0.1: connection refused")))

		assert.Equal(t, http.StatusBadGateway, w.Code)

		var result ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, "synthesis backend unavailable", result.Error)
		assert.NotContains(t, result.Error, "10.0.0.1")
	})
}
