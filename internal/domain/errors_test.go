package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError(t *testing.T) {
	t.Run("formats code and message", func(t *testing.T) {
		err := NewDomainError(ErrCodeValidation, "bad input")
		assert.Equal(t, "[VALIDATION_ERROR] bad input", err.Error())
	})

	t.Run("wrapped sentinel matches with errors.Is", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := ErrEmbeddingUnavailable.Wrap(cause)

		assert.True(t, errors.Is(err, ErrEmbeddingUnavailable))
		assert.True(t, errors.Is(err, cause))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("fmt.Errorf wrapping preserves identity", func(t *testing.T) {
		err := fmt.Errorf("retrieve: %w", ErrEmptyQuery)
		assert.True(t, errors.Is(err, ErrEmptyQuery))
	})

	t.Run("distinct sentinels do not match", func(t *testing.T) {
		require.False(t, errors.Is(ErrSynthesisUnavailable, ErrQuotaExceeded))
		require.False(t, errors.Is(ErrEmptyQuery, ErrInvalidSubject))
	})
}
