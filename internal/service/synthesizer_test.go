package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/examtutor/internal/domain"
)

// MockChatClient is a mock implementation of ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func TestSynthesizer_Synthesize(t *testing.T) {
	ctx := context.Background()
	prompt := Prompt{System: "sys", User: "user"}
	cfg := SynthesizerConfig{Timeout: time.Second, Retries: 1}

	t.Run("returns trimmed model output verbatim", func(t *testing.T) {
		chat := new(MockChatClient)
		s := NewSynthesizer(chat, cfg, nil)

		chat.On("Complete", mock.Anything, "sys", "user").Return("\n  The answer is 42.  \n", nil).Once()

		answer, err := s.Synthesize(ctx, prompt)

		require.NoError(t, err)
		assert.Equal(t, "The answer is 42.", answer)
	})

	t.Run("retries once on transient failure", func(t *testing.T) {
		chat := new(MockChatClient)
		s := NewSynthesizer(chat, cfg, nil)

		chat.On("Complete", mock.Anything, "sys", "user").Return("", errors.New("upstream timeout")).Once()
		chat.On("Complete", mock.Anything, "sys", "user").Return("recovered answer", nil).Once()

		answer, err := s.Synthesize(ctx, prompt)

		require.NoError(t, err)
		assert.Equal(t, "recovered answer", answer)
		chat.AssertNumberOfCalls(t, "Complete", 2)
	})

	t.Run("exhausted retries map to synthesis unavailable", func(t *testing.T) {
		chat := new(MockChatClient)
		s := NewSynthesizer(chat, cfg, nil)

		cause := errors.New("backend down")
		chat.On("Complete", mock.Anything, "sys", "user").Return("", cause).Times(2)

		_, err := s.Synthesize(ctx, prompt)

		assert.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
		assert.ErrorIs(t, err, cause)
		chat.AssertNumberOfCalls(t, "Complete", 2)
	})

	t.Run("quota errors are never retried", func(t *testing.T) {
		chat := new(MockChatClient)
		s := NewSynthesizer(chat, cfg, nil)

		chat.On("Complete", mock.Anything, "sys", "user").Return("", domain.ErrQuotaExceeded.Wrap(errors.New("429"))).Once()

		_, err := s.Synthesize(ctx, prompt)

		assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
		assert.NotErrorIs(t, err, domain.ErrSynthesisUnavailable)
		chat.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("caller cancellation stops retrying", func(t *testing.T) {
		chat := new(MockChatClient)
		s := NewSynthesizer(chat, cfg, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		chat.On("Complete", mock.Anything, "sys", "user").Return("", context.Canceled).Once()

		_, err := s.Synthesize(cancelled, prompt)

		assert.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
		chat.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("zero retries means a single attempt", func(t *testing.T) {
		chat := new(MockChatClient)
		s := NewSynthesizer(chat, SynthesizerConfig{Timeout: time.Second}, nil)

		chat.On("Complete", mock.Anything, "sys", "user").Return("", errors.New("boom")).Once()

		_, err := s.Synthesize(ctx, prompt)

		assert.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
		chat.AssertNumberOfCalls(t, "Complete", 1)
	})
}
