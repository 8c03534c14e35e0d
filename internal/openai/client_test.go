package openai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/examtutor/internal/domain"
)

type fakeAPI struct {
	embedding []float32
	embedErr  error
	chatText  string
	chatErr   error
}

func (f *fakeAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	return f.embedding, f.embedErr
}

func (f *fakeAPI) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	return f.chatText, f.chatErr
}

func newTestClient(api API, dims int) *Client {
	return &Client{api: api, dimensions: dims}
}

func TestGenerateEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("returns embedding with expected dimensions", func(t *testing.T) {
		vec := make([]float32, 4)
		client := newTestClient(&fakeAPI{embedding: vec}, 4)

		got, err := client.GenerateEmbedding(ctx, "cost estimation basics")
		require.NoError(t, err)
		assert.Equal(t, vec, got)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		client := newTestClient(&fakeAPI{}, 4)

		_, err := client.GenerateEmbedding(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		client := newTestClient(&fakeAPI{embedding: make([]float32, 3)}, 4)

		_, err := client.GenerateEmbedding(ctx, "text")
		assert.ErrorIs(t, err, ErrWrongDimensions)
	})

	t.Run("propagates backend errors", func(t *testing.T) {
		cause := errors.New("backend down")
		client := newTestClient(&fakeAPI{embedErr: cause}, 4)

		_, err := client.GenerateEmbedding(ctx, "text")
		assert.ErrorIs(t, err, cause)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns completion text", func(t *testing.T) {
		client := newTestClient(&fakeAPI{chatText: "the answer"}, 4)

		got, err := client.Complete(ctx, "system", "user")
		require.NoError(t, err)
		assert.Equal(t, "the answer", got)
	})

	t.Run("maps 429 to quota exceeded", func(t *testing.T) {
		apiErr := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}
		client := newTestClient(&fakeAPI{chatErr: apiErr}, 4)

		_, err := client.Complete(ctx, "system", "user")
		assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	})

	t.Run("maps insufficient_quota code to quota exceeded", func(t *testing.T) {
		apiErr := &openai.APIError{HTTPStatusCode: http.StatusForbidden, Code: "insufficient_quota"}
		client := newTestClient(&fakeAPI{chatErr: apiErr}, 4)

		_, err := client.Complete(ctx, "system", "user")
		assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := errors.New("upstream 500")
		client := newTestClient(&fakeAPI{chatErr: cause}, 4)

		_, err := client.Complete(ctx, "system", "user")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrQuotaExceeded)
		assert.ErrorIs(t, err, cause)
	})
}
