//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepstack/examtutor/internal/api/handlers"
	"github.com/prepstack/examtutor/internal/logger"
	"github.com/prepstack/examtutor/internal/repository"
	"github.com/prepstack/examtutor/internal/server"
	"github.com/prepstack/examtutor/internal/service"
	"github.com/prepstack/examtutor/internal/testutil"
)

// embeddingAxes maps a content keyword to the axis of the unit vector the
// stub embedder produces for any text containing it. Texts sharing a keyword
// embed identically, everything else is orthogonal, so retrieval scores are
// exact: 1.0 on a keyword match, 0.0 otherwise.
var embeddingAxes = []struct {
	keyword string
	axis    int
}{
	{"cash flow", 0},
	{"arbitration", 1},
	{"critical path", 2},
}

type stubEmbedder struct{}

func (stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, 1536)
	lower := strings.ToLower(text)
	for _, a := range embeddingAxes {
		if strings.Contains(lower, a.keyword) {
			v[a.axis] = 1
			return v, nil
		}
	}
	v[len(embeddingAxes)] = 1
	return v, nil
}

type stubChat struct{}

func (stubChat) Complete(ctx context.Context, system, user string) (string, error) {
	return "Stubbed tutoring answer grounded in the supplied material.", nil
}

// Env holds the containers, database pool and in-process HTTP server shared
// by one end-to-end test.
type Env struct {
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	ChunkRepo  *repository.ChunkRepository
	ExamRepo   *repository.ExamRepository
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupEnv starts Postgres, runs migrations and serves the full router over
// real repositories. The OpenAI boundary is replaced with deterministic
// stubs so the pipeline runs without network credentials.
func SetupEnv(t *testing.T) *Env {
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")

	chunkRepo := repository.NewChunkRepository(pool)
	examRepo := repository.NewExamRepository(pool)

	log := logger.NewNop()

	retriever := service.NewRetriever(stubEmbedder{}, chunkRepo, service.RetrieverConfig{
		SimilarityFloor:  0.30,
		NearDupThreshold: 0.98,
	}, log)
	synthesizer := service.NewSynthesizer(stubChat{}, service.SynthesizerConfig{
		Timeout: 5 * time.Second,
		Retries: 1,
	}, log)
	engine := service.NewEngine(retriever, synthesizer, service.EngineConfig{
		RetrievalK:      5,
		ExcerptMaxChars: 200,
	}, log)

	router := server.NewRouter(server.RouterConfig{
		AskHandler:    handlers.NewAskHandler(engine),
		CorpusHandler: handlers.NewCorpusHandler(retriever, chunkRepo, 5),
		ExamHandler:   handlers.NewExamHandler(examRepo),
		Logger:        log,
	})

	return &Env{
		Ctx:        ctx,
		PostgresC:  pc,
		Pool:       pool,
		ChunkRepo:  chunkRepo,
		ExamRepo:   examRepo,
		Server:     httptest.NewServer(router),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources.
func (e *Env) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse is the standard envelope every endpoint returns.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// Get performs a GET request and decodes the envelope.
func (e *Env) Get(t *testing.T, path string) (int, *APIResponse) {
	return e.doRequest(t, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body and decodes the envelope.
func (e *Env) Post(t *testing.T, path string, body interface{}) (int, *APIResponse) {
	return e.doRequest(t, http.MethodPost, path, body)
}

func (e *Env) doRequest(t *testing.T, method, path string, body interface{}) (int, *APIResponse) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var envelope APIResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(raw), err)
	}

	return resp.StatusCode, &envelope
}

// DecodeData unmarshals the envelope data into out.
func DecodeData(t *testing.T, resp *APIResponse, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, out); err != nil {
		t.Fatalf("failed to decode data %q: %v", string(resp.Data), err)
	}
}

// mustEmbed runs the stub embedder so seeded chunks carry the same vectors
// queries will produce.
func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	v, err := stubEmbedder{}.GenerateEmbedding(context.Background(), text)
	if err != nil {
		t.Fatalf("stub embedding failed: %v", err)
	}
	return v
}

func truncateAll(t *testing.T, e *Env) {
	t.Helper()
	if err := testutil.TruncateAll(e.Ctx, e.Pool); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}
