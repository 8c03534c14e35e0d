package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/api"
	"github.com/prepstack/examtutor/internal/api/handlers"
	"github.com/prepstack/examtutor/internal/api/middleware"
)

type RouterConfig struct {
	AskHandler    *handlers.AskHandler
	CorpusHandler *handlers.CorpusHandler
	ExamHandler   *handlers.ExamHandler
	Logger        *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ask", cfg.AskHandler.Ask)
	r.Post("/search", cfg.CorpusHandler.Search)
	r.Get("/stats", cfg.CorpusHandler.Stats)
	r.Get("/subjects", cfg.CorpusHandler.Subjects)

	r.Route("/exam", func(r chi.Router) {
		r.Post("/ai-analysis", cfg.AskHandler.AnalyzeExamItem)
		r.Get("/questions", cfg.ExamHandler.ListQuestions)
		r.Get("/cases", cfg.ExamHandler.ListCases)
		r.Post("/search", cfg.ExamHandler.SearchQuestions)
		r.Get("/stats", cfg.ExamHandler.Stats)
	})

	return r
}
