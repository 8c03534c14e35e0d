package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/domain"
	"github.com/prepstack/examtutor/internal/telemetry"
)

// EngineConfig tunes the answer pipeline.
type EngineConfig struct {
	// RetrievalK is how many chunks ground each answer.
	RetrievalK int
	// ExcerptMaxChars caps the length of each source reference excerpt.
	ExcerptMaxChars int
}

// Engine orchestrates the full answer pipeline: retrieve, compose,
// synthesize, cite.
type Engine struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	cfg         EngineConfig
	logger      *zap.Logger
}

func NewEngine(retriever *Retriever, synthesizer *Synthesizer, cfg EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		retriever:   retriever,
		synthesizer: synthesizer,
		cfg:         cfg,
		logger:      logger,
	}
}

// Ask answers a free-form question, optionally restricted to one subject.
// An empty retrieval result still produces an answer; the prompt tells the
// model to answer from general knowledge, and the source list comes back
// empty.
func (e *Engine) Ask(ctx context.Context, query string, subjectFilter *domain.Subject) (domain.AskResult, error) {
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "engine.ask", telemetry.SpanAttributes{Operation: "ask"})
	defer span.End()

	chunks, err := e.retriever.Retrieve(ctx, query, subjectFilter, e.cfg.RetrievalK)
	if err != nil {
		span.SetError(err)
		return domain.AskResult{}, err
	}

	prompt := ComposeOpenQuestion(query, chunks)

	answer, err := e.synthesizer.Synthesize(ctx, prompt)
	if err != nil {
		span.SetError(err)
		return domain.AskResult{}, err
	}

	e.logger.Info("question answered",
		zap.Int("sources", len(chunks)),
		zap.Bool("filtered", subjectFilter != nil),
		zap.Duration("elapsed", time.Since(start)),
	)

	return domain.AskResult{
		Answer:  answer,
		Sources: ResolveCitations(chunks, e.cfg.ExcerptMaxChars),
	}, nil
}

// AnalyzeExamItem produces a structured analysis of an exam item, retrieving
// against the item's flattened text restricted to the item's subject.
func (e *Engine) AnalyzeExamItem(ctx context.Context, item domain.ExamItem, subject domain.Subject) (domain.AnalysisResult, error) {
	if !subject.IsValid() {
		return domain.AnalysisResult{}, domain.ErrInvalidSubject
	}

	flattened := item.Flatten()
	if strings.TrimSpace(flattened) == "" {
		return domain.AnalysisResult{}, domain.ErrEmptyQuery
	}

	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "engine.analyze_exam_item", telemetry.SpanAttributes{
		Subject:   string(subject),
		Operation: "analyze_exam_item",
	})
	defer span.End()

	chunks, err := e.retriever.Retrieve(ctx, flattened, &subject, e.cfg.RetrievalK)
	if err != nil {
		span.SetError(err)
		return domain.AnalysisResult{}, err
	}

	prompt := ComposeExamAnalysis(item, subject, chunks)

	analysis, err := e.synthesizer.Synthesize(ctx, prompt)
	if err != nil {
		span.SetError(err)
		return domain.AnalysisResult{}, err
	}

	e.logger.Info("exam item analyzed",
		zap.String("subject", string(subject)),
		zap.Int("sources", len(chunks)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return domain.AnalysisResult{
		Analysis: analysis,
		Sources:  ResolveCitations(chunks, e.cfg.ExcerptMaxChars),
	}, nil
}
