package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prepstack/examtutor/internal/domain"
)

// SynthesizerConfig tunes generation behavior.
type SynthesizerConfig struct {
	// Timeout bounds each individual completion attempt.
	Timeout time.Duration
	// Retries is the number of additional attempts after a transient
	// failure. Quota errors are never retried.
	Retries int
}

// Synthesizer produces answer text from a composed prompt, with bounded
// retries around the chat backend.
type Synthesizer struct {
	chat   ChatClient
	cfg    SynthesizerConfig
	logger *zap.Logger
}

func NewSynthesizer(chat ChatClient, cfg SynthesizerConfig, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{chat: chat, cfg: cfg, logger: logger}
}

// Synthesize runs the prompt through the chat backend. The model output is
// returned verbatim apart from surrounding whitespace; no rewriting, no
// content filtering.
func (s *Synthesizer) Synthesize(ctx context.Context, prompt Prompt) (string, error) {
	var lastErr error

	attempts := s.cfg.Retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := s.attempt(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text), nil
		}

		if errors.Is(err, domain.ErrQuotaExceeded) {
			return "", err
		}
		if ctx.Err() != nil {
			// The caller's context is gone; retrying cannot help.
			return "", domain.ErrSynthesisUnavailable.Wrap(err)
		}

		lastErr = err
		s.logger.Warn("synthesis attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
	}

	return "", domain.ErrSynthesisUnavailable.Wrap(lastErr)
}

func (s *Synthesizer) attempt(ctx context.Context, prompt Prompt) (string, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.chat.Complete(ctx, prompt.System, prompt.User)
}
