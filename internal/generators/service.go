package generators

import (
	"context"
	"log/slog"

	"vidqa/internal/cache"
	"vidqa/internal/models"
	"vidqa/internal/providers"
	"vidqa/internal/util"

	"github.com/google/uuid"
)

// Auditor records one row per LLM call.
type Auditor interface {
	LogCall(ctx context.Context, rec models.LLMCall) error
}

// AttemptRecorder persists scored quiz submissions.
type AttemptRecorder interface {
	InsertAttempt(ctx context.Context, res models.ScoreResult) (string, error)
}

type Options struct {
	SummaryMaxChars int
	SummaryWords    int
	QuizSize        int
	QuizAttempts    int
}

func (o Options) normalized() Options {
	if o.SummaryMaxChars <= 0 {
		o.SummaryMaxChars = 50000
	}
	if o.SummaryWords <= 0 {
		o.SummaryWords = 100
	}
	if o.QuizSize <= 0 {
		o.QuizSize = 5
	}
	if o.QuizAttempts <= 0 {
		o.QuizAttempts = 2
	}
	return o
}

type Service struct {
	llm      providers.LLMProvider
	cache    *cache.Cache
	audit    Auditor
	attempts AttemptRecorder
	opts     Options
	log      *slog.Logger
}

// NewService wires the generators. audit and attempts may be nil.
func NewService(llm providers.LLMProvider, c *cache.Cache, audit Auditor, attempts AttemptRecorder, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{llm: llm, cache: c, audit: audit, attempts: attempts, opts: opts.normalized(), log: log}
}

func (s *Service) generate(ctx context.Context, op, videoID, prompt string) (providers.GenerateResponse, providers.ProviderInfo, error) {
	resp, info, err := s.llm.Generate(ctx, providers.GenerateRequest{Operation: op, Prompt: prompt})
	s.record(ctx, op, videoID, info, err)
	return resp, info, err
}

func (s *Service) record(ctx context.Context, op, videoID string, info providers.ProviderInfo, callErr error) {
	if s.audit == nil {
		return
	}
	rec := models.LLMCall{
		CallID:       uuid.NewString(),
		Operation:    op,
		VideoID:      videoID,
		ProviderName: info.Name,
		Model:        info.Model,
		RequestID:    util.RequestID(ctx),
		Status:       "ok",
	}
	if callErr != nil {
		rec.Status = "error"
		rec.ErrorType = string(providers.ClassifyError(callErr))
	}
	if rec.ProviderName == "" {
		rec.ProviderName = "unknown"
	}
	if err := s.audit.LogCall(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warn("llm audit insert failed", slog.String("operation", op), slog.Any("error", err))
	}
}
