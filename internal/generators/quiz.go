package generators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vidqa/internal/cache"
	"vidqa/internal/models"
	"vidqa/internal/util"

	"github.com/google/uuid"
)

type QuizInput struct {
	VideoID    string
	Title      string
	Transcript string
	Refresh    bool
}

func quizKey(videoID string) string { return "quiz:" + videoID }

// Quiz asks the model for a quiz at most QuizAttempts times. Invalid output
// after the last attempt yields a Quiz with Error set and no items; only a
// failed provider call returns an error.
func (s *Service) Quiz(ctx context.Context, in QuizInput) (models.Quiz, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return models.Quiz{}, util.ErrTranscriptNotFound
	}
	if !in.Refresh {
		if q, ok := s.LatestQuiz(ctx, in.VideoID); ok {
			return q, nil
		}
	}

	prompt := BuildQuizPrompt(in.Title, util.TruncateRunes(in.Transcript, s.opts.SummaryMaxChars), s.opts.QuizSize)
	var (
		raw     string
		lastErr error
	)
	for attempt := 1; attempt <= s.opts.QuizAttempts; attempt++ {
		resp, _, err := s.generate(ctx, "quiz", in.VideoID, prompt)
		if err != nil {
			return models.Quiz{}, fmt.Errorf("%w: generate quiz: %w", util.ErrProviderFailed, err)
		}
		raw = resp.Text
		items, err := ParseQuiz(raw, s.opts.QuizSize)
		if err == nil {
			q := models.Quiz{
				QuizID:    uuid.NewString(),
				VideoID:   in.VideoID,
				Items:     items,
				Attempts:  attempt,
				CreatedAt: time.Now().UTC(),
			}
			cache.StoreJSON(ctx, s.cache, quizKey(in.VideoID), q)
			return q, nil
		}
		lastErr = err
		s.log.Warn("quiz output invalid", slog.String("video_id", in.VideoID), slog.Int("attempt", attempt), slog.Any("error", err))
	}
	return models.Quiz{
		VideoID:   in.VideoID,
		Items:     []models.QuizItem{},
		Error:     "invalid quiz output: " + lastErr.Error(),
		Raw:       raw,
		Attempts:  s.opts.QuizAttempts,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) LatestQuiz(ctx context.Context, videoID string) (models.Quiz, bool) {
	q, ok := cache.LoadJSON[models.Quiz](ctx, s.cache, quizKey(videoID))
	if !ok || len(q.Items) == 0 {
		return models.Quiz{}, false
	}
	return q, true
}

// SubmitAnswers scores answers against the latest valid quiz for the video.
func (s *Service) SubmitAnswers(ctx context.Context, videoID string, answers []string) (models.ScoreResult, error) {
	q, ok := s.LatestQuiz(ctx, videoID)
	if !ok {
		return models.ScoreResult{}, util.ErrNoQuiz
	}
	res := ScoreQuiz(q, answers)
	if s.attempts != nil {
		if _, err := s.attempts.InsertAttempt(ctx, res); err != nil {
			s.log.Warn("quiz attempt insert failed", slog.String("video_id", videoID), slog.Any("error", err))
		}
	}
	return res, nil
}

// ScoreQuiz compares answers positionally. An answer may be option text, a
// labelled option or a bare letter. Missing answers count as wrong.
func ScoreQuiz(q models.Quiz, answers []string) models.ScoreResult {
	res := models.ScoreResult{
		QuizID:  q.QuizID,
		VideoID: q.VideoID,
		Total:   len(q.Items),
		Results: make([]models.AnswerResult, 0, len(q.Items)),
	}
	for i, item := range q.Items {
		r := models.AnswerResult{Question: item.Question, CorrectAnswer: item.Answer}
		if i < len(answers) {
			r.Selected = strings.TrimSpace(answers[i])
			if chosen, ok := resolveOption(item.Options, r.Selected); ok {
				r.Selected = chosen
				r.Correct = chosen == item.Answer
			}
		}
		if r.Correct {
			res.Score++
		}
		res.Results = append(res.Results, r)
	}
	return res
}
