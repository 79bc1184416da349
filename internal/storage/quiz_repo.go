package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"vidqa/internal/models"

	"github.com/google/uuid"
)

type QuizRepo struct {
	db *DB
}

func NewQuizRepo(db *DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// InsertAttempt stores a scored submission and returns its attempt id.
func (r *QuizRepo) InsertAttempt(ctx context.Context, res models.ScoreResult) (string, error) {
	answers, err := json.Marshal(res.Results)
	if err != nil {
		return "", fmt.Errorf("encode quiz answers: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.Pool.Exec(ctx, `
INSERT INTO quiz_attempts (attempt_id, quiz_id, video_id, score, total, answers)
VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb)`,
		id, res.QuizID, res.VideoID, res.Score, res.Total, string(answers))
	if err != nil {
		return "", fmt.Errorf("insert quiz attempt: %w", err)
	}
	return id, nil
}
