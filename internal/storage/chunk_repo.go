package storage

import (
	"context"
	"fmt"

	"vidqa/internal/models"
)

type ChunkRecord struct {
	VideoID          string
	ChunkIndex       int
	Offset           int
	Text             string
	EmbeddingVersion string
	EmbeddingVector  *string
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceVideoChunks drops the video's previous chunks and inserts the new
// set in one transaction.
func (r *ChunkRepo) ReplaceVideoChunks(ctx context.Context, videoID string, chunks []ChunkRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx replace chunks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM video_chunks WHERE video_id=$1`, videoID); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", videoID, err)
	}
	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
INSERT INTO video_chunks (video_id, chunk_index, char_offset, text, embedding_version, embedding)
VALUES ($1, $2, $3, $4, $5, CASE WHEN $6::text IS NULL THEN NULL ELSE $6::vector END)`,
			videoID, c.ChunkIndex, c.Offset, c.Text, c.EmbeddingVersion, c.EmbeddingVector,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s/%d: %w", videoID, c.ChunkIndex, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListVideoChunks(ctx context.Context, videoID string) ([]models.TextChunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT chunk_index, char_offset, text
FROM video_chunks
WHERE video_id=$1
ORDER BY chunk_index ASC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by video: %w", err)
	}
	defer rows.Close()
	out := make([]models.TextChunk, 0, 64)
	for rows.Next() {
		var c models.TextChunk
		if err := rows.Scan(&c.Ordinal, &c.Offset, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk by video: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk by video: %w", err)
	}
	return out, nil
}
