package storage

import (
	"context"
	"errors"
	"fmt"

	"vidqa/internal/models"

	"github.com/jackc/pgx/v5"
)

type VideoRepo struct {
	db *DB
}

func NewVideoRepo(db *DB) *VideoRepo {
	return &VideoRepo{db: db}
}

func (r *VideoRepo) UpsertVideo(ctx context.Context, v models.Video) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO videos (video_id, url, title, source, transcript_path, chunk_count, status, fail_reason)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6, $7, NULLIF($8,''))
ON CONFLICT (video_id)
DO UPDATE SET
  url = EXCLUDED.url,
  title = COALESCE(EXCLUDED.title, videos.title),
  source = COALESCE(EXCLUDED.source, videos.source),
  transcript_path = COALESCE(EXCLUDED.transcript_path, videos.transcript_path),
  chunk_count = EXCLUDED.chunk_count,
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		v.VideoID, v.URL, v.Title, v.Source, v.TranscriptPath, v.ChunkCount, v.Status, v.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}
	return nil
}

// GetVideo returns (zero, false, nil) when the video is unknown.
func (r *VideoRepo) GetVideo(ctx context.Context, videoID string) (models.Video, bool, error) {
	row := r.db.Pool.QueryRow(ctx, `
SELECT video_id, url, COALESCE(title,''), COALESCE(source,''), COALESCE(transcript_path,''),
       chunk_count, status, COALESCE(fail_reason,''), created_at, updated_at
FROM videos
WHERE video_id=$1`, videoID)
	var v models.Video
	err := row.Scan(&v.VideoID, &v.URL, &v.Title, &v.Source, &v.TranscriptPath, &v.ChunkCount, &v.Status, &v.FailReason, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Video{}, false, nil
	}
	if err != nil {
		return models.Video{}, false, fmt.Errorf("get video: %w", err)
	}
	return v, true, nil
}

func (r *VideoRepo) ListVideos(ctx context.Context) ([]models.Video, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT video_id, url, COALESCE(title,''), COALESCE(source,''), COALESCE(transcript_path,''),
       chunk_count, status, COALESCE(fail_reason,''), created_at, updated_at
FROM videos
ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	out := make([]models.Video, 0)
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.VideoID, &v.URL, &v.Title, &v.Source, &v.TranscriptPath, &v.ChunkCount, &v.Status, &v.FailReason, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return out, nil
}
