package activities

import (
	"context"
	"fmt"
	"unicode/utf8"

	"vidqa/internal/models"
	"vidqa/internal/pipeline"
)

// Activities exposes the pipeline stages to Temporal. The worker and the API
// must share the transcript directory, the database and the index backend.
type Activities struct {
	pipeline *pipeline.Service
}

func New(p *pipeline.Service) *Activities {
	return &Activities{pipeline: p}
}

func (a *Activities) AcquireTranscriptActivity(ctx context.Context, in AcquireTranscriptInput) (AcquireTranscriptOutput, error) {
	if in.VideoID == "" || in.URL == "" {
		return AcquireTranscriptOutput{}, fmt.Errorf("video_id and url are required")
	}
	t, cached, err := a.pipeline.Acquire(ctx, in.VideoID, in.URL)
	if err != nil {
		return AcquireTranscriptOutput{}, err
	}
	return AcquireTranscriptOutput{
		Title:  t.Title,
		Source: t.Source,
		Cached: cached,
		Chars:  utf8.RuneCountInString(t.Text),
	}, nil
}

func (a *Activities) IndexTranscriptActivity(ctx context.Context, in IndexTranscriptInput) (IndexTranscriptOutput, error) {
	t, err := a.pipeline.StoredTranscript(ctx, in.VideoID)
	if err != nil {
		return IndexTranscriptOutput{}, err
	}
	chunks, _, err := a.pipeline.BuildIndex(ctx, in.VideoID, t.Text)
	if err != nil {
		return IndexTranscriptOutput{}, err
	}
	return IndexTranscriptOutput{ChunkCount: len(chunks)}, nil
}

func (a *Activities) UpdateVideoStatusActivity(ctx context.Context, in UpdateVideoStatusInput) error {
	return a.pipeline.SaveVideo(ctx, models.Video{
		VideoID:    in.VideoID,
		URL:        in.URL,
		Title:      in.Title,
		Source:     in.Source,
		ChunkCount: in.ChunkCount,
		Status:     in.Status,
		FailReason: in.FailReason,
	})
}
