package generators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vidqa/internal/cache"
	"vidqa/internal/util"
)

type SummaryInput struct {
	VideoID    string
	Title      string
	Transcript string
	Refresh    bool
}

type Summary struct {
	VideoID   string    `json:"video_id"`
	Title     string    `json:"video_title"`
	Text      string    `json:"summary"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"created_at"`
}

func summaryKey(videoID string) string { return "summary:" + videoID }

// Summarize memoizes per video; Refresh forces a new LLM call.
func (s *Service) Summarize(ctx context.Context, in SummaryInput) (Summary, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return Summary{}, util.ErrTranscriptNotFound
	}
	if !in.Refresh {
		if cached, ok := cache.LoadJSON[Summary](ctx, s.cache, summaryKey(in.VideoID)); ok {
			cached.Cached = true
			return cached, nil
		}
	}
	transcript := util.TruncateRunes(in.Transcript, s.opts.SummaryMaxChars)
	resp, _, err := s.generate(ctx, "summary", in.VideoID, BuildSummaryPrompt(in.Title, transcript, s.opts.SummaryWords))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: generate summary: %w", util.ErrProviderFailed, err)
	}
	out := Summary{
		VideoID:   in.VideoID,
		Title:     in.Title,
		Text:      strings.TrimSpace(resp.Text),
		CreatedAt: time.Now().UTC(),
	}
	cache.StoreJSON(ctx, s.cache, summaryKey(in.VideoID), out)
	return out, nil
}
