package generators

import (
	"context"
	"fmt"
	"strings"

	"vidqa/internal/models"
	"vidqa/internal/providers"
	"vidqa/internal/util"
)

type AnswerInput struct {
	VideoID  string
	Title    string
	Question string
	Chunks   []models.ScoredChunk
}

type Source struct {
	Ordinal int     `json:"ordinal"`
	Offset  int     `json:"offset"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type Answer struct {
	Text     string                 `json:"answer"`
	Sources  []Source               `json:"sources"`
	Provider providers.ProviderInfo `json:"-"`
}

// Answer makes one LLM call over the retrieved chunks. With no chunks it
// returns Apology without calling the model.
func (s *Service) Answer(ctx context.Context, in AnswerInput) (Answer, error) {
	if len(in.Chunks) == 0 {
		return Answer{Text: Apology, Sources: []Source{}}, nil
	}
	resp, info, err := s.generate(ctx, "answer", in.VideoID, BuildAnswerPrompt(in.Title, in.Question, in.Chunks))
	if err != nil {
		return Answer{Provider: info}, fmt.Errorf("%w: generate answer: %w", util.ErrProviderFailed, err)
	}
	sources := make([]Source, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		sources = append(sources, Source{
			Ordinal: c.Ordinal,
			Offset:  c.Offset,
			Score:   c.Score,
			Snippet: util.EvidenceSnippet(c.Text, in.Question, 240),
		})
	}
	return Answer{Text: strings.TrimSpace(resp.Text), Sources: sources, Provider: info}, nil
}
