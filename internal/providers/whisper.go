package providers

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"vidqa/internal/util"
)

// WhisperTranscriber sends audio files to the OpenAI transcription endpoint.
type WhisperTranscriber struct {
	keyName string
	client  *openai.Client
	ready   bool
}

func NewWhisperTranscriber(keyName string) *WhisperTranscriber {
	apiKey := resolveKey("openai", keyName, "OPENAI_API_KEY")
	cfg := openai.DefaultConfig(apiKey)
	if base := envOr("VIDQA_OPENAI_BASE_URL", ""); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	return &WhisperTranscriber{
		keyName: keyName,
		client:  openai.NewClientWithConfig(cfg),
		ready:   apiKey != "",
	}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "openai", Model: openai.Whisper1, Key: w.keyName}
	if !w.ready {
		return TranscribeResponse{}, info, fmt.Errorf("%w: openai key missing for alias %q", util.ErrTranscriptionFailed, w.keyName)
	}
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: req.AudioPath,
		Language: req.Language,
	})
	if err != nil {
		return TranscribeResponse{}, info, fmt.Errorf("%w: whisper: %v", util.ErrTranscriptionFailed, err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return TranscribeResponse{}, info, util.ErrEmptyTranscript
	}
	return TranscribeResponse{Text: resp.Text}, info, nil
}
