package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"vidqa/internal/util"
)

// AssemblyAIProvider uploads audio, creates a transcript job and polls it
// until it completes or fails.
type AssemblyAIProvider struct {
	keyName      string
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
}

func NewAssemblyAIProvider(keyName string) *AssemblyAIProvider {
	return &AssemblyAIProvider{
		keyName:      keyName,
		apiKey:       resolveKey("assemblyai", keyName, "ASSEMBLYAI_API_KEY"),
		baseURL:      strings.TrimRight(envOr("VIDQA_ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"), "/"),
		pollInterval: 3 * time.Second,
		client:       &http.Client{Timeout: 10 * time.Minute},
	}
}

func (a *AssemblyAIProvider) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "assemblyai", Model: "best", Key: a.keyName}
	if a.apiKey == "" {
		return TranscribeResponse{}, info, fmt.Errorf("%w: assemblyai key missing for alias %q", util.ErrTranscriptionFailed, a.keyName)
	}
	uploadURL, err := a.upload(ctx, req.AudioPath)
	if err != nil {
		return TranscribeResponse{}, info, fmt.Errorf("%w: %v", util.ErrTranscriptionFailed, err)
	}

	create := map[string]any{
		"audio_url":      uploadURL,
		"speaker_labels": true,
		"punctuate":      true,
		"format_text":    true,
	}
	if req.Language != "" {
		create["language_code"] = req.Language
	}
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Text   string `json:"text"`
		Error  string `json:"error"`
	}
	payload, _ := json.Marshal(create)
	if err := a.do(ctx, http.MethodPost, "/v2/transcript", "application/json", bytes.NewReader(payload), &job); err != nil {
		return TranscribeResponse{}, info, fmt.Errorf("%w: %v", util.ErrTranscriptionFailed, err)
	}
	if job.ID == "" {
		return TranscribeResponse{}, info, fmt.Errorf("%w: assemblyai returned no transcript id", util.ErrTranscriptionFailed)
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for job.Status != "completed" {
		if job.Status == "error" {
			return TranscribeResponse{}, info, fmt.Errorf("%w: assemblyai job %s: %s", util.ErrTranscriptionFailed, job.ID, job.Error)
		}
		select {
		case <-ctx.Done():
			return TranscribeResponse{}, info, ctx.Err()
		case <-ticker.C:
		}
		if err := a.do(ctx, http.MethodGet, "/v2/transcript/"+job.ID, "", nil, &job); err != nil {
			return TranscribeResponse{}, info, fmt.Errorf("%w: %v", util.ErrTranscriptionFailed, err)
		}
	}
	if strings.TrimSpace(job.Text) == "" {
		return TranscribeResponse{}, info, util.ErrEmptyTranscript
	}
	return TranscribeResponse{Text: job.Text}, info, nil
}

func (a *AssemblyAIProvider) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()
	var parsed struct {
		UploadURL string `json:"upload_url"`
	}
	if err := a.do(ctx, http.MethodPost, "/v2/upload", "application/octet-stream", f, &parsed); err != nil {
		return "", err
	}
	if parsed.UploadURL == "" {
		return "", fmt.Errorf("assemblyai upload returned no url")
	}
	return parsed.UploadURL, nil
}

func (a *AssemblyAIProvider) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("assemblyai request: %w", err)
	}
	httpReq.Header.Set("Authorization", a.apiKey)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("assemblyai request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("assemblyai error %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode assemblyai response: %w", err)
	}
	return nil
}
