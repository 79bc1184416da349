package providers

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockEmbedIsDeterministicAndUnitLength(t *testing.T) {
	m := NewMockProvider(16)
	a, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"same", "other"}})
	require.NoError(t, err)
	b, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"same"}})
	require.NoError(t, err)
	require.Equal(t, a[0], b[0])
	require.NotEqual(t, a[0], a[1])

	var sum float64
	for _, x := range a[0] {
		sum += float64(x) * float64(x)
	}
	require.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockQuizIsValidJSON(t *testing.T) {
	resp, _, err := NewMockProvider(8).Generate(context.Background(), GenerateRequest{Operation: "quiz"})
	require.NoError(t, err)
	var parsed struct {
		Quiz []struct {
			Options []string `json:"options"`
			Answer  string   `json:"answer"`
		} `json:"quiz"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Text), &parsed))
	require.Len(t, parsed.Quiz, 5)
	for _, q := range parsed.Quiz {
		require.Len(t, q.Options, 4)
		require.Contains(t, q.Options, q.Answer)
	}
}

func TestMockTranscribe(t *testing.T) {
	resp, info, err := NewMockProvider(8).Transcribe(context.Background(), TranscribeRequest{AudioPath: "/tmp/media/abc.m4a"})
	require.NoError(t, err)
	require.Contains(t, resp.Text, "abc")
	require.Equal(t, "mock", info.Name)
}

func TestMockAnswerCitesPromptContexts(t *testing.T) {
	prompt := "Transcript excerpts:\nContext 1: a\n\nContext 2: b\n\nQuestion: q"
	resp, _, err := NewMockProvider(8).Generate(context.Background(), GenerateRequest{Operation: "answer", Prompt: prompt})
	require.NoError(t, err)
	require.Equal(t, "Deterministic answer based on the transcript. [1] [2]", resp.Text)
}
