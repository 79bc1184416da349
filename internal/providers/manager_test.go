package providers

import (
	"context"
	"testing"

	"vidqa/internal/config"

	"github.com/stretchr/testify/require"
)

func TestNewManagerPrefersNonMock(t *testing.T) {
	cfg := config.Config{LLMProviders: "mock|groq:team", EmbedProviders: "mock", TranscribeProvider: "assemblyai", EmbedDim: 8}
	m, err := NewManager(context.Background(), cfg)
	require.NoError(t, err)

	_, ref := m.LLM()
	require.Equal(t, "groq", ref.Name)
	require.Equal(t, "team", ref.KeyAlias)
	_, ref = m.Embedder()
	require.Equal(t, "mock", ref.Name)
	tr, ref := m.Transcriber()
	require.Equal(t, "assemblyai", ref.Name)
	require.IsType(t, &AssemblyAIProvider{}, tr)
	require.Equal(t, 2, m.LLMCount())
	require.Equal(t, 1, m.EmbedCount())
}

func TestNewManagerRejectsUnknownOrMismatched(t *testing.T) {
	_, err := NewManager(context.Background(), config.Config{LLMProviders: "nope", TranscribeProvider: "mock"})
	require.ErrorContains(t, err, "unsupported provider")

	_, err = NewManager(context.Background(), config.Config{LLMProviders: "mock", EmbedProviders: "groq", TranscribeProvider: "mock"})
	require.ErrorContains(t, err, "does not support embeddings")

	_, err = NewManager(context.Background(), config.Config{TranscribeProvider: "gemini"})
	require.ErrorContains(t, err, "unsupported transcription provider")
}

func TestGeminiWithoutKeyFailsPerCall(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	m, err := NewManager(context.Background(), config.Config{LLMProviders: "gemini", EmbedProviders: "gemini", TranscribeProvider: "mock"})
	require.NoError(t, err)

	llm, _ := m.LLM()
	_, _, err = llm.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.ErrorContains(t, err, "gemini key missing")
	emb, _ := m.Embedder()
	_, _, err = emb.Embed(context.Background(), EmbedRequest{Inputs: []string{"x"}})
	require.ErrorContains(t, err, "gemini key missing")
}
