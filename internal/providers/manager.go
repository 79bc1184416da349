package providers

import (
	"context"
	"fmt"
	"strings"

	"vidqa/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

type NamedEmbedProvider struct {
	Ref      ProviderRef
	Provider EmbeddingProvider
}

type NamedTranscriber struct {
	Ref      ProviderRef
	Provider Transcriber
}

// Manager holds the configured providers. The first non-mock entry of each
// list is the one callers use; there is no fallback to the next entry.
type Manager struct {
	llmProviders   []NamedLLMProvider
	embedProviders []NamedEmbedProvider
	transcriber    NamedTranscriber
}

func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	m := &Manager{}
	llmRefs, err := ParseProviderList(cfg.LLMProviders)
	if err != nil {
		return nil, fmt.Errorf("llm providers: %w", err)
	}
	embedRefs, err := ParseProviderList(cfg.EmbedProviders)
	if err != nil {
		return nil, fmt.Errorf("embed providers: %w", err)
	}
	sttRef, err := ParseTranscribeProvider(cfg.TranscribeProvider)
	if err != nil {
		return nil, err
	}

	for _, ref := range llmRefs {
		p, err := buildProvider(ctx, ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		llm, ok := p.(LLMProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support llm", ref.Raw)
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: WithRateLimit(llm, cfg.LLMRatePerSec, 1)})
	}
	for _, ref := range embedRefs {
		p, err := buildProvider(ctx, ref, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		embed, ok := p.(EmbeddingProvider)
		if !ok {
			return nil, fmt.Errorf("provider %s does not support embeddings", ref.Raw)
		}
		m.embedProviders = append(m.embedProviders, NamedEmbedProvider{Ref: ref, Provider: embed})
	}

	t, err := buildTranscriber(sttRef, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	m.transcriber = NamedTranscriber{Ref: sttRef, Provider: t}
	return m, nil
}

func (m *Manager) LLM() (LLMProvider, ProviderRef) {
	i := m.PreferredLLMOrder()[0]
	return m.llmProviders[i].Provider, m.llmProviders[i].Ref
}

func (m *Manager) Embedder() (EmbeddingProvider, ProviderRef) {
	i := m.PreferredEmbedOrder()[0]
	return m.embedProviders[i].Provider, m.embedProviders[i].Ref
}

func (m *Manager) Transcriber() (Transcriber, ProviderRef) {
	return m.transcriber.Provider, m.transcriber.Ref
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

func (m *Manager) EmbedCount() int {
	return len(m.embedProviders)
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

func (m *Manager) PreferredEmbedOrder() []int {
	return preferredOrder(len(m.embedProviders), func(i int) string { return strings.ToLower(m.embedProviders[i].Ref.Name) })
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ctx context.Context, ref ProviderRef, dim int) (any, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "openai":
		return NewOpenAIProvider(ref.KeyAlias), nil
	case "ollama":
		return NewOllamaProvider(ref.KeyAlias), nil
	case "groq":
		return NewGroqProvider(ref.KeyAlias), nil
	case "gemini":
		return NewGeminiProvider(ctx, ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}

func buildTranscriber(ref ProviderRef, dim int) (Transcriber, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(dim), nil
	case "assemblyai":
		return NewAssemblyAIProvider(ref.KeyAlias), nil
	case "openai", "whisper":
		return NewWhisperTranscriber(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", ref.Name)
	}
}
