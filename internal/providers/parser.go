package providers

import (
	"fmt"
	"strings"
)

// ProviderRef is one entry of a provider list such as "gemini|openai:team".
// KeyAlias selects VIDQA_<NAME>_KEY_<ALIAS> over the provider's default key.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

var knownProviders = map[string]bool{
	"mock":       true,
	"openai":     true,
	"groq":       true,
	"ollama":     true,
	"gemini":     true,
	"assemblyai": true,
	"whisper":    true,
}

var transcriptionProviders = map[string]bool{
	"mock":       true,
	"assemblyai": true,
	"openai":     true,
	"whisper":    true,
}

// ParseProviderList splits a "|" separated list. Names are lowercased and
// must be known; an empty list means mock.
func ParseProviderList(raw string) ([]ProviderRef, error) {
	var out []ProviderRef
	for _, p := range strings.Split(raw, "|") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, alias, _ := strings.Cut(p, ":")
		ref := ProviderRef{
			Raw:      p,
			Name:     strings.ToLower(strings.TrimSpace(name)),
			KeyAlias: strings.TrimSpace(alias),
		}
		if ref.Name == "" {
			return nil, fmt.Errorf("provider entry %q has no name", p)
		}
		if !knownProviders[ref.Name] {
			return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out, nil
}

// ParseTranscribeProvider parses VIDQA_TRANSCRIBE_PROVIDER, which names
// exactly one provider.
func ParseTranscribeProvider(raw string) (ProviderRef, error) {
	refs, err := ParseProviderList(raw)
	if err != nil {
		return ProviderRef{}, fmt.Errorf("transcription provider: %w", err)
	}
	if len(refs) > 1 {
		return ProviderRef{}, fmt.Errorf("only one transcription provider may be configured, got %q", raw)
	}
	if !transcriptionProviders[refs[0].Name] {
		return ProviderRef{}, fmt.Errorf("unsupported transcription provider: %s", refs[0].Name)
	}
	return refs[0], nil
}
