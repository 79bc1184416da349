package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider generates text and embeddings through the Gemini API.
type GeminiProvider struct {
	keyName    string
	model      string
	embedModel string
	client     *genai.Client
	initErr    error
}

func NewGeminiProvider(ctx context.Context, keyName string) *GeminiProvider {
	g := &GeminiProvider{
		keyName:    keyName,
		model:      envOr("VIDQA_GEMINI_MODEL", "gemini-2.0-flash"),
		embedModel: envOr("VIDQA_GEMINI_EMBED_MODEL", "gemini-embedding-001"),
	}
	apiKey := resolveKey("gemini", keyName, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if apiKey == "" {
		g.initErr = fmt.Errorf("gemini key missing for alias %q", keyName)
		return g
	}
	cc := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if base := strings.TrimSpace(os.Getenv("VIDQA_GEMINI_BASE_URL")); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	g.client, g.initErr = genai.NewClient(ctx, cc)
	return g
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.model, Key: g.keyName}
	if g.initErr != nil {
		return GenerateResponse{}, info, g.initErr
	}
	prompt := req.Prompt
	if len(req.Context) > 0 {
		prompt += "\n\nContext:\n" + strings.Join(req.Context, "\n\n")
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("gemini generate error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return GenerateResponse{}, info, fmt.Errorf("gemini returned empty candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return GenerateResponse{Text: b.String()}, info, nil
}

// geminiEmbedBatch is the most inputs one batchEmbedContents call accepts.
const geminiEmbedBatch = 100

// Embed splits inputs into batches the API accepts and returns the vectors
// in input order.
func (g *GeminiProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: g.embedModel, Key: g.keyName}
	if g.initErr != nil {
		return nil, info, g.initErr
	}
	if len(req.Inputs) == 0 {
		return nil, info, fmt.Errorf("no embedding inputs")
	}
	var cfg *genai.EmbedContentConfig
	if req.Dimension > 0 {
		dim := int32(req.Dimension)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	out := make([][]float32, 0, len(req.Inputs))
	for start := 0; start < len(req.Inputs); start += geminiEmbedBatch {
		end := min(start+geminiEmbedBatch, len(req.Inputs))
		batch := req.Inputs[start:end]
		contents := make([]*genai.Content, 0, len(batch))
		for _, in := range batch {
			contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: in}}})
		}
		resp, err := g.client.Models.EmbedContent(ctx, g.embedModel, contents, cfg)
		if err != nil {
			return nil, info, fmt.Errorf("gemini embedding error (inputs %d-%d): %w", start, end-1, err)
		}
		if resp == nil || len(resp.Embeddings) != len(batch) {
			return nil, info, fmt.Errorf("gemini returned wrong embedding count for %d inputs", len(batch))
		}
		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, info, fmt.Errorf("gemini returned empty embedding")
			}
			out = append(out, matchDimension(e.Values, req.Dimension))
		}
	}
	return out, info, nil
}
