package providers

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

type MockProvider struct {
	dim int
}

func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = 1536
	}
	return &MockProvider{dim: dim}
}

func (m *MockProvider) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	_ = ctx
	dim := req.Dimension
	if dim <= 0 {
		dim = m.dim
	}
	vectors := make([][]float32, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		vectors = append(vectors, deterministicVector(input, dim))
	}
	return vectors, ProviderInfo{Name: "mock", Model: fmt.Sprintf("mock-embed-%d", dim), Key: "mock"}, nil
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	op := strings.ToLower(req.Operation)
	text := "Mock response."
	switch {
	case strings.Contains(op, "quiz"):
		text = mockQuiz()
	case strings.Contains(op, "summary"):
		text = "This video is summarized from its transcript by a deterministic mock.\n- Key point one.\n- Key point two.\n- Key point three."
	case strings.Contains(op, "answer"), strings.Contains(op, "chat"):
		var b strings.Builder
		b.WriteString("Deterministic answer based on the transcript.")
		n := len(req.Context)
		if n == 0 {
			n = strings.Count(req.Prompt, "\nContext ")
		}
		for i := 0; i < n; i++ {
			b.WriteString(" [")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString("]")
		}
		text = b.String()
	}
	return GenerateResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}, nil
}

func (m *MockProvider) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResponse, ProviderInfo, error) {
	_ = ctx
	name := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	text := fmt.Sprintf("This is a mock transcript for %s. The speaker introduces the topic. "+
		"Then the speaker explains the main idea with an example. Finally the speaker summarizes the lesson.", name)
	return TranscribeResponse{Text: text}, ProviderInfo{Name: "mock", Model: "mock-stt-v1", Key: "mock"}, nil
}

func mockQuiz() string {
	type item struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		Answer   string   `json:"answer"`
	}
	items := make([]item, 0, 5)
	for i := 1; i <= 5; i++ {
		items = append(items, item{
			Question: fmt.Sprintf("Mock question %d about the video?", i),
			Options:  []string{fmt.Sprintf("Option A%d", i), fmt.Sprintf("Option B%d", i), fmt.Sprintf("Option C%d", i), fmt.Sprintf("Option D%d", i)},
			Answer:   fmt.Sprintf("Option A%d", i),
		})
	}
	b, _ := json.Marshal(map[string]any{"quiz": items})
	return string(b)
}

func deterministicVector(input string, dim int) []float32 {
	vec := make([]float32, dim)
	seed := []byte(input)
	if len(seed) == 0 {
		seed = []byte("empty")
	}
	for i := 0; i < dim; i++ {
		h := sha256.Sum256(append(seed, byte(i%251)))
		u := binary.BigEndian.Uint32(h[:4])
		vec[i] = float32(u%2000)/1000.0 - 1.0
	}
	return normalize(vec)
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
