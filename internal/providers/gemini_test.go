package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// collectTexts returns every "text" string in a decoded JSON body, in order.
func collectTexts(v any, out *[]string) {
	switch x := v.(type) {
	case map[string]any:
		if s, ok := x["text"].(string); ok {
			*out = append(*out, s)
		}
		for k, child := range x {
			if k != "text" {
				collectTexts(child, out)
			}
		}
	case []any:
		for _, child := range x {
			collectTexts(child, out)
		}
	}
}

func TestGeminiEmbedSplitsLargeRequests(t *testing.T) {
	var (
		mu      sync.Mutex
		batches []int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, ":batchEmbedContents"), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		reqs, _ := body["requests"].([]any)

		embeddings := make([]map[string]any, 0, len(reqs))
		for _, rq := range reqs {
			var texts []string
			collectTexts(rq, &texts)
			require.Len(t, texts, 1)
			n, err := strconv.Atoi(strings.TrimPrefix(texts[0], "chunk-"))
			require.NoError(t, err)
			embeddings = append(embeddings, map[string]any{"values": []float32{float32(n), 1}})
		}
		mu.Lock()
		batches = append(batches, len(reqs))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer srv.Close()
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("VIDQA_GEMINI_BASE_URL", srv.URL)

	inputs := make([]string, 230)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("chunk-%d", i)
	}
	vecs, info, err := NewGeminiProvider(context.Background(), "").Embed(context.Background(), EmbedRequest{Inputs: inputs})
	require.NoError(t, err)
	require.Equal(t, "gemini", info.Name)
	require.Equal(t, []int{100, 100, 30}, batches)
	require.Len(t, vecs, 230)
	for i, v := range vecs {
		require.Equal(t, float32(i), v[0])
	}
}

func TestGeminiEmbedBatchErrorNamesRange(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad batch","status":"INVALID_ARGUMENT"}}`))
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		reqs, _ := body["requests"].([]any)
		embeddings := make([]map[string]any, len(reqs))
		for i := range embeddings {
			embeddings[i] = map[string]any{"values": []float32{1, 0}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer srv.Close()
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("VIDQA_GEMINI_BASE_URL", srv.URL)

	inputs := make([]string, 150)
	for i := range inputs {
		inputs[i] = "x"
	}
	_, _, err := NewGeminiProvider(context.Background(), "").Embed(context.Background(), EmbedRequest{Inputs: inputs})
	require.ErrorContains(t, err, "inputs 100-149")
	require.Equal(t, 2, calls)
}
