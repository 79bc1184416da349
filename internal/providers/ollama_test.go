package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveOllamaEmbedModel_Default(t *testing.T) {
	t.Setenv("VIDQA_OLLAMA_EMBED_MODEL", "")
	require.Equal(t, "nomic-embed-text", resolveOllamaEmbedModel(""))
	require.Equal(t, "bge-small-en-v1.5", resolveOllamaEmbedModel("bge"))
	require.Equal(t, "mxbai-embed-large", resolveOllamaEmbedModel("mxbai-embed-large"))
}

func TestResolveOllamaEmbedModel_AliasEnv(t *testing.T) {
	t.Setenv("VIDQA_OLLAMA_EMBED_MODEL_LOCAL_A", "custom-model")
	require.Equal(t, "custom-model", resolveOllamaEmbedModel("local-a"))
}

func TestMatchDimension(t *testing.T) {
	src := []float32{1, 2, 3}
	require.Equal(t, []float32{1, 2}, matchDimension(src, 2))
	require.Equal(t, []float32{1, 2, 3, 0, 0}, matchDimension(src, 5))
	require.Equal(t, src, matchDimension(src, 0))
}

func TestOllamaEmbedAndGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3,0.4]}`))
		case "/api/chat":
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"local answer"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	t.Setenv("VIDQA_OLLAMA_BASE_URL", srv.URL)

	p := NewOllamaProvider("nomic")
	vecs, info, err := p.Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}, Dimension: 2})
	require.NoError(t, err)
	require.Equal(t, "nomic-embed-text", info.Model)
	require.Equal(t, [][]float32{{0.1, 0.2}, {0.1, 0.2}}, vecs)

	resp, _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "local answer", resp.Text)
}
