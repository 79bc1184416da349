package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedKeepsInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.EqualValues(t, 3, body["dimensions"])
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1,0]},{"index":0,"embedding":[1,0,0]}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "ok")
	t.Setenv("VIDQA_OPENAI_BASE_URL", srv.URL)

	vecs, info, err := NewOpenAIProvider("").Embed(context.Background(), EmbedRequest{Inputs: []string{"first", "second"}, Dimension: 3})
	require.NoError(t, err)
	require.Equal(t, "openai", info.Name)
	require.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vecs)
}

func TestOpenAIEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "ok")
	t.Setenv("VIDQA_OPENAI_BASE_URL", srv.URL)

	_, _, err := NewOpenAIProvider("").Embed(context.Background(), EmbedRequest{Inputs: []string{"a", "b"}})
	require.ErrorContains(t, err, "1 embeddings for 2 inputs")
}

func TestOpenAIKeyAlias(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "default")
	t.Setenv("VIDQA_OPENAI_KEY_WORK", "work-key")
	require.Equal(t, "work-key", NewOpenAIProvider("work").apiKey)
	require.Equal(t, "default", NewOpenAIProvider("other").apiKey)
}
