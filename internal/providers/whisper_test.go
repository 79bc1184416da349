package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"vidqa/internal/util"
)

func newTestWhisper(t *testing.T, h http.Handler) *WhisperTranscriber {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_API_KEY", "ok")
	t.Setenv("VIDQA_OPENAI_BASE_URL", srv.URL+"/")
	return NewWhisperTranscriber("")
}

func TestWhisperTranscribe(t *testing.T) {
	w := newTestWhisper(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer ok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))
		require.Equal(t, "en", r.FormValue("language"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		require.Equal(t, "clip.m4a", hdr.Filename)
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"text":"hello world"}`))
	}))

	resp, info, err := w.Transcribe(context.Background(), TranscribeRequest{AudioPath: writeAudio(t), Language: "en"})
	require.NoError(t, err)
	require.Equal(t, "hello world", resp.Text)
	require.Equal(t, "openai", info.Name)
	require.Equal(t, "whisper-1", info.Model)
}

func TestWhisperTranscribeUpstreamError(t *testing.T) {
	w := newTestWhisper(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusInternalServerError)
		_, _ = rw.Write([]byte(`{"error":{"message":"server exploded","type":"server_error"}}`))
	}))

	_, _, err := w.Transcribe(context.Background(), TranscribeRequest{AudioPath: writeAudio(t)})
	require.ErrorIs(t, err, util.ErrTranscriptionFailed)
	require.ErrorContains(t, err, "whisper")
}

func TestWhisperTranscribeBlankText(t *testing.T) {
	w := newTestWhisper(t, http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"text":"  \n "}`))
	}))

	_, _, err := w.Transcribe(context.Background(), TranscribeRequest{AudioPath: writeAudio(t)})
	require.ErrorIs(t, err, util.ErrEmptyTranscript)
}

func TestWhisperTranscribeWithoutKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("VIDQA_OPENAI_BASE_URL", srv.URL)

	_, _, err := NewWhisperTranscriber("").Transcribe(context.Background(), TranscribeRequest{AudioPath: writeAudio(t)})
	require.ErrorIs(t, err, util.ErrTranscriptionFailed)
	require.ErrorContains(t, err, "key missing")
	require.False(t, called)
}
