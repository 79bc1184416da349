package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vidqa/internal/cache"
	"vidqa/internal/config"
	"vidqa/internal/generators"
	"vidqa/internal/media"
	"vidqa/internal/pipeline"
	"vidqa/internal/providers"
	"vidqa/internal/transcripts"
	"vidqa/internal/util"
	"vidqa/internal/vector"

	"github.com/stretchr/testify/require"
)

const videoID = "dQw4w9WgXcQ"

type stubDownloader struct {
	fail      bool
	downloads atomic.Int32
}

func (d *stubDownloader) Probe(context.Context, string) (media.VideoInfo, error) {
	return media.VideoInfo{ID: videoID, Title: "Intro: Go / Channels?"}, nil
}

func (d *stubDownloader) Captions(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: no captions available", util.ErrDownloadFailed)
}

func (d *stubDownloader) DownloadAudio(_ context.Context, url string) (media.AudioFile, error) {
	d.downloads.Add(1)
	if d.fail {
		return media.AudioFile{}, fmt.Errorf("%w: yt-dlp download audio: private video", util.ErrDownloadFailed)
	}
	id, _ := media.ParseVideoID(url)
	title := "Intro: Go / Channels?"
	if id != videoID {
		title = "Video " + id
	}
	return media.AudioFile{Path: "/nonexistent/" + id + ".m4a", VideoID: id, Title: title}, nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, providers.TranscribeRequest) (providers.TranscribeResponse, providers.ProviderInfo, error) {
	return providers.TranscribeResponse{Text: "[00:01] Channels connect goroutines.\n[00:30] Select waits on many channels."},
		providers.ProviderInfo{Name: "stub"}, nil
}

type opLLM struct {
	mu      sync.Mutex
	replies map[string]string
}

func (l *opLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return providers.GenerateResponse{Text: l.replies[req.Operation]}, providers.ProviderInfo{Name: "stub-llm", Model: "m1"}, nil
}

const goodQuiz = `{"quiz":[
{"question":"Q1","options":["a","b","c","d"],"answer":"a"},
{"question":"Q2","options":["a","b","c","d"],"answer":"b"},
{"question":"Q3","options":["a","b","c","d"],"answer":"c"},
{"question":"Q4","options":["a","b","c","d"],"answer":"d"},
{"question":"Q5","options":["a","b","c","d"],"answer":"a"}]}`

type harness struct {
	srv *httptest.Server
	dl  *stubDownloader
}

func newHarness(t *testing.T, quizReply string) *harness {
	t.Helper()
	dl := &stubDownloader{}
	videos := pipeline.NewService(pipeline.Deps{
		Store:       transcripts.NewStore(t.TempDir()),
		Downloader:  dl,
		Transcriber: stubTranscriber{},
		Embedder:    providers.NewMockProvider(8),
		Backend:     vector.NewMemoryBackend(),
	}, pipeline.Options{ChunkSize: 40, ChunkOverlap: 5}, nil)

	c := cache.New(context.Background(), cache.Options{TTL: time.Minute, CleanupInterval: time.Hour}, nil)
	t.Cleanup(func() { _ = c.Close() })
	llm := &opLLM{replies: map[string]string{
		"answer":  "Channels connect goroutines [00:01].",
		"summary": "A short talk about channels.",
		"quiz":    quizReply,
	}}
	gen := generators.NewService(llm, c, nil, nil, generators.Options{}, nil)

	s := NewServer(config.Config{RetrieveK: 3}, videos, nil, gen, nil)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &harness{srv: srv, dl: dl}
}

func (h *harness) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.srv.URL+path, "application/json", strings.NewReader(string(b)))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func (h *harness) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(h.srv.URL + path)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	h := newHarness(t, goodQuiz)
	for _, path := range []string{"/health", "/healthz"} {
		resp, body := h.get(t, path)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "ok", body["status"])
		require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	}

	resp, body := h.postJSON(t, "/health", map[string]any{})
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "VQ-API-4005", errCode(body))
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newHarness(t, goodQuiz)
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestStateErrorsBeforeProcessing(t *testing.T) {
	h := newHarness(t, goodQuiz)

	resp, body := h.postJSON(t, "/chat_with_video", map[string]any{"query": "what is a channel?"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No vector database available for this video. Process video first.", body["detail"])
	require.Equal(t, "VQ-API-4001", errCode(body))

	resp, body = h.postJSON(t, "/chat", map[string]any{"video_id": videoID, "question": "q"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No vector database available for this video. Process video first.", body["message"])

	resp, body = h.get(t, "/summarize_video")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No transcript available. Process video first.", body["detail"])

	resp, _ = h.get(t, "/generate_quiz?video_id="+videoID)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = h.postJSON(t, "/ans", map[string]any{"video_id": videoID, "answers": []string{"a"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No quiz available. Generate a quiz first.", body["detail"])
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t, goodQuiz)

	resp, body := h.postJSON(t, "/process_video", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Video URL is required.", body["detail"])

	resp, body = h.postJSON(t, "/process_video", map[string]any{"video_url": "https://example.com/watch?v=nope"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid YouTube URL.", body["detail"])

	resp, body = h.postJSON(t, "/chat", map[string]any{"query": "  "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Query is required.", body["detail"])

	resp, body = h.postJSON(t, "/ans", map[string]any{"answers": []string{}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "answers are required", body["detail"])

	r, err := http.Post(h.srv.URL+"/chat", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	body = decode(t, r)
	require.Equal(t, http.StatusBadRequest, r.StatusCode)
	require.Equal(t, "Malformed JSON request body.", body["detail"])
}

func TestProcessChatSummaryQuizFlow(t *testing.T) {
	h := newHarness(t, goodQuiz)

	form := url.Values{"video_url": {"https://youtu.be/" + videoID}}
	resp, err := http.PostForm(h.srv.URL+"/process_video", form)
	require.NoError(t, err)
	body := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Video processing complete", body["message"])
	require.Equal(t, videoID, body["video_id"])
	require.Equal(t, "Intro: Go / Channels?", body["video_title"])
	require.NotContains(t, body, "transcript")

	resp, body = h.postJSON(t, "/transcript", map[string]any{"url": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Video already processed", body["message"])
	require.Contains(t, body["transcript"], "Channels connect goroutines.")
	require.EqualValues(t, 1, h.dl.downloads.Load())

	resp, body = h.postJSON(t, "/chat_with_video", map[string]any{"message": "What do channels do?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Channels connect goroutines [00:01].", body["answer"])
	require.Equal(t, "stub-llm", body["llm_provider"])
	require.NotEmpty(t, body["sources"])

	resp, body = h.get(t, "/summary?video_id="+videoID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "A short talk about channels.", body["summary"])
	require.Equal(t, false, body["cached"])
	resp, body = h.postJSON(t, "/summarize_video", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["cached"])

	resp, body = h.get(t, "/init-quiz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["quiz"], 5)
	require.NotEmpty(t, body["quiz_id"])
	require.NotContains(t, body, "error")

	resp, body = h.postJSON(t, "/ans", map[string]any{"answers": []string{"A", "b", "d", "d"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 3, body["score"])
	require.EqualValues(t, 5, body["total"])
}

func TestMalformedQuizIsFlaggedNotFailed(t *testing.T) {
	h := newHarness(t, "I cannot produce JSON today.")
	resp, _ := h.postJSON(t, "/process_video", map[string]any{"video_url": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := h.postJSON(t, "/generate_quiz", map[string]any{"video_id": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["error"])
	require.Equal(t, "I cannot produce JSON today.", body["quiz_text"])
	require.Empty(t, body["quiz"])

	resp, _ = h.postJSON(t, "/ans", map[string]any{"answers": "a,b"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadFailureIsBadGateway(t *testing.T) {
	h := newHarness(t, goodQuiz)
	h.dl.fail = true

	resp, body := h.postJSON(t, "/process_video", map[string]any{"video_url": videoID})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Equal(t, "VQ-MEDIA-5021", errCode(body))

	resp, _ = h.postJSON(t, "/chat", map[string]any{"query": "q"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVideosAndTranscriptDownload(t *testing.T) {
	h := newHarness(t, goodQuiz)
	resp, _ := h.postJSON(t, "/process_video", map[string]any{"link": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := h.get(t, "/videos")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["videos"], 1)

	resp, err := http.Get(h.srv.URL + "/videos/" + videoID + "/transcript")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="Intro_Go__Channels.txt"`, resp.Header.Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))

	resp2, body := h.get(t, "/videos/"+videoID+"/other")
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
	require.Equal(t, "VQ-API-4004", errCode(body))
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, goodQuiz)
	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/chat", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestTrailingSlashRoutes(t *testing.T) {
	h := newHarness(t, goodQuiz)

	resp, body := h.get(t, "/health/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = h.postJSON(t, "/process_video/", map[string]any{"video_url": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, videoID, body["video_id"])

	resp, body = h.postJSON(t, "/summarize_video/", map[string]any{"video_id": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "A short talk about channels.", body["summary"])

	resp, body = h.get(t, "/videos/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["videos"], 1)

	resp, body = h.get(t, "/videos/"+videoID+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, videoID, body["video_id"])
}

func TestChatDefaultsToLatestVideo(t *testing.T) {
	h := newHarness(t, goodQuiz)
	const second = "9bZkp7q19f0"

	resp, _ := h.postJSON(t, "/process_video", map[string]any{"video_url": videoID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = h.postJSON(t, "/process_video", map[string]any{"video_url": "https://www.youtube.com/watch?v=" + second})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := h.postJSON(t, "/chat", map[string]any{"query": "What do channels do?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, second, body["video_id"])
	sources, _ := body["sources"].([]any)
	require.NotEmpty(t, sources)

	resp, body = h.postJSON(t, "/chat", map[string]any{"video_id": videoID, "query": "What do channels do?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, videoID, body["video_id"])
}

type canceledProcessor struct{}

func (canceledProcessor) Process(context.Context, string) (pipeline.Result, error) {
	return pipeline.Result{}, fmt.Errorf("transcribe: %w", context.Canceled)
}

func TestCanceledRequestIsNotLoggedAsServerError(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewServer(config.Config{}, nil, canceledProcessor{}, nil, log)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/process_video", "application/json", strings.NewReader(`{"video_url":"`+videoID+`"}`))
	require.NoError(t, err)
	body := decode(t, resp)
	require.Equal(t, statusClientClosedRequest, resp.StatusCode)
	require.Equal(t, "VQ-API-4990", errCode(body))
	require.NotContains(t, logs.String(), "request failed")
	require.Contains(t, logs.String(), "client closed request")
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("x: %w", util.ErrInvalidVideoURL):     http.StatusBadRequest,
		fmt.Errorf("x: %w", util.ErrDownloadFailed):      http.StatusBadGateway,
		fmt.Errorf("x: %w", context.DeadlineExceeded):    http.StatusGatewayTimeout,
		fmt.Errorf("x: %w", context.Canceled):            statusClientClosedRequest,
		errors.New("relation videos does not exist"):     http.StatusInternalServerError,
		fmt.Errorf("x: %w", util.ErrIndexNotInitialized): http.StatusBadRequest,
	}
	for err, want := range cases {
		require.Equal(t, want, statusFor(err), err.Error())
	}
}
