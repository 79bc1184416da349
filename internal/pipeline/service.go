package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"vidqa/internal/media"
	"vidqa/internal/models"
	"vidqa/internal/providers"
	"vidqa/internal/transcripts"
	"vidqa/internal/util"
	"vidqa/internal/vector"

	"golang.org/x/sync/singleflight"
)

// VideoStore persists video rows. storage.VideoRepo satisfies it.
type VideoStore interface {
	UpsertVideo(ctx context.Context, v models.Video) error
	GetVideo(ctx context.Context, videoID string) (models.Video, bool, error)
	ListVideos(ctx context.Context) ([]models.Video, error)
}

// ChunkLister reads persisted chunk texts. storage.ChunkRepo satisfies it.
type ChunkLister interface {
	ListVideoChunks(ctx context.Context, videoID string) ([]models.TextChunk, error)
}

type Options struct {
	ChunkSize      int
	ChunkOverlap   int
	EmbedDim       int
	RetrieveK      int
	PreferCaptions bool
	KeepAudio      bool
}

type Deps struct {
	Store       *transcripts.Store
	Downloader  media.Downloader
	Transcriber providers.Transcriber
	Embedder    providers.EmbeddingProvider
	Backend     vector.Backend
	Registry    *Registry
	// Videos and Chunks are optional; without them nothing is persisted
	// beyond the transcript store and hydration is disabled.
	Videos VideoStore
	Chunks ChunkLister
}

// Result describes one /process_video outcome.
type Result struct {
	VideoID          string `json:"video_id"`
	Title            string `json:"video_title"`
	URL              string `json:"url"`
	Source           string `json:"source"`
	Transcript       string `json:"-"`
	ChunkCount       int    `json:"chunk_count"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// Service turns a video link into an indexed transcript and answers
// retrieval queries against it.
type Service struct {
	deps  Deps
	opts  Options
	log   *slog.Logger
	group singleflight.Group
}

func NewService(deps Deps, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if opts.RetrieveK <= 0 {
		opts.RetrieveK = vector.DefaultK
	}
	return &Service{deps: deps, opts: opts, log: log}
}

func (s *Service) Registry() *Registry { return s.deps.Registry }

// Process acquires, indexes and registers the video behind rawURL. A video
// that is already indexed returns immediately with AlreadyProcessed set.
// Concurrent calls for one video share a single run; the run is detached
// from the callers' contexts so an abandoned wait does not cancel it.
func (s *Service) Process(ctx context.Context, rawURL string) (Result, error) {
	videoID, err := media.ParseVideoID(rawURL)
	if err != nil {
		return Result{}, err
	}
	if rec, ok := s.deps.Registry.Get(videoID); ok && rec.Indexed() {
		return resultFrom(rec, true), nil
	}

	ch := s.group.DoChan(videoID, func() (any, error) {
		runCtx := context.WithoutCancel(ctx)
		if rec, ok := s.deps.Registry.Get(videoID); ok && rec.Indexed() {
			return resultFrom(rec, true), nil
		}
		return s.run(runCtx, videoID)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

func (s *Service) run(ctx context.Context, videoID string) (Result, error) {
	url := media.CanonicalURL(videoID)
	started := time.Now()
	s.log.Info("processing video", slog.String("video_id", videoID))
	s.RecordVideo(ctx, models.Video{VideoID: videoID, URL: url, Status: models.VideoStatusProcessing})

	t, cached, err := s.Acquire(ctx, videoID, url)
	if err != nil {
		s.fail(ctx, videoID, url, err)
		return Result{}, err
	}
	chunks, idx, err := s.BuildIndex(ctx, videoID, t.Text)
	if err != nil {
		s.fail(ctx, videoID, url, err)
		return Result{}, err
	}

	now := time.Now().UTC()
	v := models.Video{
		VideoID:        videoID,
		URL:            url,
		Title:          t.Title,
		Source:         t.Source,
		TranscriptPath: s.deps.Store.Path(videoID),
		ChunkCount:     len(chunks),
		Status:         models.VideoStatusProcessed,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      now,
	}
	s.RecordVideo(ctx, v)
	rec := Record{Video: v, Transcript: t.Text, Chunks: chunks, Index: idx}
	s.deps.Registry.Put(rec)
	s.log.Info("video processed",
		slog.String("video_id", videoID),
		slog.String("source", t.Source),
		slog.Int("chunks", len(chunks)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return resultFrom(rec, cached), nil
}

func (s *Service) fail(ctx context.Context, videoID, url string, cause error) {
	s.log.Warn("video processing failed", slog.String("video_id", videoID), slog.Any("error", cause))
	s.RecordVideo(ctx, models.Video{VideoID: videoID, URL: url, Status: models.VideoStatusFailed, FailReason: cause.Error()})
}

// RecordVideo is SaveVideo with write failures logged and otherwise ignored.
func (s *Service) RecordVideo(ctx context.Context, v models.Video) {
	if err := s.SaveVideo(ctx, v); err != nil {
		s.log.Warn("video upsert failed", slog.String("video_id", v.VideoID), slog.String("status", v.Status), slog.Any("error", err))
	}
}

// SaveVideo upserts the video row. It is a no-op without a VideoStore.
func (s *Service) SaveVideo(ctx context.Context, v models.Video) error {
	if s.deps.Videos == nil {
		return nil
	}
	if v.Status == models.VideoStatusProcessed && v.TranscriptPath == "" {
		v.TranscriptPath = s.deps.Store.Path(v.VideoID)
	}
	return s.deps.Videos.UpsertVideo(ctx, v)
}

// StoredTranscript loads a transcript saved by Acquire.
func (s *Service) StoredTranscript(ctx context.Context, videoID string) (transcripts.Transcript, error) {
	t, ok, err := s.deps.Store.Load(ctx, videoID)
	if err != nil {
		return transcripts.Transcript{}, err
	}
	if !ok {
		return transcripts.Transcript{}, fmt.Errorf("%w: %s", util.ErrTranscriptNotFound, videoID)
	}
	return t, nil
}

// Acquire returns the transcript for videoID and whether it came from the
// transcript store. The store is consulted first, then published captions
// when enabled, then the audio is downloaded and transcribed. New
// transcripts are saved before returning.
func (s *Service) Acquire(ctx context.Context, videoID, url string) (transcripts.Transcript, bool, error) {
	cached, ok, err := s.deps.Store.Load(ctx, videoID)
	if err != nil {
		return transcripts.Transcript{}, false, err
	}
	if ok && strings.TrimSpace(cached.Text) != "" {
		s.log.Info("transcript cache hit", slog.String("video_id", videoID))
		if cached.Source == "" {
			cached.Source = models.SourceCache
		}
		return cached, true, nil
	}

	var t transcripts.Transcript
	if s.opts.PreferCaptions {
		t, err = s.fromCaptions(ctx, videoID, url)
		if err != nil {
			if ctx.Err() != nil {
				return transcripts.Transcript{}, false, err
			}
			s.log.Info("captions unavailable, transcribing audio", slog.String("video_id", videoID), slog.Any("error", err))
		}
	}
	if t.Text == "" {
		t, err = s.fromAudio(ctx, videoID, url)
		if err != nil {
			return transcripts.Transcript{}, false, err
		}
	}
	if _, err := s.deps.Store.Save(ctx, t); err != nil {
		return transcripts.Transcript{}, false, fmt.Errorf("save transcript: %w", err)
	}
	return t, false, nil
}

func (s *Service) fromCaptions(ctx context.Context, videoID, url string) (transcripts.Transcript, error) {
	info, err := s.deps.Downloader.Probe(ctx, url)
	if err != nil {
		return transcripts.Transcript{}, err
	}
	text, err := s.deps.Downloader.Captions(ctx, url)
	if err != nil {
		return transcripts.Transcript{}, err
	}
	if strings.TrimSpace(text) == "" {
		return transcripts.Transcript{}, util.ErrEmptyTranscript
	}
	return transcripts.Transcript{
		VideoID:   videoID,
		Title:     info.Title,
		URL:       url,
		Source:    models.SourceCaptions,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) fromAudio(ctx context.Context, videoID, url string) (transcripts.Transcript, error) {
	audio, err := s.deps.Downloader.DownloadAudio(ctx, url)
	if err != nil {
		return transcripts.Transcript{}, err
	}
	if !s.opts.KeepAudio {
		defer func() {
			if err := os.Remove(audio.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.log.Warn("remove audio failed", slog.String("path", audio.Path), slog.Any("error", err))
			}
		}()
	}

	resp, info, err := s.deps.Transcriber.Transcribe(ctx, providers.TranscribeRequest{AudioPath: audio.Path})
	if err != nil {
		if errors.Is(err, util.ErrTranscriptionFailed) || errors.Is(err, util.ErrEmptyTranscript) {
			return transcripts.Transcript{}, err
		}
		return transcripts.Transcript{}, fmt.Errorf("%w: %s: %v", util.ErrTranscriptionFailed, info.Name, err)
	}
	text := util.SanitizeText(resp.Text)
	if strings.TrimSpace(text) == "" {
		return transcripts.Transcript{}, util.ErrEmptyTranscript
	}
	return transcripts.Transcript{
		VideoID:   videoID,
		Title:     audio.Title,
		URL:       url,
		Source:    models.SourceTranscription,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// BuildIndex chunks and embeds text in one request and replaces the video's
// index in the backend.
func (s *Service) BuildIndex(ctx context.Context, videoID, text string) ([]models.TextChunk, vector.Index, error) {
	chunks := util.SplitText(text, util.ChunkOptions{Size: s.opts.ChunkSize, Overlap: s.opts.ChunkOverlap})
	if len(chunks) == 0 {
		return nil, nil, util.ErrEmptyTranscript
	}
	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.Text
	}
	vectors, info, err := s.deps.Embedder.Embed(ctx, providers.EmbedRequest{Operation: "embed_chunks", Inputs: inputs, Dimension: s.opts.EmbedDim})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: embed chunks with %s: %w", util.ErrProviderFailed, info.Name, err)
	}
	if len(vectors) != len(chunks) {
		return nil, nil, fmt.Errorf("embed chunks with %s: got %d vectors for %d chunks", info.Name, len(vectors), len(chunks))
	}
	idx, err := s.deps.Backend.Build(ctx, videoID, chunks, vectors)
	if err != nil {
		return nil, nil, fmt.Errorf("build index: %w", err)
	}
	return chunks, idx, nil
}

// Retrieve embeds question and returns the k nearest chunks of the video.
// It fails with util.ErrIndexNotInitialized when the video has no index.
func (s *Service) Retrieve(ctx context.Context, videoID, question string, k int) ([]models.ScoredChunk, error) {
	rec, err := s.Video(ctx, videoID)
	if err != nil {
		if errors.Is(err, util.ErrNoVideo) || errors.Is(err, util.ErrTranscriptNotFound) {
			return nil, fmt.Errorf("%w: %v", util.ErrIndexNotInitialized, err)
		}
		return nil, err
	}
	if !rec.Indexed() {
		return nil, fmt.Errorf("%w: %s", util.ErrIndexNotInitialized, rec.Video.VideoID)
	}
	if k <= 0 {
		k = s.opts.RetrieveK
	}
	vectors, info, err := s.deps.Embedder.Embed(ctx, providers.EmbedRequest{Operation: "embed_query", Inputs: []string{question}, Dimension: s.opts.EmbedDim})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query with %s: %w", util.ErrProviderFailed, info.Name, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query with %s: got %d vectors", info.Name, len(vectors))
	}
	return rec.Index.Search(ctx, vectors[0], k)
}

// Video resolves videoID, or the most recently processed video when empty,
// to its record. Unknown ids are hydrated from persistent storage when it is
// configured.
func (s *Service) Video(ctx context.Context, videoID string) (Record, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		videoID = s.deps.Registry.Last()
	}
	if videoID == "" {
		latest, err := s.latestPersisted(ctx)
		if err != nil {
			return Record{}, err
		}
		videoID = latest
	}
	if rec, ok := s.deps.Registry.Get(videoID); ok {
		return rec, nil
	}
	return s.Hydrate(ctx, videoID)
}

func (s *Service) latestPersisted(ctx context.Context) (string, error) {
	if s.deps.Videos == nil {
		return "", util.ErrNoVideo
	}
	videos, err := s.deps.Videos.ListVideos(ctx)
	if err != nil {
		return "", err
	}
	for _, v := range videos {
		if v.Status == models.VideoStatusProcessed {
			return v.VideoID, nil
		}
	}
	return "", util.ErrNoVideo
}

// Hydrate loads a video processed elsewhere into the registry. The
// transcript comes from the transcript store, or is rebuilt from persisted
// chunks when the file is not on this host.
func (s *Service) Hydrate(ctx context.Context, videoID string) (Record, error) {
	if s.deps.Videos == nil {
		return Record{}, fmt.Errorf("%w: %s", util.ErrTranscriptNotFound, videoID)
	}
	v, ok, err := s.deps.Videos.GetVideo(ctx, videoID)
	if err != nil {
		return Record{}, err
	}
	if !ok || v.Status != models.VideoStatusProcessed {
		return Record{}, fmt.Errorf("%w: %s", util.ErrTranscriptNotFound, videoID)
	}

	var chunks []models.TextChunk
	if s.deps.Chunks != nil {
		if chunks, err = s.deps.Chunks.ListVideoChunks(ctx, videoID); err != nil {
			return Record{}, err
		}
	}
	t, found, err := s.deps.Store.Load(ctx, videoID)
	if err != nil {
		return Record{}, err
	}
	text := t.Text
	if !found {
		text = util.JoinChunks(chunks)
	}
	if strings.TrimSpace(text) == "" {
		return Record{}, fmt.Errorf("%w: %s", util.ErrTranscriptNotFound, videoID)
	}

	rec := Record{Video: v, Transcript: text, Chunks: chunks}
	idx, err := s.deps.Backend.Open(ctx, videoID)
	switch {
	case err == nil:
		rec.Index = idx
	case errors.Is(err, util.ErrIndexNotInitialized):
		s.log.Info("hydrated video has no index", slog.String("video_id", videoID))
	default:
		return Record{}, err
	}
	if rec.Video.ChunkCount == 0 {
		rec.Video.ChunkCount = len(chunks)
	}
	s.deps.Registry.Restore(rec)
	return rec, nil
}

// Videos lists known videos, from persistent storage when configured.
func (s *Service) Videos(ctx context.Context) ([]models.Video, error) {
	if s.deps.Videos != nil {
		return s.deps.Videos.ListVideos(ctx)
	}
	return s.deps.Registry.List(), nil
}

// Result builds the processing result for a registered video.
func (s *Service) Result(ctx context.Context, videoID string, already bool) (Result, error) {
	rec, err := s.Video(ctx, videoID)
	if err != nil {
		return Result{}, err
	}
	return resultFrom(rec, already), nil
}

func resultFrom(rec Record, already bool) Result {
	return Result{
		VideoID:          rec.Video.VideoID,
		Title:            rec.Video.Title,
		URL:              rec.Video.URL,
		Source:           rec.Video.Source,
		Transcript:       rec.Transcript,
		ChunkCount:       rec.Video.ChunkCount,
		AlreadyProcessed: already,
	}
}
