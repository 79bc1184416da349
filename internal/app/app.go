package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"vidqa/internal/cache"
	"vidqa/internal/config"
	"vidqa/internal/generators"
	"vidqa/internal/media"
	"vidqa/internal/pipeline"
	"vidqa/internal/providers"
	"vidqa/internal/storage"
	"vidqa/internal/transcripts"
	"vidqa/internal/util"
	"vidqa/internal/vector"
)

// App holds the wired services shared by the API, the worker and the CLI.
type App struct {
	Config     config.Config
	Log        *slog.Logger
	DB         *storage.DB // nil without VIDQA_POSTGRES_URL
	Cache      *cache.Cache
	Providers  *providers.Manager
	Pipeline   *pipeline.Service
	Generators *generators.Service
}

func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = NewLogger(cfg)
	}
	for _, dir := range []string{cfg.MediaDir, cfg.TranscriptDir} {
		if err := util.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("prepare data dir: %w", err)
		}
	}

	a := &App{Config: cfg, Log: log}
	if cfg.PostgresURL != "" {
		dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := storage.NewDB(dctx, cfg.PostgresURL)
		if err == nil {
			err = db.Migrate(dctx)
			if err != nil {
				db.Close()
			}
		}
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.DB = db
	}

	pm, err := providers.NewManager(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Providers = pm
	a.Cache = cache.New(ctx, cache.Options{
		RedisURL:        cfg.RedisURL,
		TTL:             time.Duration(cfg.CacheTTLSecs) * time.Second,
		MaxEntries:      cfg.CacheMaxEntries,
		CleanupInterval: 5 * time.Minute,
	}, log)

	llm, llmRef := pm.LLM()
	embed, embedRef := pm.Embedder()
	stt, sttRef := pm.Transcriber()

	deps := pipeline.Deps{
		Store:       transcripts.NewStore(cfg.TranscriptDir),
		Downloader:  media.NewYtDlp(cfg.YtDlpPath, cfg.MediaDir, cfg.CaptionLangs),
		Transcriber: stt,
		Embedder:    embed,
		Backend:     vector.NewMemoryBackend(),
		Registry:    pipeline.NewRegistry(),
	}
	var (
		audit    generators.Auditor
		attempts generators.AttemptRecorder
	)
	if a.DB != nil {
		chunks := storage.NewChunkRepo(a.DB)
		deps.Videos = storage.NewVideoRepo(a.DB)
		deps.Chunks = chunks
		if cfg.IndexBackend == config.IndexBackendPGVector {
			deps.Backend = vector.NewPGBackend(a.DB.Pool, chunks, cfg.EmbedVersion)
		}
		audit = storage.NewLLMAuditRepo(a.DB)
		attempts = storage.NewQuizRepo(a.DB)
	}

	a.Pipeline = pipeline.NewService(deps, pipeline.Options{
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		EmbedDim:       cfg.EmbedDim,
		RetrieveK:      cfg.RetrieveK,
		PreferCaptions: cfg.PreferCaptions,
		KeepAudio:      cfg.KeepAudio,
	}, log)
	a.Generators = generators.NewService(llm, a.Cache, audit, attempts, generators.Options{
		SummaryMaxChars: cfg.SummaryMaxChars,
		SummaryWords:    cfg.SummaryWords,
		QuizSize:        cfg.QuizSize,
		QuizAttempts:    cfg.QuizAttempts,
	}, log)

	log.Info("services ready",
		slog.String("llm", llmRef.Raw),
		slog.Int("llm_configured", pm.LLMCount()),
		slog.String("embed", embedRef.Raw),
		slog.Int("embed_configured", pm.EmbedCount()),
		slog.String("transcribe", sttRef.Raw),
		slog.String("index_backend", cfg.IndexBackend),
		slog.Bool("postgres", a.DB != nil),
	)
	return a, nil
}

func (a *App) Close() {
	if a.Cache != nil {
		hits, misses := a.Cache.Stats()
		a.Log.Debug("cache closed", slog.Int64("hits", hits), slog.Int64("misses", misses))
		_ = a.Cache.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewLogger builds the process logger from VIDQA_LOG_LEVEL and
// VIDQA_LOG_FORMAT.
func NewLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
