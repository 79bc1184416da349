package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ProcessModeInline   = "inline"
	ProcessModeTemporal = "temporal"

	IndexBackendMemory   = "memory"
	IndexBackendPGVector = "pgvector"
)

type Config struct {
	APIAddr             string
	ProcessMode         string
	TemporalAddress     string
	TemporalTaskQueue   string
	PostgresURL         string
	RedisURL            string
	IndexBackend        string
	DataRoot            string
	MediaDir            string
	TranscriptDir       string
	YtDlpPath           string
	PreferCaptions      bool
	KeepAudio           bool
	CaptionLangs        string
	ChunkSize           int
	ChunkOverlap        int
	RetrieveK           int
	EmbedDim            int
	EmbedVersion        string
	LLMProviders        string
	EmbedProviders      string
	TranscribeProvider  string
	LLMRatePerSec       float64
	SummaryMaxChars     int
	SummaryWords        int
	QuizSize            int
	QuizAttempts        int
	CacheTTLSecs        int
	CacheMaxEntries     int
	ActivityTimeoutSecs int
	LogLevel            string
	LogFormat           string
}

func Load() Config {
	root := getenv("VIDQA_DATA_ROOT", "./data")
	return Config{
		APIAddr:             getenv("VIDQA_API_ADDR", ":8080"),
		ProcessMode:         strings.ToLower(getenv("VIDQA_PROCESS_MODE", ProcessModeInline)),
		TemporalAddress:     getenv("VIDQA_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue:   getenv("VIDQA_TEMPORAL_TASK_QUEUE", "vidqa"),
		PostgresURL:         getenv("VIDQA_POSTGRES_URL", ""),
		RedisURL:            getenv("VIDQA_REDIS_URL", ""),
		IndexBackend:        strings.ToLower(getenv("VIDQA_INDEX_BACKEND", IndexBackendMemory)),
		DataRoot:            root,
		MediaDir:            getenv("VIDQA_MEDIA_DIR", filepath.Join(root, "media")),
		TranscriptDir:       getenv("VIDQA_TRANSCRIPT_DIR", filepath.Join(root, "transcripts")),
		YtDlpPath:           getenv("VIDQA_YTDLP_PATH", "yt-dlp"),
		PreferCaptions:      getenvBool("VIDQA_PREFER_CAPTIONS", true),
		KeepAudio:           getenvBool("VIDQA_KEEP_AUDIO", false),
		CaptionLangs:        getenv("VIDQA_CAPTION_LANGS", "en.*,en"),
		ChunkSize:           getenvInt("VIDQA_CHUNK_SIZE", 1500),
		ChunkOverlap:        getenvInt("VIDQA_CHUNK_OVERLAP", 200),
		RetrieveK:           getenvInt("VIDQA_RETRIEVE_K", 7),
		EmbedDim:            getenvInt("VIDQA_EMBED_DIM", 1536),
		EmbedVersion:        getenv("VIDQA_EMBED_VERSION", "v1"),
		LLMProviders:        getenv("VIDQA_LLM_PROVIDERS", "mock"),
		EmbedProviders:      getenv("VIDQA_EMBED_PROVIDERS", "mock"),
		TranscribeProvider:  getenv("VIDQA_TRANSCRIBE_PROVIDER", "mock"),
		LLMRatePerSec:       getenvFloat("VIDQA_LLM_RPS", 0),
		SummaryMaxChars:     getenvInt("VIDQA_SUMMARY_MAX_CHARS", 50000),
		SummaryWords:        getenvInt("VIDQA_SUMMARY_WORDS", 100),
		QuizSize:            getenvInt("VIDQA_QUIZ_SIZE", 5),
		QuizAttempts:        getenvInt("VIDQA_QUIZ_ATTEMPTS", 2),
		CacheTTLSecs:        getenvInt("VIDQA_CACHE_TTL_SECONDS", 86400),
		CacheMaxEntries:     getenvInt("VIDQA_CACHE_MAX_ENTRIES", 1000),
		ActivityTimeoutSecs: getenvInt("VIDQA_ACTIVITY_TIMEOUT_SECONDS", 7200),
		LogLevel:            strings.ToLower(getenv("VIDQA_LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getenv("VIDQA_LOG_FORMAT", "text")),
	}
}

// Validate rejects combinations the wiring cannot serve.
func (c Config) Validate() error {
	switch c.ProcessMode {
	case ProcessModeInline, ProcessModeTemporal:
	default:
		return fmt.Errorf("unsupported process mode %q", c.ProcessMode)
	}
	switch c.IndexBackend {
	case IndexBackendMemory, IndexBackendPGVector:
	default:
		return fmt.Errorf("unsupported index backend %q", c.IndexBackend)
	}
	if c.IndexBackend == IndexBackendPGVector && c.PostgresURL == "" {
		return fmt.Errorf("index backend pgvector requires VIDQA_POSTGRES_URL")
	}
	if c.ProcessMode == ProcessModeTemporal && c.IndexBackend != IndexBackendPGVector {
		return fmt.Errorf("temporal process mode requires the pgvector index backend")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	return nil
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
