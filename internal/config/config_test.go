package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VIDQA_DATA_ROOT", "/tmp/vidqa")
	t.Setenv("VIDQA_CHUNK_SIZE", "")
	t.Setenv("VIDQA_PREFER_CAPTIONS", "")
	cfg := Load()
	require.Equal(t, ":8080", cfg.APIAddr)
	require.Equal(t, ProcessModeInline, cfg.ProcessMode)
	require.Equal(t, IndexBackendMemory, cfg.IndexBackend)
	require.Equal(t, filepath.Join("/tmp/vidqa", "transcripts"), cfg.TranscriptDir)
	require.Equal(t, 1500, cfg.ChunkSize)
	require.Equal(t, 200, cfg.ChunkOverlap)
	require.Equal(t, 50000, cfg.SummaryMaxChars)
	require.Equal(t, 5, cfg.QuizSize)
	require.True(t, cfg.PreferCaptions)
	require.NoError(t, cfg.Validate())
}

func TestLoadBadNumbersFallBack(t *testing.T) {
	t.Setenv("VIDQA_RETRIEVE_K", "seven")
	t.Setenv("VIDQA_LLM_RPS", "fast")
	t.Setenv("VIDQA_PREFER_CAPTIONS", "nah")
	cfg := Load()
	require.Equal(t, 7, cfg.RetrieveK)
	require.Zero(t, cfg.LLMRatePerSec)
	require.True(t, cfg.PreferCaptions)
}

func TestValidate(t *testing.T) {
	base := Load()

	c := base
	c.ProcessMode = "cron"
	require.Error(t, c.Validate())

	c = base
	c.IndexBackend = IndexBackendPGVector
	c.PostgresURL = ""
	require.Error(t, c.Validate())

	c = base
	c.ProcessMode = ProcessModeTemporal
	c.IndexBackend = IndexBackendMemory
	require.Error(t, c.Validate())

	c = base
	c.ProcessMode = ProcessModeTemporal
	c.IndexBackend = IndexBackendPGVector
	c.PostgresURL = "postgres://vidqa@localhost/vidqa"
	require.NoError(t, c.Validate())
}
