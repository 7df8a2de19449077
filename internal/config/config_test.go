package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("channel:\n  url: https://www.youtube.com/@example/videos\n"))
	require.NoError(t, err)

	assert.Equal(t, 120.0, cfg.Chunking.Duration)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 32, cfg.Embedding.BatchSize)
	assert.Equal(t, 768, cfg.Embedding.Local.Dimensions)
	assert.Equal(t, "mean", cfg.Embedding.Local.Pooling)
	assert.Equal(t, "youtube_subtitles", cfg.Database.Collection)
	assert.Equal(t, filepath.Join("data", "tubeindex.db"), cfg.Database.Path)
	assert.Equal(t, "cosine", cfg.Database.Metric)
	assert.Equal(t, 365, cfg.Channel.DaysLimit)
	assert.Equal(t, []string{"ko"}, cfg.Channel.Languages)
	assert.Equal(t, 2, cfg.Server.TopK)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, filepath.Join("data", "videos_metadata.json"), cfg.Data.VideosFile())
	assert.Equal(t, filepath.Join("data", "subtitles"), cfg.Data.SubtitlesDir())
	assert.Equal(t, filepath.Join("data", "chunks.json"), cfg.Data.ChunksFile())
}

func TestParseDefaultTemplate(t *testing.T) {
	cfg, err := Parse([]byte(defaultConfigTemplate))
	require.NoError(t, err)
	assert.Equal(t, "jhgan/ko-sbert-multitask", cfg.Embedding.Local.ModelName)
	assert.NotEmpty(t, cfg.Search.EvalQueries)
	assert.NotEmpty(t, cfg.Server.SuggestedQueries)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TUBEINDEX_CHUNK_DURATION", "60")
	t.Setenv("TUBEINDEX_EMBEDDING_PROVIDER", "openai")
	t.Setenv("TUBEINDEX_TOP_K", "7")
	t.Setenv("TUBEINDEX_COLLECTION", "other")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Parse([]byte("chunking:\n  duration: 90\n"))
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Chunking.Duration)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 7, cfg.Server.TopK)
	assert.Equal(t, "other", cfg.Database.Collection)
	assert.Equal(t, "sk-test", cfg.Embedding.OpenAI.APIKey)
}

func TestEnvMalformedNumberIgnored(t *testing.T) {
	t.Setenv("TUBEINDEX_CHUNK_DURATION", "abc")

	cfg, err := Parse([]byte("chunking:\n  duration: 90\n"))
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Chunking.Duration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown provider", "embedding:\n  provider: volcengine\n"},
		{"negative duration", "chunking:\n  duration: -5\n"},
		{"bad metric", "database:\n  metric: dot\n"},
		{"bad pooling", "embedding:\n  local:\n    pooling: max\n"},
		{"keyword weight out of range", "search:\n  keyword_weight: 1.5\n"},
		{"batch size too large", "embedding:\n  batch_size: 1000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, IsConfigNotFound(err))
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tubeindex.yaml")

	created, err := WriteDefaultTemplate(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteDefaultTemplate(path)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigTemplate, string(data))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8501", cfg.Server.Addr)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y.db"), expandPath("~/x/y.db"))
	assert.Equal(t, "relative/y.db", expandPath("relative/y.db"))
}
