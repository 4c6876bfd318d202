package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppConfigDefaults(t *testing.T) {
	cfg := NewAppConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, LogFormatPretty, cfg.LogFormat())
	assert.Contains(t, cfg.DBURL(), "sqlite:///")
	assert.Contains(t, cfg.IndexPath(), "vector_index.gob")

	assert.Equal(t, 384, cfg.Index().Dimension())
	assert.Equal(t, 100, cfg.Index().TrainThreshold())
	assert.Equal(t, 10, cfg.Index().Probes())

	assert.Equal(t, 10, cfg.Search().DefaultLimit())
	assert.Equal(t, 100, cfg.Search().MaxLimit())
	assert.Equal(t, 1.0, cfg.Search().DefaultRadiusKm())
	assert.Equal(t, 0.5, cfg.Search().SimilarityThreshold())

	assert.Equal(t, 1000, cfg.Bulk().MaxItems())
	assert.Equal(t, 32, cfg.Bulk().BatchSize())
}

func TestLoadFromEnvWithPrefix(t *testing.T) {
	t.Setenv("GEOSEARCH_PORT", "9090")
	t.Setenv("GEOSEARCH_LOG_FORMAT", "json")
	t.Setenv("GEOSEARCH_EMBEDDING_API_KEY", "sk-test")
	t.Setenv("GEOSEARCH_INDEX_DIMENSION", "128")
	t.Setenv("GEOSEARCH_SEARCH_MAX_LIMIT", "50")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := env.ToAppConfig()

	assert.Equal(t, 9090, cfg.Port())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.True(t, cfg.Embedding().IsConfigured())
	assert.Equal(t, "sk-test", cfg.Embedding().APIKey())
	assert.Equal(t, 128, cfg.Index().Dimension())
	assert.Equal(t, 50, cfg.Search().MaxLimit())
}

func TestEmbeddingNotConfiguredWithoutKey(t *testing.T) {
	t.Setenv("GEOSEARCH_EMBEDDING_API_KEY", "")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := env.ToAppConfig()

	assert.False(t, cfg.Embedding().IsConfigured())
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding().Model())
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := NewAppConfig()
		cfg.logLevel = tt.level
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.level)
	}
}

func TestLoadDotEnvMissingFileIsNotAnError(t *testing.T) {
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}
