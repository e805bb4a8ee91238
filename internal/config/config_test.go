package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `{
	"port": 8080,
	"embedding": {"provider": "ollama"},
	"vector_store": {"type": "chroma", "collection": "docs", "chroma": {"base_url": "http://localhost:8000"}},
	"generation": {"provider": "ollama", "model": "llama3"}
}`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 384, cfg.Embedding.Dimension)
	require.Equal(t, 3, cfg.Embedding.Attempts)
	require.Equal(t, 5, cfg.VectorStore.TimeoutSeconds)
	require.Equal(t, float32(0.1), cfg.Generation.Temperature)
	require.Equal(t, 1024, cfg.Generation.MaxTokens)
	require.Equal(t, 5, cfg.Prompt.MaxPassages)
	require.Equal(t, 1200, cfg.Prompt.MaxPassageChars)
	require.Equal(t, 0.5, cfg.Confidence.Threshold)
	require.Equal(t, 100, cfg.Cache.AnswerCapacity)
	require.Equal(t, "*/10 * * * *", cfg.Cache.StatsCron)
}

func TestLoad_ThresholdOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 8080,
		"embedding": {"provider": "ollama"},
		"vector_store": {"type": "chroma", "collection": "docs", "chroma": {"base_url": "http://localhost:8000"}},
		"generation": {"provider": "ollama", "model": "llama3"},
		"confidence": {"threshold": 0.7}
	}`))
	require.NoError(t, err)
	require.Equal(t, 0.7, cfg.Confidence.Threshold)
}

func TestLoad_PgvectorTableDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 8080,
		"embedding": {"provider": "ollama"},
		"vector_store": {"type": "pgvector", "database": {"dsn": "postgres://localhost/docask"}},
		"generation": {"provider": "ollama", "model": "llama3"}
	}`))
	require.NoError(t, err)
	require.Equal(t, "passages", cfg.VectorStore.Database.Table)
}

func TestLoad_Rejections(t *testing.T) {
	cases := map[string]string{
		"missing port":       `{"embedding": {"provider": "ollama"}, "vector_store": {"type": "chroma", "collection": "docs", "chroma": {"base_url": "http://x"}}, "generation": {"provider": "ollama", "model": "m"}}`,
		"missing provider":   `{"port": 8080, "vector_store": {"type": "chroma", "collection": "docs", "chroma": {"base_url": "http://x"}}, "generation": {"provider": "ollama", "model": "m"}}`,
		"unknown store type": `{"port": 8080, "embedding": {"provider": "ollama"}, "vector_store": {"type": "faiss"}, "generation": {"provider": "ollama", "model": "m"}}`,
		"chroma no base_url": `{"port": 8080, "embedding": {"provider": "ollama"}, "vector_store": {"type": "chroma", "collection": "docs"}, "generation": {"provider": "ollama", "model": "m"}}`,
		"missing model":      `{"port": 8080, "embedding": {"provider": "ollama"}, "vector_store": {"type": "chroma", "collection": "docs", "chroma": {"base_url": "http://x"}}, "generation": {"provider": "ollama"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
