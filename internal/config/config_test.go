package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost:5432/workspace
  debug: true
vector:
  path: ./data/chromemdb
  collection: docs
embed_llm:
  base_url: http://localhost:11434
  model: nomic-embed-text
chat_llm:
  base_url: https://api.groq.com/openai/v1
  model: llama-3.3-70b-versatile
rag:
  chunk_size: 500
  chunk_overlap: 100
worker:
  workers: 2
  retry_delay: 5s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/workspace", cfg.Database.URL)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, "docs", cfg.Vector.Collection)
	assert.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.ChatLLM.Model)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 2, cfg.Worker.Workers)
	assert.Equal(t, 5*time.Second, cfg.Worker.RetryDelay)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost:5432/workspace
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "documents", cfg.Vector.Collection)
	assert.Equal(t, "./chromemdb", cfg.Vector.Path)
	assert.Equal(t, 1000, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.SearchResults)
	assert.Equal(t, 10, cfg.RAG.HistoryWindow)
	assert.Equal(t, 4, cfg.Worker.Workers)
	assert.Equal(t, 3, cfg.Worker.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.Worker.RetryDelay)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CHAT_LLM_KEY", "sk-from-env")
	t.Setenv("DATABASE_PASSWORD", "hunter2")

	path := writeConfig(t, `
database:
  url: postgres://localhost:5432/workspace
chat_llm:
  key: sk-from-file
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.ChatLLM.Key)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
