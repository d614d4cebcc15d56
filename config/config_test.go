package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.ChatModel.Name)
	assert.Equal(t, "openai", cfg.ChatModel.Provider)
	assert.Equal(t, "inmemory", cfg.Queue.Kind)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elroy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chat_model:
  name: claude-3-5-haiku-latest
  provider: anthropic
  ensure_alternating_roles: true
fallback_model:
  name: gpt-4o-mini
  provider: openai
persona: "You are a terse assistant."
history_window: 5
http:
  port: 9090
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.ChatModel.Name)
	assert.True(t, cfg.ChatModel.EnsureAlternatingRoles)
	require.NotNil(t, cfg.FallbackModel)
	assert.Equal(t, "gpt-4o-mini", cfg.FallbackModel.Name)
	assert.Equal(t, 5, cfg.HistoryWindow)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ELROY_CHAT_MODEL", "gpt-4.1")
	t.Setenv("ELROY_HTTP_PORT", "7070")
	t.Setenv("ELROY_REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.ChatModel.Name)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elroy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chat_model:
  name: gpt-4o
queue:
  kind: sqs
`), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "sqs_queue_url")

	require.NoError(t, os.WriteFile(path, []byte(`
chat_model:
  name: gpt-4o
  provider: mystery
`), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.ChatModel.Name)
}
