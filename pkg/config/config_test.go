// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CHANNEL_ACCESS_TOKEN", "token")
	t.Setenv("CHANNEL_SECRET", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Model, "model falls back to the provider default")
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Broadcast.Interval)
	assert.True(t, cfg.Broadcast.Enabled)
	assert.Equal(t, BackendJSON, cfg.Registry.Backend)
	assert.Equal(t, "users.json", cfg.Registry.Path)
	assert.Equal(t, "persona.json", cfg.PersonaPath)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey())
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("CHANNEL_ACCESS_TOKEN", "")
	t.Setenv("CHANNEL_SECRET", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHANNEL_ACCESS_TOKEN")
	assert.Contains(t, err.Error(), "CHANNEL_SECRET")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_AnthropicNeedsItsOwnKey(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "ak-test", cfg.LLM.APIKey())
}

func TestLLMConfig_SelectsProviderBase(t *testing.T) {
	cfg := LLMConfig{
		Provider:         ProviderOpenAI,
		OpenAIAPIBase:    "https://openai.example/v1",
		AnthropicAPIBase: "https://anthropic.example",
	}
	assert.Equal(t, "https://openai.example/v1", cfg.APIBase())

	cfg.Provider = ProviderAnthropic
	assert.Equal(t, "https://anthropic.example", cfg.APIBase())
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "gemini")

	_, err := Load()
	assert.ErrorContains(t, err, "LLM_PROVIDER")
}

func TestLoad_PortOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestValidateRuntime(t *testing.T) {
	setRequired(t)

	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad backend", "REGISTRY_BACKEND", "redis"},
		{"bad cron", "BROADCAST_CRON", "every minute"},
		{"zero interval", "BROADCAST_INTERVAL", "0s"},
		{"port out of range", "PORT", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateRuntime_CronOverridesInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("BROADCAST_INTERVAL", "0s")
	t.Setenv("BROADCAST_CRON", "*/10 * * * *")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "*/10 * * * *", cfg.Broadcast.Cron)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOPICBOT_DOTENV_PROBE=from-file\n"), 0o600))
	t.Setenv("TOPICBOT_DOTENV_PROBE", "")
	os.Unsetenv("TOPICBOT_DOTENV_PROBE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("TOPICBOT_DOTENV_PROBE"))
}
