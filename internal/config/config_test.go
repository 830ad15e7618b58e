package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasco/trainsight/internal/cache"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, 3000, cfg.LLM.MaxTokens)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 7, cfg.Cache.ExtendedFactor)
	assert.Equal(t, 30, cfg.Analysis.Days)
	assert.Equal(t, "analysis_reports", cfg.Analysis.OutputDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainsight.yaml")
	content := `
garmin:
  token: tok-123
llm:
  provider: openai
  api_key: sk-test
analysis:
  days: 60
cache:
  ttl_hours: 12
  max_size_mb: 16
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Garmin.Token)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model, "provider default model applies")
	assert.Equal(t, 60, cfg.Analysis.Days)
	assert.Equal(t, 12, cfg.Cache.TTLHours)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("TRAINSIGHT_LLM_PROVIDER", "googleai")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "googleai", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.LLM.Model)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{
		LLM:      LLM{Provider: "nonsense"},
		Analysis: Analysis{Days: 0},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garmin.token")
	assert.Contains(t, err.Error(), "llm.provider")
	assert.Contains(t, err.Error(), "analysis.days")
}

func TestCacheConfigTranslation(t *testing.T) {
	cfg := &Config{Cache: Cache{
		Enabled:        true,
		Dir:            "/tmp/c",
		TTLHours:       12,
		ExtendedFactor: 4,
		MaxSizeMB:      8,
		BusyTimeoutSec: 3,
	}}

	cc := cfg.CacheConfig()
	assert.Equal(t, cache.Config{
		Enabled:     true,
		Dir:         "/tmp/c",
		TTL:         cache.TTLPolicy{Base: 12 * time.Hour, ExtendedFactor: 4},
		MaxBytes:    8 << 20,
		BusyTimeout: 3 * time.Second,
	}, cc)
}
