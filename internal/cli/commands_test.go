package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasco/trainsight/internal/config"
)

func TestApplyAnalyzeFlagsOverrides(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.LLM.Provider)

	cmd := analyzeCmd
	require.NoError(t, cmd.Flags().Set("days", "90"))
	require.NoError(t, cmd.Flags().Set("provider", "openai"))
	require.NoError(t, cmd.Flags().Set("output-dir", "/tmp/reports"))
	t.Cleanup(func() {
		cmd.Flags().Set("days", "0")
		cmd.Flags().Set("provider", "")
		cmd.Flags().Set("output-dir", "")
	})

	applyAnalyzeFlags(cmd, cfg)

	assert.Equal(t, 90, cfg.Analysis.Days)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model, "model follows the new provider")
	assert.Equal(t, "/tmp/reports", cfg.Analysis.OutputDir)
}

func TestApplyAnalyzeFlagsExplicitModelWins(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cmd := analyzeCmd
	require.NoError(t, cmd.Flags().Set("provider", "openai"))
	require.NoError(t, cmd.Flags().Set("model", "gpt-4o-mini"))
	t.Cleanup(func() {
		cmd.Flags().Set("provider", "")
		cmd.Flags().Set("model", "")
	})

	applyAnalyzeFlags(cmd, cfg)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestNoCacheFlagDisablesCache(t *testing.T) {
	noCache = true
	t.Cleanup(func() { noCache = false })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled)
}

func TestRootCommandWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["analyze"])
	assert.True(t, names["cache"])
	assert.True(t, names["config"])

	cfgSub := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		cfgSub[c.Name()] = true
	}
	assert.True(t, cfgSub["check"])

	sub := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["stats"])
	assert.True(t, sub["purge"])
	assert.True(t, sub["clear"])
}
