package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/orline/internal/config"
	"github.com/theirongolddev/orline/internal/history"
	"github.com/theirongolddev/orline/internal/state"
)

// runCommand executes the root command with args against a config file and
// returns stdout.
func runCommand(t *testing.T, cfg config.Config, args ...string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.SaveTo(cfg, cfgPath))

	var out bytes.Buffer
	rootCmd.SetArgs(append(args, "--config", cfgPath))
	rootCmd.SetOut(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestStateCommand(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	store := state.NewStore(cfg.State.Dir)
	require.NoError(t, store.Save("sess-state", state.Record{
		SeenIDs:            []string{"gen-1", "gen-2"},
		TotalCost:          0.03,
		TotalCacheDiscount: 0.005,
		LastProvider:       "OpenAI",
		LastModel:          "openrouter/gpt-4-20240101",
	}))

	out := runCommand(t, cfg, "state", "sess-state")
	for _, want := range []string{"$0.0300", "OpenAI", "gpt-4 (openrouter/gpt-4-20240101)", "stored"} {
		assert.Contains(t, out, want)
	}

	out = runCommand(t, cfg, "state", "sess-state", "--json")
	assert.Contains(t, out, `"seen_ids": [`)
	assert.Contains(t, out, `"last_provider": "OpenAI"`)
	stateJSON = false

	out = runCommand(t, cfg, "state", "sess-unknown")
	assert.Contains(t, out, "not found (zero record)")
}

func TestHistoryCommand(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	ledger, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	ctx := context.Background()
	for _, e := range []history.Entry{
		{SessionID: "sess-a", GenerationID: "gen-1", Provider: "OpenAI", Model: "openai/gpt-4o", TotalCost: 0.01},
		{SessionID: "sess-a", GenerationID: "gen-2", Provider: "OpenAI", Model: "openai/gpt-4o", TotalCost: 0.02},
		{SessionID: "sess-b", GenerationID: "gen-3", Provider: "Anthropic", Model: "anthropic/claude-3", TotalCost: 0.5},
	} {
		require.NoError(t, ledger.Record(ctx, e))
	}
	require.NoError(t, ledger.Close())

	out := runCommand(t, cfg, "history")
	assert.Contains(t, out, "sess-a")
	assert.Contains(t, out, "sess-b")
	assert.Contains(t, out, "claude-3")

	out = runCommand(t, cfg, "history", "--session", "sess-a")
	assert.Contains(t, out, "gen-1")
	assert.Contains(t, out, "gen-2")
	assert.NotContains(t, out, "gen-3")
	assert.Contains(t, out, "(2 of 2)")
	historySession = ""

	out = runCommand(t, cfg, "history", "--session", "nobody")
	assert.Contains(t, out, "No generations recorded for nobody.")
	historySession = ""
}

func TestConfigCommand(t *testing.T) {
	clearCredentialEnv(t)
	cfg := testConfig(t, "https://proxy.example")
	cfg.OpenRouter.APIKey = "sk-or-v1-0123456789abcdef"

	out := runCommand(t, cfg, "config")
	assert.Contains(t, out, "https://proxy.example/api/v1")
	assert.Contains(t, out, "sk-or-v1...cdef (config)")
	assert.NotContains(t, out, "0123456789")
}

func TestCreditsCommand(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "sk-or-test")
	srv := newBillingServer(t)
	cfg := testConfig(t, srv.URL)

	out := runCommand(t, cfg, "credits")
	assert.Contains(t, out, "$25.00")
	assert.Contains(t, out, "$5.50")
	assert.Contains(t, out, "$19.50")
	assert.Contains(t, out, "22.0%")
}

func TestRenderMiniBar(t *testing.T) {
	bar := renderMiniBar(0.5, 10)
	assert.Equal(t, 5, strings.Count(bar, "█"))
	assert.Equal(t, 5, strings.Count(bar, "░"))
	assert.Equal(t, 10, strings.Count(renderMiniBar(2, 10), "█"))
}
