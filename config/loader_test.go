package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_PATH", "CARDANO_NETWORK", "SOKOSUMI_API_KEY", "HYDRA_API_KEY", "MASUMI_API_KEY", "BLOCKFROST_API_KEY", "LLM_TIMEOUT", "COLLABORATION_DELAY_MS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "agenthub.db", cfg.Server.DBPath)
	assert.Equal(t, 500*time.Millisecond, cfg.Server.CollaborationDelay())
	assert.Equal(t, "preprod", cfg.Cardano.Network)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "https://app.sokosumi.com", cfg.Marketplace.URL)
	assert.True(t, cfg.SimulationMode())
	assert.False(t, cfg.MarketplaceLive())
}

func TestCapabilityChecks(t *testing.T) {
	t.Setenv("SOKOSUMI_API_KEY", "short-key")
	t.Setenv("HYDRA_API_KEY", "hydra")
	t.Setenv("PORT", "8080")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.MarketplaceLive(), "keys of 20 chars or fewer are placeholders")
	assert.True(t, cfg.HydraLive())
	assert.False(t, cfg.SimulationMode())

	t.Setenv("SOKOSUMI_API_KEY", "sk-0123456789abcdefghij")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.MarketplaceLive())
}

func TestFromEnvRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestLoadPersonaOverrides(t *testing.T) {
	t.Setenv("INSIGHT_PROMPT", "You analyse data.")
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
personas:
  InsightBot:
    system_prompt: ${INSIGHT_PROMPT}
    fee_ada: 0.07
`), 0o600))

	got, err := LoadPersonaOverrides(path)
	require.NoError(t, err)
	require.Contains(t, got, "InsightBot")
	assert.Equal(t, "You analyse data.", got["InsightBot"].SystemPrompt)
	require.NotNil(t, got["InsightBot"].FeeADA)
	assert.InDelta(t, 0.07, *got["InsightBot"].FeeADA, 1e-9)
}

func TestParsePersonaOverridesRejectsInvalid(t *testing.T) {
	_, err := ParsePersonaOverrides([]byte(`
personas:
  InsightBot:
    fee_ada: -1
    colour: blue
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "personas validation failed")
}
