package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Port:            0,
			DBPath:          filepath.Join(dir, "agenthub.db"),
			WitnessKeyFile:  filepath.Join(dir, "keys", "witness.jwk"),
			ShutdownTimeout: time.Second,
		},
		LLM:         config.LLMConfig{Provider: "openai", Timeout: time.Second},
		Cardano:     config.CardanoConfig{Network: "preprod"},
		Marketplace: config.MarketplaceConfig{URL: "https://app.sokosumi.com"},
		Hydra:       config.HydraConfig{NodeURL: "http://localhost:4001"},
		Masumi:      config.MasumiConfig{NetworkURL: "https://masumi-testnet.io"},
	}
}

func TestNewWiresSimulatedStack(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blockchain/masumi/discover", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var disc struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &disc))

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agents", nil))
	var agents []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agents))
	assert.Equal(t, len(agents), disc.Total, "every stored agent is registered")

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blockchain/status", nil))
	assert.Contains(t, rec.Body.String(), `"is_live":false`)
}

func TestPersonaOverridesFileMustExist(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.PersonasFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, "test", nil)
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
