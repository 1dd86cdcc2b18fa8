package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ServerConfig controls the HTTP process
type ServerConfig struct {
	Port                 int           `envconfig:"PORT" default:"5001"`
	DBPath               string        `envconfig:"DB_PATH" default:"agenthub.db"`
	LogLevel             string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat            string        `envconfig:"LOG_FORMAT" default:"json"`
	CollaborationDelayMs int           `envconfig:"COLLABORATION_DELAY_MS" default:"500"`
	PersonasFile         string        `envconfig:"PERSONAS_FILE"`
	WitnessKeyFile       string        `envconfig:"WITNESS_KEY_FILE" default:"keys/witness.jwk"`
	ShutdownTimeout      time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// CollaborationDelay is the pause between hire progress events
func (s ServerConfig) CollaborationDelay() time.Duration {
	if s.CollaborationDelayMs < 0 {
		return 0
	}
	return time.Duration(s.CollaborationDelayMs) * time.Millisecond
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	Provider     string        `envconfig:"LLM_PROVIDER" default:"openai"`
	OpenAIKey    string        `envconfig:"OPENAI_API_KEY"`
	BaseURL      string        `envconfig:"LLM_BASE_URL"`
	Model        string        `envconfig:"LLM_MODEL"`
	AnthropicKey string        `envconfig:"ANTHROPIC_API_KEY"`
	GeminiKey    string        `envconfig:"GEMINI_API_KEY"`
	Timeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	Debug        bool          `envconfig:"LLM_DEBUG"`
}

// CardanoConfig holds Blockfrost access
type CardanoConfig struct {
	BlockfrostKey string `envconfig:"BLOCKFROST_API_KEY"`
	Network       string `envconfig:"CARDANO_NETWORK" default:"preprod"`
}

// MarketplaceConfig holds Sokosumi access
type MarketplaceConfig struct {
	URL    string `envconfig:"SOKOSUMI_API_URL" default:"https://app.sokosumi.com"`
	APIKey string `envconfig:"SOKOSUMI_API_KEY"`
}

// HydraConfig holds Hydra node access
type HydraConfig struct {
	NodeURL string `envconfig:"HYDRA_NODE_URL" default:"http://localhost:4001"`
	APIKey  string `envconfig:"HYDRA_API_KEY"`
}

// MasumiConfig holds Masumi network access
type MasumiConfig struct {
	NetworkURL string `envconfig:"MASUMI_NETWORK_URL" default:"https://masumi-testnet.io"`
	APIKey     string `envconfig:"MASUMI_API_KEY"`
}

// Config is the full process configuration
type Config struct {
	Server      ServerConfig
	LLM         LLMConfig
	Cardano     CardanoConfig
	Marketplace MarketplaceConfig
	Hydra       HydraConfig
	Masumi      MasumiConfig
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	// Try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment without touching .env
func FromEnv() (*Config, error) {
	var cfg Config
	sections := []struct {
		name string
		dst  interface{}
	}{
		{"server", &cfg.Server},
		{"llm", &cfg.LLM},
		{"cardano", &cfg.Cardano},
		{"marketplace", &cfg.Marketplace},
		{"hydra", &cfg.Hydra},
		{"masumi", &cfg.Masumi},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.dst); err != nil {
			return nil, fmt.Errorf("load %s config: %w", s.name, err)
		}
	}
	return &cfg, nil
}

// CardanoLive reports whether Blockfrost calls are enabled
func (c *Config) CardanoLive() bool { return c.Cardano.BlockfrostKey != "" }

// MarketplaceLive reports whether Sokosumi calls are enabled. Short keys are
// placeholders shipped in sample env files.
func (c *Config) MarketplaceLive() bool { return len(c.Marketplace.APIKey) > 20 }

// HydraLive reports whether Hydra node calls are enabled
func (c *Config) HydraLive() bool { return c.Hydra.APIKey != "" }

// MasumiLive reports whether Masumi network calls are enabled
func (c *Config) MasumiLive() bool { return c.Masumi.APIKey != "" }

// SimulationMode is true when no ledger integration is live
func (c *Config) SimulationMode() bool {
	return !(c.MasumiLive() || c.HydraLive() || c.CardanoLive())
}

func expandEnvVars(s string) string {
	// Replace ${VAR_NAME} with environment variable values
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
