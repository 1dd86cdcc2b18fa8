package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/agenthub-x/agenthub/config"
	"github.com/agenthub-x/agenthub/logger"
)

// New builds the client selected by cfg.Provider. A missing key yields
// ErrLLMDisabled so callers can run with their fallbacks.
func New(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Debug {
		httpClient.Transport = &loggingRT{base: http.DefaultTransport, log: log}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		base := normalizeBase(firstNonEmpty(cfg.BaseURL, "https://api.openai.com/v1"))
		local := strings.Contains(base, "localhost") || strings.Contains(base, "127.0.0.1")
		if cfg.OpenAIKey == "" && !local {
			return nil, ErrLLMDisabled
		}
		return &OpenAIClient{
			BaseURL: base,
			APIKey:  cfg.OpenAIKey,
			Model:   firstNonEmpty(cfg.Model, "gpt-4o"),
			HTTP:    httpClient,
		}, nil

	case "anthropic", "claude":
		if cfg.AnthropicKey == "" {
			return nil, ErrLLMDisabled
		}
		c := NewAnthropicClient(cfg.AnthropicKey, cfg.Model, cfg.Timeout)
		c.HTTP = httpClient
		if cfg.BaseURL != "" {
			c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		return c, nil

	case "langchain":
		if cfg.OpenAIKey == "" {
			return nil, ErrLLMDisabled
		}
		return NewLangChainOpenAI(cfg.OpenAIKey, firstNonEmpty(cfg.Model, "gpt-4o"), cfg.BaseURL, httpClient)

	case "gemini", "googleai":
		if cfg.GeminiKey == "" {
			return nil, ErrLLMDisabled
		}
		return NewLangChainGemini(ctx, cfg.GeminiKey, firstNonEmpty(cfg.Model, "gemini-1.5-flash"))

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
