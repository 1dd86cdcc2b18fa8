package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agenthub-x/agenthub/resilience"
)

// AnthropicClient implements Client over the Messages API
// https://docs.anthropic.com/en/api/messages
type AnthropicClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
	Retry   *resilience.RetryConfig
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Content []anthropicContent `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(apiKey, model string, timeout time.Duration) *AnthropicClient {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://api.anthropic.com/v1",
		HTTP:    &http.Client{Timeout: timeout},
		Retry: &resilience.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: 2 * time.Second,
			MaxDelay:     4 * time.Second,
			Multiplier:   2,
			RetryIf:      resilience.IsRetryable,
		},
	}
}

// Chat sends a single user turn
func (c *AnthropicClient) Chat(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	return c.Complete(ctx, system, []Message{{Role: RoleUser, Content: user}}, opts...)
}

// Complete sends the history. Anthropic has no JSON mode; the JSON
// instruction is appended to the system prompt instead.
func (c *AnthropicClient) Complete(ctx context.Context, system string, messages []Message, opts ...CallOption) (string, error) {
	o := applyOptions(opts)
	reqBody := anthropicRequest{
		Model:       c.Model,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		System:      strings.TrimSpace(system),
	}
	if o.jsonMode {
		reqBody.System += "\n\nRespond with a single JSON object and nothing else."
	}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, anthropicMessage{Role: normalizeRole(m.Role), Content: m.Content})
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	var text string
	err = resilience.RetryWithConfig(ctx, c.Retry, func() error {
		var callErr error
		text, callErr = c.do(ctx, b)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *AnthropicClient) do(ctx context.Context, payload []byte) (string, error) {
	endpoint := c.BaseURL + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: http request: %w", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode/100 != 2 {
		return "", &resilience.StatusError{Endpoint: "anthropic messages", Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("anthropic: decode failed: %w; raw=%s", err, string(body))
	}
	if out.Error != nil {
		return "", fmt.Errorf("anthropic: %s - %s", out.Error.Type, out.Error.Message)
	}
	for _, content := range out.Content {
		if content.Type == "text" && strings.TrimSpace(content.Text) != "" {
			return strings.TrimSpace(content.Text), nil
		}
	}
	return "", errors.New("anthropic: no text content found")
}
