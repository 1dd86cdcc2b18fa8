package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient adapts any langchaingo model to Client.
type LangChainClient struct {
	Model llms.Model
	Name  string
}

// NewLangChainOpenAI wraps the langchaingo OpenAI model
func NewLangChainOpenAI(apiKey, model, baseURL string, httpClient *http.Client) (*LangChainClient, error) {
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(normalizeBase(baseURL)))
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain openai: %w", err)
	}
	return &LangChainClient{Model: m, Name: "langchain/openai"}, nil
}

// NewLangChainGemini wraps the langchaingo Google AI model
func NewLangChainGemini(ctx context.Context, apiKey, model string) (*LangChainClient, error) {
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("langchain googleai: %w", err)
	}
	return &LangChainClient{Model: m, Name: "langchain/googleai"}, nil
}

// Chat sends a single user turn
func (c *LangChainClient) Chat(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	return c.Complete(ctx, system, []Message{{Role: RoleUser, Content: user}}, opts...)
}

// Complete maps the history onto langchaingo message contents
func (c *LangChainClient) Complete(ctx context.Context, system string, messages []Message, opts ...CallOption) (string, error) {
	o := applyOptions(opts)

	content := make([]llms.MessageContent, 0, len(messages)+1)
	if strings.TrimSpace(system) != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range messages {
		role := llms.ChatMessageTypeAI
		if normalizeRole(m.Role) == RoleUser {
			role = llms.ChatMessageTypeHuman
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithTemperature(o.temperature),
		llms.WithMaxTokens(o.maxTokens),
	}
	if o.jsonMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := c.Model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New(c.Name + ": empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
