// Package llm provides the completion dependency used for routing,
// collaboration analysis and persona replies. Providers are pluggable;
// callers only see Client.
package llm

import (
	"context"
	"errors"
	"strings"
)

var ErrLLMDisabled = errors.New("llm client disabled (missing key or base url)")

// Roles used in Message.Role
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the completion dependency.
type Client interface {
	// Chat sends a single system + user exchange.
	Chat(ctx context.Context, system, user string, opts ...CallOption) (string, error)
	// Complete sends the system prompt followed by an ordered history.
	Complete(ctx context.Context, system string, messages []Message, opts ...CallOption) (string, error)
}

type callOptions struct {
	temperature float64
	maxTokens   int
	jsonMode    bool
}

// CallOption tunes a single request
type CallOption func(*callOptions)

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) CallOption {
	return func(o *callOptions) { o.temperature = t }
}

// WithMaxTokens caps the completion length
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithJSONMode asks the provider for a JSON object reply where supported
func WithJSONMode() CallOption {
	return func(o *callOptions) { o.jsonMode = true }
}

func applyOptions(opts []CallOption) callOptions {
	o := callOptions{temperature: 0.7, maxTokens: 1024}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// normalizeRole maps anything that is not the user to the assistant,
// matching how stored agent turns are replayed.
func normalizeRole(r string) string {
	if strings.EqualFold(strings.TrimSpace(r), RoleUser) {
		return RoleUser
	}
	return RoleAssistant
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// normalizeBase adds /v1 for local OpenAI-compatible servers if necessary.
func normalizeBase(u string) string {
	s := strings.TrimRight(strings.TrimSpace(u), "/")
	if s == "" {
		return s
	}
	isLocal := strings.Contains(s, "localhost") || strings.Contains(s, "127.0.0.1")
	if isLocal {
		if !strings.HasSuffix(s, "/v1") && !strings.Contains(s, "/openai/v1") {
			s += "/v1"
		}
	}
	return s
}
