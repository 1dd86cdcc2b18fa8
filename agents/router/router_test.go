package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/llm"
)

type stubLLM struct {
	reply string
	err   error
	calls int
}

func (s *stubLLM) Chat(ctx context.Context, system, user string, opts ...llm.CallOption) (string, error) {
	s.calls++
	return s.reply, s.err
}

func (s *stubLLM) Complete(ctx context.Context, system string, msgs []llm.Message, opts ...llm.CallOption) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestExplicitPersonaSkipsClassification(t *testing.T) {
	stub := &stubLLM{reply: `{"selected_agents":["TradeMind"]}`}
	r := New(registry.New(), stub, nil)

	for _, msg := range []string{"", "trade some bitcoin", "write me a newsletter"} {
		d := r.Route(context.Background(), msg, "MailMind")
		assert.Equal(t, "MailMind", d.Persona.Name)
		assert.True(t, d.Explicit)
	}
	assert.Zero(t, stub.calls)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		want     string
		fallback bool
	}{
		{"first known candidate", "```json\n{\"selected_agents\":[\"Nobody\",\"YieldMaximizer\",\"TradeMind\"],\"analysis\":\"defi\"}\n```", nil, "YieldMaximizer", false},
		{"hub sentinel", `{"selected_agents":["AgentHub","TradeMind"]}`, nil, registry.HubName, true},
		{"no candidates", `{"selected_agents":[]}`, nil, registry.HubName, true},
		{"malformed", `not json at all`, nil, registry.HubName, true},
		{"schema mismatch", `{"selected_agents":"TradeMind"}`, nil, registry.HubName, true},
		{"call failure", "", errors.New("timeout"), registry.HubName, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubLLM{reply: tt.reply, err: tt.err}
			d := New(registry.New(), stub, nil).Route(context.Background(), "how do I farm yield", "")
			assert.Equal(t, tt.want, d.Persona.Name)
			assert.Equal(t, tt.fallback, d.Fallback)
			assert.Equal(t, 1, stub.calls)
		})
	}
}

func TestUnknownExplicitPersonaIsClassified(t *testing.T) {
	stub := &stubLLM{reply: `{"selected_agents":["ShopAssist"]}`}
	d := New(registry.New(), stub, nil).Route(context.Background(), "where is my order", "Ghost")
	require.Equal(t, 1, stub.calls)
	assert.Equal(t, "ShopAssist", d.Persona.Name)
	assert.False(t, d.Explicit)
}

func TestNilClientFallsBack(t *testing.T) {
	d := New(registry.New(), nil, nil).Route(context.Background(), "hello", "")
	assert.True(t, d.Fallback)
	assert.Equal(t, registry.HubPrompt, d.Persona.SystemPrompt)
}

func TestRoutingPromptListsPersonas(t *testing.T) {
	p := routingPrompt()
	for _, s := range registry.Specialties {
		assert.Contains(t, p, "- "+s.Name+": ")
	}
}
