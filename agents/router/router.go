// Package router picks the persona that answers a chat turn.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/llm"
	"github.com/agenthub-x/agenthub/logger"
)

var decisionSchema = llm.MustSchema("routing", `{
	"type": "object",
	"required": ["selected_agents"],
	"properties": {
		"selected_agents": {"type": "array", "items": {"type": "string"}},
		"analysis": {"type": "string"},
		"requires_collaboration": {"type": "boolean"}
	}
}`)

type classification struct {
	SelectedAgents        []string `json:"selected_agents"`
	Analysis              string   `json:"analysis"`
	RequiresCollaboration bool     `json:"requires_collaboration"`
}

// Decision is the outcome of routing one message
type Decision struct {
	Persona registry.Persona
	// Candidates as ranked by the classifier; empty for explicit picks.
	Candidates []string
	Analysis   string
	Explicit   bool
	Fallback   bool
}

// Router selects a persona by explicit name or LLM classification.
type Router struct {
	reg    *registry.Registry
	client llm.Client
	log    *logger.Logger
}

// New creates a router. A nil client routes everything to the hub.
func New(reg *registry.Registry, client llm.Client, log *logger.Logger) *Router {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Router{reg: reg, client: client, log: log.WithField("component", "router")}
}

// Route never fails: classification errors fall back to the hub persona.
func (r *Router) Route(ctx context.Context, message, explicit string) Decision {
	if explicit != "" && explicit != registry.HubName {
		if p, ok := r.reg.Get(explicit); ok {
			return Decision{Persona: p, Explicit: true}
		}
		r.log.Warnf("unknown persona %q requested, classifying instead", explicit)
	}

	var out classification
	if err := llm.CompleteStructured(ctx, r.client, routingPrompt(), message, decisionSchema, &out); err != nil {
		r.log.Warnf("routing classification failed: %v", err)
		return r.fallback(nil, "")
	}

	for _, name := range out.SelectedAgents {
		name = strings.TrimSpace(name)
		if name == registry.HubName {
			break
		}
		if p, ok := r.reg.Get(name); ok {
			r.log.Debugf("routed to %s", name)
			return Decision{Persona: p, Candidates: out.SelectedAgents, Analysis: out.Analysis}
		}
	}
	return r.fallback(out.SelectedAgents, out.Analysis)
}

func (r *Router) fallback(candidates []string, analysis string) Decision {
	return Decision{Persona: r.reg.Hub(), Candidates: candidates, Analysis: analysis, Fallback: true}
}

func routingPrompt() string {
	var b strings.Builder
	b.WriteString("You are the AgentHub routing system. Analyze user requests and determine which specialized agent(s) should handle them.\n\nAvailable agents:\n")
	for _, s := range registry.Specialties {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Specialty)
	}
	b.WriteString(`
Respond with a JSON object:
{
  "selected_agents": ["AgentName1", "AgentName2"],
  "analysis": "Brief explanation of why these agents were selected",
  "requires_collaboration": true/false
}

If the request is general or unclear, use "AgentHub" as the selected agent.`)
	return b.String()
}
