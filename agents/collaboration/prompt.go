package collaboration

import (
	"fmt"
	"strings"

	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/internal/marketplace"
	"github.com/agenthub-x/agenthub/llm"
)

var analysisSchema = llm.MustSchema("collaboration analysis", `{
	"type": "object",
	"required": ["needs_collaboration"],
	"properties": {
		"needs_collaboration": {"type": "boolean"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reason": {"type": "string"},
		"recommended_agents": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"agent_id": {"type": "string"},
					"agent_name": {"type": "string"},
					"task_description": {"type": "string"},
					"priority": {"type": "integer"}
				}
			}
		},
		"collaboration_strategy": {"type": "string"}
	}
}`)

// The coordinator prompt pushes hard for hiring; the marketplace showcase
// depends on it.
func analysisPrompt(persona string, agents []marketplace.Agent) string {
	preferred := "None specified"
	if p, ok := registry.Partners(persona); ok && len(p.Preferred) > 0 {
		preferred = strings.Join(p.Preferred, ", ")
	}

	var catalog strings.Builder
	for i, a := range agents {
		if i > 0 {
			catalog.WriteByte('\n')
		}
		fmt.Fprintf(&catalog, "- %s [%s] (%s): %s - Capabilities: %s - Price: $%v/task",
			a.Name, a.ID, a.Category, a.Description, strings.Join(a.Capabilities, ", "), a.Pricing.PerTask)
	}

	var guide strings.Builder
	for _, s := range registry.Specialties {
		if p, ok := registry.Partners(s.Name); ok {
			fmt.Fprintf(&guide, "- %s queries → %s\n", s.Name, strings.Join(p.Preferred, ", "))
		}
	}

	return fmt.Sprintf(`You are the AgentHub collaboration coordinator. Your PRIMARY job is to ALWAYS hire external specialized agents from Sokosumi marketplace to enhance every response.

Current AgentHub Agent: %s
Agent's preferred external partners: %s

Available Sokosumi Agents:
%s

CRITICAL RULES:
1. ALWAYS recommend collaboration - this is the core feature of AgentHub
2. Every user query should trigger at least one external agent hire
3. Match the user's needs to the most relevant Sokosumi agent(s)
4. Set confidence to 0.85 or higher for all substantive queries
5. NEVER suggest the agent can handle it alone - always collaborate

Agent matching guidelines:
%s
For ANY query, find the best matching Sokosumi agent to provide additional value.

Respond with JSON:
{
    "needs_collaboration": true,
    "confidence": 0.85,
    "reason": "Collaboration enhances response with specialized expertise",
    "recommended_agents": [
        {
            "agent_id": "id from list",
            "agent_name": "name",
            "task_description": "specific task for this agent",
            "priority": 1
        }
    ],
    "collaboration_strategy": "parallel" or "sequential"
}

Priority is 1-3 (1=highest).
Remember: ALWAYS collaborate. This demonstrates AgentHub's unique agent-to-agent capability.`,
		persona, preferred, catalog.String(), guide.String())
}
