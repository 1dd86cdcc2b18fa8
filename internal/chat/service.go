// Package chat runs one conversation turn: route, collaborate, compose,
// synthesize activity and persist.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agenthub-x/agenthub/agents/collaboration"
	"github.com/agenthub-x/agenthub/agents/composer"
	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/agents/router"
	"github.com/agenthub-x/agenthub/internal/activity"
	"github.com/agenthub-x/agenthub/internal/cardano"
	"github.com/agenthub-x/agenthub/internal/ledger"
	"github.com/agenthub-x/agenthub/internal/masumi"
	"github.com/agenthub-x/agenthub/llm"
	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/types"
)

// ErrInvalidRequest is returned for requests missing required fields
var ErrInvalidRequest = errors.New("conversationId and message are required")

// Gateway is the persistence the pipeline writes through
type Gateway interface {
	CreateMessage(ctx context.Context, m types.Message) (types.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]types.Message, error)
	GetAgent(ctx context.Context, id string) (types.Agent, error)
	GetAgentByName(ctx context.Context, name string) (types.Agent, error)
	IncrementAgentUsage(ctx context.Context, id string) error
	CreateTransaction(ctx context.Context, t types.Transaction) (types.Transaction, error)
	CreateDecisionLog(ctx context.Context, d types.DecisionLog) (types.DecisionLog, error)
}

// Collaborator hires marketplace agents for a persona
type Collaborator interface {
	Collaborate(ctx context.Context, persona, message string, autoHire bool) collaboration.Outcome
}

// Deps wires the pipeline
type Deps struct {
	Store        Gateway
	Registry     *registry.Registry
	Router       *router.Router
	Collaborator Collaborator
	Composer     *composer.Composer
	Activity     *activity.Synthesizer
	Cardano      *cardano.Service
	Masumi       *masumi.Service
	Log          *logger.Logger
}

// Service processes chat turns. Turns for different conversations may run
// concurrently.
type Service struct {
	store    Gateway
	reg      *registry.Registry
	router   *router.Router
	collab   Collaborator
	composer *composer.Composer
	synth    *activity.Synthesizer
	cardano  *cardano.Service
	masumi   *masumi.Service
	log      *logger.Logger
	now      func() time.Time
}

// New builds the service
func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		store:    d.Store,
		reg:      d.Registry,
		router:   d.Router,
		collab:   d.Collaborator,
		composer: d.Composer,
		synth:    d.Activity,
		cardano:  d.Cardano,
		masumi:   d.Masumi,
		log:      log.WithField("component", "chat"),
		now:      time.Now,
	}
}

// Handle runs a turn. Only invalid input and a failure to store the user
// message return an error; every later failure degrades.
func (s *Service) Handle(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	if req.ConversationID == "" || req.Message == "" {
		return types.ChatResponse{}, ErrInvalidRequest
	}
	started := s.now()

	prior, err := s.store.ListMessages(ctx, req.ConversationID)
	if err != nil {
		s.log.Warnf("load history for %s: %v", req.ConversationID, err)
	}
	userMsg, err := s.store.CreateMessage(ctx, types.Message{
		ConversationID: req.ConversationID,
		Sender:         types.SenderUser,
		Content:        req.Message,
	})
	if err != nil {
		return types.ChatResponse{}, fmt.Errorf("store user message: %w", err)
	}

	decision := s.router.Route(ctx, req.Message, req.AgentName)
	persona := decision.Persona
	var agentID string
	if !decision.Fallback {
		if row, err := s.store.GetAgentByName(ctx, persona.Name); err == nil {
			agentID = row.ID
			if row.SystemPrompt != "" {
				persona.SystemPrompt = row.SystemPrompt
			}
		} else {
			s.log.Warnf("persona %s has no stored agent: %v", persona.Name, err)
		}
	}
	log := s.log.WithFields(map[string]interface{}{"conversation": req.ConversationID, "persona": persona.Name})

	var outcome collaboration.Outcome
	if req.CollaborationEnabled() && persona.Name != registry.HubName && s.collab != nil {
		outcome = s.collab.Collaborate(ctx, persona.Name, req.Message, true)
	}
	summary := collaboration.Summarize(outcome.Results)
	for _, r := range outcome.Results {
		s.logDecision(ctx, agentID, persona.Name, req.ConversationID, "Hired Sokosumi agent: "+r.AgentName, map[string]interface{}{
			"hired_agent":  r.AgentName,
			"task":         r.TaskDescription,
			"cost_usd":     r.Cost,
			"job_id":       r.JobID,
			"is_simulated": r.IsSimulated,
		})
		s.recordTransaction(ctx, types.Transaction{
			FromAgentID: agentID, FromAgentName: persona.Name, ToAgentName: r.AgentName,
			Amount: fmt.Sprintf("%.2f", r.Cost),
		})
	}

	reply, ok := s.composer.Compose(ctx, composer.Request{
		Persona:       persona.Name,
		SystemPrompt:  persona.SystemPrompt,
		Message:       req.Message,
		History:       toHistory(prior),
		Collaboration: outcome.Context,
	})

	agentMsg, err := s.store.CreateMessage(ctx, types.Message{
		ConversationID: req.ConversationID,
		Sender:         types.SenderAgent,
		AgentID:        agentID,
		AgentName:      persona.Name,
		Content:        reply,
	})
	if err != nil {
		log.Error("store agent message", err)
		agentMsg = types.Message{ConversationID: req.ConversationID, Sender: types.SenderAgent, AgentName: persona.Name, Content: reply, CreatedAt: s.now()}
	}

	if agentID != "" {
		if err := s.store.IncrementAgentUsage(ctx, agentID); err != nil {
			log.Warnf("increment usage: %v", err)
		}
		if err := s.reg.IncrementUsage(persona.Name); err != nil {
			log.Debugf("persona usage not counted: %v", err)
		}
		s.updateReputation(agentID, ok, s.now().Sub(started))
	}

	action := "Processed user request via LangGraph agent"
	var collabDetails interface{}
	if outcome.Occurred {
		action += " with Sokosumi collaboration"
		collabDetails = summary
	}
	s.logDecision(ctx, agentID, persona.Name, req.ConversationID, action, map[string]interface{}{
		"user_message":     clip(req.Message, 100),
		"agent":            persona.Name,
		"response_preview": clip(reply, 200),
		"collaboration":    collabDetails,
	})
	s.recordTransaction(ctx, types.Transaction{FromAgentName: "User", ToAgentName: persona.Name, ToAgentID: agentID})

	activities := s.synth.Synthesize(persona.Name, req.Message, outcome.Occurred)
	if len(outcome.Results) > 0 {
		hires := make([]activity.HireRecord, 0, len(outcome.Results))
		for _, r := range outcome.Results {
			hires = append(hires, activity.HireRecord{
				AgentID: r.AgentID, AgentName: r.AgentName, Task: r.TaskDescription,
				JobID: r.JobID, Cost: r.Cost, IsSimulated: r.IsSimulated,
			})
		}
		activities = append(activities, s.synth.HireRecords(hires)...)
	}

	if summary == nil {
		summary = &types.CollaborationSummary{}
	}
	log.Infof("turn answered in %s (collaborated=%t)", s.now().Sub(started).Round(time.Millisecond), outcome.Occurred)
	return types.ChatResponse{
		UserMessage:          &userMsg,
		AgentMessage:         &agentMsg,
		SelectedAgent:        persona.Name,
		BlockchainActivities: activities,
		AgentProfile:         s.synth.Profile(persona.Name),
		IsSimulationMode:     s.synth.SimulationMode(),
		Collaboration:        summary,
	}, nil
}

// DeployResult is returned by Deploy
type DeployResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TxHash  string `json:"txHash"`
}

// Deploy records that an agent was added to the user's workspace
func (s *Service) Deploy(ctx context.Context, agentID string) (DeployResult, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return DeployResult{}, err
	}
	d := s.logDecision(ctx, agent.ID, agent.Name, "", "Agent deployed to workspace", map[string]interface{}{
		"deployed_at": s.now().UTC().Format(time.RFC3339),
	})
	return DeployResult{Success: true, Message: agent.Name + " deployed successfully", TxHash: d.TxHash}, nil
}

func (s *Service) logDecision(ctx context.Context, agentID, agentName, conversationID, action string, details map[string]interface{}) types.DecisionLog {
	txHash := ledger.TxHash()
	if s.cardano != nil {
		if receipt, err := s.cardano.LogDecision(agentName, action, details); err == nil {
			txHash = receipt.TxHash
		} else {
			s.log.Warnf("anchor decision: %v", err)
		}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		s.log.Warnf("encode decision details: %v", err)
	}
	d, err := s.store.CreateDecisionLog(ctx, types.DecisionLog{
		AgentID:        agentID,
		AgentName:      agentName,
		Action:         action,
		Details:        string(raw),
		TxHash:         txHash,
		Status:         "confirmed",
		ConversationID: conversationID,
	})
	if err != nil {
		s.log.Error("store decision log", err)
		return types.DecisionLog{TxHash: txHash}
	}
	return d
}

func (s *Service) recordTransaction(ctx context.Context, t types.Transaction) {
	t.TxHash = ledger.TxHash()
	t.Status = "confirmed"
	if _, err := s.store.CreateTransaction(ctx, t); err != nil {
		s.log.Error("store transaction", err)
	}
}

func (s *Service) updateReputation(agentID string, success bool, took time.Duration) {
	if s.masumi == nil {
		return
	}
	if _, err := s.masumi.UpdateReputation("did:masumi:"+agentID, success, int(took.Milliseconds())); err != nil {
		s.log.Debugf("reputation update skipped: %v", err)
	}
}

// toHistory keeps the last HistoryWindow turns
func toHistory(msgs []types.Message) []llm.Message {
	if len(msgs) > composer.HistoryWindow {
		msgs = msgs[len(msgs)-composer.HistoryWindow:]
	}
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		role := llm.RoleAssistant
		if m.Sender == types.SenderUser {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
