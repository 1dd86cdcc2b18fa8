// Package collaboration decides whether a persona should hire marketplace
// agents for a turn, hires them one at a time and renders their results as
// extra prompt context.
package collaboration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agenthub-x/agenthub/internal/marketplace"
	"github.com/agenthub-x/agenthub/llm"
	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/types"
)

const (
	// MinConfidence is the lowest analysis confidence that leads to hiring
	MinConfidence = 0.3
	// MaxHires caps recommendations acted on per turn
	MaxHires = 3

	catalogLimit = 20
)

// Emitter receives progress events. Implementations must not block.
type Emitter interface {
	Emit(eventType string, data map[string]interface{})
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(eventType string, data map[string]interface{})

// Emit calls f
func (f EmitterFunc) Emit(eventType string, data map[string]interface{}) { f(eventType, data) }

// Recommendation is one agent the analysis suggests hiring
type Recommendation struct {
	AgentID         string `json:"agent_id"`
	AgentName       string `json:"agent_name"`
	TaskDescription string `json:"task_description"`
	Priority        *int   `json:"priority,omitempty"`
}

func (r Recommendation) rank() int {
	if r.Priority == nil {
		return int(^uint(0) >> 1)
	}
	return *r.Priority
}

// Analysis is the structured reply of the need analysis
type Analysis struct {
	NeedsCollaboration bool             `json:"needs_collaboration"`
	Confidence         float64          `json:"confidence"`
	Reason             string           `json:"reason"`
	RecommendedAgents  []Recommendation `json:"recommended_agents"`
	Strategy           string           `json:"collaboration_strategy"`
}

// JobResult is the outcome of one hire
type JobResult struct {
	AgentID         string                 `json:"agent_id"`
	AgentName       string                 `json:"agent_name"`
	TaskDescription string                 `json:"task_description"`
	JobID           string                 `json:"job_id,omitempty"`
	Status          string                 `json:"status"`
	Result          map[string]interface{} `json:"result,omitempty"`
	Transaction     string                 `json:"transaction,omitempty"`
	Cost            float64                `json:"cost"`
	IsSimulated     bool                   `json:"is_simulated"`
	Error           string                 `json:"error,omitempty"`
}

// Outcome is what Collaborate returns. Occurred is true once any hire was
// attempted, or when hiring was recommended with autoHire off.
type Outcome struct {
	Occurred bool
	Results  []JobResult
	Context  string
}

// Stats counts orchestrator activity since start
type Stats struct {
	Analyses       int64 `json:"analyses"`
	Collaborations int64 `json:"collaborations"`
	Hires          int64 `json:"hires"`
	FailedHires    int64 `json:"failed_hires"`
	Skipped        int64 `json:"skipped_recommendations"`
}

// Orchestrator runs the analyse, hire, summarise cycle.
type Orchestrator struct {
	market  *marketplace.Marketplace
	client  llm.Client
	emitter Emitter
	delay   time.Duration
	log     *logger.Logger

	analyses, collaborations, hires, failed, skipped atomic.Int64
}

// New creates an orchestrator. emitter may be nil; delay paces the
// progress events of each hire.
func New(market *marketplace.Marketplace, client llm.Client, emitter Emitter, delay time.Duration, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{
		market:  market,
		client:  client,
		emitter: emitter,
		delay:   delay,
		log:     log.WithField("component", "collaboration"),
	}
}

// Stats returns a snapshot of the counters
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Analyses:       o.analyses.Load(),
		Collaborations: o.collaborations.Load(),
		Hires:          o.hires.Load(),
		FailedHires:    o.failed.Load(),
		Skipped:        o.skipped.Load(),
	}
}

func (o *Orchestrator) emit(eventType string, data map[string]interface{}) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(eventType, data)
}

func (o *Orchestrator) pause(ctx context.Context) {
	if o.delay <= 0 {
		return
	}
	t := time.NewTimer(o.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Analyze asks the classifier whether persona needs outside help
func (o *Orchestrator) Analyze(ctx context.Context, persona, message string) (Analysis, error) {
	o.analyses.Add(1)
	agents := o.market.ListAgents(ctx, "", catalogLimit).Agents

	var a Analysis
	err := llm.CompleteStructured(ctx, o.client, analysisPrompt(persona, agents), "User request: "+message, analysisSchema, &a)
	if err != nil {
		return Analysis{}, fmt.Errorf("collaboration analysis: %w", err)
	}
	return a, nil
}

// Collaborate never fails; analysis errors mean no collaboration.
func (o *Orchestrator) Collaborate(ctx context.Context, persona, message string, autoHire bool) Outcome {
	analysis, err := o.Analyze(ctx, persona, message)
	if err != nil {
		if !errors.Is(err, llm.ErrLLMDisabled) {
			o.log.Warnf("%s: %v", persona, err)
		}
		return Outcome{}
	}

	recs := Select(analysis)
	if len(recs) == 0 {
		return Outcome{}
	}

	if !autoHire {
		names := make([]string, len(recs))
		for i, r := range recs {
			names[i] = r.AgentName
		}
		return Outcome{Occurred: true, Context: "Collaboration recommended with: " + strings.Join(names, ", ")}
	}

	results := o.Hire(ctx, persona, message, recs)
	if len(results) == 0 {
		return Outcome{}
	}
	o.collaborations.Add(1)
	return Outcome{Occurred: true, Results: results, Context: RenderContext(results)}
}

// Select applies the decision policy to an analysis: nothing below
// MinConfidence, otherwise at most MaxHires by ascending priority.
func Select(a Analysis) []Recommendation {
	if !a.NeedsCollaboration || a.Confidence < MinConfidence || len(a.RecommendedAgents) == 0 {
		return nil
	}
	recs := append([]Recommendation(nil), a.RecommendedAgents...)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].rank() < recs[j].rank() })
	if len(recs) > MaxHires {
		recs = recs[:MaxHires]
	}
	return recs
}

// Hire runs each recommendation sequentially. Recommendations whose agent
// cannot be resolved are skipped and only counted.
func (o *Orchestrator) Hire(ctx context.Context, persona, message string, recs []Recommendation) []JobResult {
	var results []JobResult
	o.emit(types.EventCollaborationStart, map[string]interface{}{
		"hiring_agent": persona,
		"agent_count":  len(recs),
	})

	for i, rec := range recs {
		agentID, cost, ok := resolve(rec)
		if !ok {
			o.skipped.Add(1)
			o.log.Warnf("%s: skipping recommendation %q, no marketplace id", persona, rec.AgentName)
			continue
		}
		name := rec.AgentName
		if name == "" {
			name = "Unknown Agent"
		}
		task := rec.TaskDescription
		if task == "" {
			task = message
		}
		o.hires.Add(1)

		o.emit(types.EventAgentHiring, map[string]interface{}{
			"agent_name":   name,
			"agent_id":     agentID,
			"task":         task,
			"cost":         cost,
			"hiring_agent": persona,
			"index":        i,
		})
		o.pause(ctx)

		hired, err := o.market.Hire(ctx, agentID, task, persona)
		if err != nil {
			o.failed.Add(1)
			o.log.Warnf("%s: hire %s failed: %v", persona, agentID, err)
			results = append(results, JobResult{
				AgentID: agentID, AgentName: name, TaskDescription: task,
				Status: marketplace.JobFailed, IsSimulated: true, Error: err.Error(),
			})
			o.emit(types.EventAgentCompleted, map[string]interface{}{
				"agent_name": name, "agent_id": agentID, "status": marketplace.JobFailed, "cost": 0.0, "index": i,
			})
			continue
		}

		o.emit(types.EventAgentWorking, map[string]interface{}{
			"agent_name": name,
			"agent_id":   agentID,
			"job_id":     hired.Job.JobID,
			"task":       task,
			"status":     hired.Job.Status,
			"index":      i,
		})
		o.pause(ctx)

		res := JobResult{
			AgentID:         agentID,
			AgentName:       name,
			TaskDescription: task,
			JobID:           hired.Job.JobID,
			Status:          hired.Job.Status,
			Transaction:     hired.Job.BlockchainTx,
			Cost:            cost,
			IsSimulated:     hired.IsSimulated,
		}
		if res.Cost == 0 {
			res.Cost = hired.Job.Cost
		}
		if job, err := o.market.JobStatus(ctx, hired.Job.JobID); err != nil {
			o.log.Warnf("job %s status: %v", hired.Job.JobID, err)
		} else {
			res.Status = job.Status
			res.Result = job.Result
		}
		results = append(results, res)

		o.emit(types.EventAgentCompleted, map[string]interface{}{
			"agent_name":     name,
			"agent_id":       agentID,
			"job_id":         res.JobID,
			"status":         res.Status,
			"cost":           res.Cost,
			"result_preview": preview(res.Result),
			"index":          i,
		})
	}

	summary := Summarize(results)
	o.emit(types.EventCollaborationComplete, map[string]interface{}{
		"hiring_agent":   persona,
		"agents_hired":   summary.AgentsHired,
		"total_cost_usd": summary.TotalCostUSD,
	})
	return results
}

// resolve finds the marketplace id and catalog price of a recommendation
func resolve(rec Recommendation) (id string, cost float64, ok bool) {
	byName, named := marketplace.FindByName(rec.AgentName)
	if rec.AgentID != "" {
		if named && byName.ID == rec.AgentID {
			return rec.AgentID, byName.Pricing.PerTask, true
		}
		return rec.AgentID, 0, true
	}
	if named {
		return byName.ID, byName.Pricing.PerTask, true
	}
	return "", 0, false
}

func preview(result map[string]interface{}) string {
	for _, k := range []string{"summary", "overall_sentiment", "analysis"} {
		if v, ok := result[k]; ok {
			s := fmt.Sprint(v)
			if r := []rune(s); len(r) > 100 {
				s = string(r[:100]) + "..."
			}
			return s
		}
	}
	return ""
}

// Summarize builds the response summary. Nil when nothing was hired.
func Summarize(results []JobResult) *types.CollaborationSummary {
	if len(results) == 0 {
		return nil
	}
	s := &types.CollaborationSummary{
		Collaborated:  true,
		AgentsHired:   len(results),
		PaymentMethod: "Hydra L2 Micropayment",
		IsSimulated:   true,
		Agents:        make([]types.HiredAgentSummary, 0, len(results)),
	}
	for _, r := range results {
		s.TotalCostUSD += r.Cost
		if r.Status != marketplace.JobFailed {
			s.SuccessfulHires++
		}
		if !r.IsSimulated {
			s.IsSimulated = false
		}
		s.Agents = append(s.Agents, types.HiredAgentSummary{
			Name: r.AgentName, Task: r.TaskDescription, Status: r.Status,
			JobID: r.JobID, Cost: r.Cost, IsSimulated: r.IsSimulated,
		})
	}
	return s
}
