package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agenthub-x/agenthub/internal/ledger"
	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/types"
)

var (
	ErrJobNotFound   = errors.New("marketplace: job not found")
	ErrAgentNotFound = errors.New("marketplace: agent not found")
)

// Job states
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Sources reported alongside results
const (
	SourceSimulation = "simulation"
	SourceAPI        = "sokosumi_api"
)

// DefaultRequester is used when a hire names no requester
const DefaultRequester = "AgentHub"

// Job is a unit of work performed by a hired agent
type Job struct {
	JobID               string                 `json:"job_id"`
	AgentID             string                 `json:"agent_id"`
	AgentName           string                 `json:"agent_name"`
	Task                string                 `json:"task"`
	Requester           string                 `json:"requester"`
	Status              string                 `json:"status"`
	CreatedAt           time.Time              `json:"created_at"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
	EstimatedCompletion string                 `json:"estimated_completion"`
	Cost                float64                `json:"cost"`
	Currency            string                 `json:"currency"`
	BlockchainTx        string                 `json:"blockchain_tx"`
	IsSimulated         bool                   `json:"is_simulated"`
	IsLive              bool                   `json:"is_live,omitempty"`
	Result              map[string]interface{} `json:"result,omitempty"`

	kind ResultKind
}

func (j *Job) clone() Job {
	cp := *j
	if j.Result != nil {
		cp.Result = make(map[string]interface{}, len(j.Result))
		for k, v := range j.Result {
			cp.Result[k] = v
		}
	}
	return cp
}

// AgentList is the reply of ListAgents
type AgentList struct {
	Success     bool    `json:"success"`
	IsLive      bool    `json:"is_live"`
	IsSimulated bool    `json:"is_simulated"`
	Agents      []Agent `json:"agents"`
	Total       int     `json:"total"`
	Source      string  `json:"source"`
}

// HireResult is the reply of Hire
type HireResult struct {
	Success     bool                   `json:"success"`
	IsLive      bool                   `json:"is_live"`
	IsSimulated bool                   `json:"is_simulated"`
	Job         Job                    `json:"job"`
	Source      string                 `json:"source"`
	Activities  []types.ActivityRecord `json:"activities,omitempty"`
}

// Account is the marketplace account summary
type Account struct {
	CreditsBalance float64   `json:"credits_balance"`
	Currency       string    `json:"currency"`
	Plan           string    `json:"plan"`
	JobsCompleted  int       `json:"jobs_completed"`
	MemberSince    time.Time `json:"member_since"`
}

// Status describes the marketplace connection
type Status struct {
	IsLive    bool   `json:"is_live"`
	APIURL    string `json:"api_url"`
	HasAPIKey bool   `json:"has_api_key"`
}

// Marketplace owns the job table. Live calls go through client when set;
// any live failure falls back to the simulation.
type Marketplace struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	order  []string
	client *Client
	now    func() time.Time
	log    *logger.Logger
}

// New creates a marketplace. client may be nil for simulation only.
func New(client *Client, log *logger.Logger) *Marketplace {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Marketplace{
		jobs:   make(map[string]*Job),
		client: client,
		now:    time.Now,
		log:    log.WithField("component", "marketplace"),
	}
}

// IsLive reports whether the live passthrough is configured
func (m *Marketplace) IsLive() bool { return m.client != nil }

// Status describes the connection
func (m *Marketplace) Status() Status {
	s := Status{APIURL: DefaultBaseURL}
	if m.client != nil {
		s.IsLive = true
		s.APIURL = m.client.BaseURL
		s.HasAPIKey = m.client.APIKey != ""
	}
	return s
}

// ListAgents filters the catalog by category (case-insensitive) and caps
// the result at limit. Total counts the filtered set before capping.
func (m *Marketplace) ListAgents(ctx context.Context, category string, limit int) AgentList {
	if limit <= 0 {
		limit = 10
	}
	if m.client != nil {
		agents, err := m.client.ListAgents(ctx, category, limit)
		if err == nil {
			return AgentList{Success: true, IsLive: true, Agents: agents, Total: len(agents), Source: SourceAPI}
		}
		m.log.Warnf("list agents: live call failed, using simulation: %v", err)
	}

	var agents []Agent
	for _, a := range catalog {
		if category == "" || strings.EqualFold(a.Category, category) {
			agents = append(agents, a)
		}
	}
	total := len(agents)
	if len(agents) > limit {
		agents = agents[:limit]
	}
	return AgentList{Success: true, IsSimulated: true, Agents: agents, Total: total, Source: SourceSimulation}
}

// GetAgent returns one agent
func (m *Marketplace) GetAgent(ctx context.Context, id string) (Agent, bool, error) {
	if m.client != nil {
		a, err := m.client.GetAgent(ctx, id)
		if err == nil {
			return a, true, nil
		}
		m.log.Warnf("get agent %s: live call failed, using simulation: %v", id, err)
	}
	a, ok := lookup(id)
	if !ok {
		return Agent{}, false, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return a, false, nil
}

// Hire creates a job in processing state.
func (m *Marketplace) Hire(ctx context.Context, agentID, task, requester string) (HireResult, error) {
	if requester == "" {
		requester = DefaultRequester
	}
	if m.client != nil {
		job, err := m.client.CreateJob(ctx, agentID, task, requester)
		if err == nil {
			job.IsLive = true
			if job.JobID == "" {
				job.JobID = newJobID()
			}
			m.store(&job)
			return HireResult{Success: true, IsLive: true, Job: job, Source: SourceAPI}, nil
		}
		m.log.Warnf("hire %s: live call failed, using simulation: %v", agentID, err)
	}

	agent, ok := lookup(agentID)
	if !ok {
		return HireResult{}, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}

	jobID := newJobID()
	job := &Job{
		JobID:               jobID,
		AgentID:             agent.ID,
		AgentName:           agent.Name,
		Task:                task,
		Requester:           requester,
		Status:              JobProcessing,
		CreatedAt:           m.now(),
		EstimatedCompletion: agent.ResponseTimeAvg,
		Cost:                agent.Pricing.PerTask,
		Currency:            agent.Pricing.Currency,
		BlockchainTx:        "tx_masumi_" + ledger.DeterministicHex(jobID, 16),
		IsSimulated:         true,
		kind:                agent.Kind,
	}
	m.store(job)

	ts := m.now().UTC().Format(time.RFC3339)
	cost := fmt.Sprintf("$%.2f USD", agent.Pricing.PerTask)
	return HireResult{
		Success:     true,
		IsSimulated: true,
		Job:         job.clone(),
		Source:      SourceSimulation,
		Activities: []types.ActivityRecord{
			{
				Type:        types.ActivitySokosumiHire,
				Title:       "Hiring " + agent.Name,
				Description: "Initiating task via Sokosumi marketplace",
				Details: map[string]interface{}{
					"agent_id":  agent.ID,
					"agent_did": agent.DID,
					"cost":      cost,
					"job_id":    jobID,
				},
				Status:      "pending",
				IsSimulated: true,
				Timestamp:   ts,
			},
			{
				Type:        "masumi_payment",
				Title:       "Payment Initiated",
				Description: "Masumi Network payment processing",
				Details: map[string]interface{}{
					"amount":  cost,
					"network": "Masumi/Cardano",
					"tx_hash": job.BlockchainTx,
				},
				Status:      "processing",
				IsSimulated: true,
				Timestamp:   ts,
			},
		},
	}, nil
}

func (m *Marketplace) store(j *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[j.JobID]; !exists {
		m.order = append(m.order, j.JobID)
	}
	m.jobs[j.JobID] = j
}

// JobStatus returns the job, completing a processing simulated job on
// this read. Later reads return the same result.
func (m *Marketplace) JobStatus(ctx context.Context, jobID string) (Job, error) {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	live := ok && j.IsLive
	m.mu.Unlock()

	if live && m.client != nil {
		remote, err := m.client.GetJob(ctx, jobID)
		if err == nil {
			m.mu.Lock()
			mergeLive(j, remote)
			out := j.clone()
			m.mu.Unlock()
			return out, nil
		}
		m.log.Warnf("job %s: live status failed: %v", jobID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok = m.jobs[jobID]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if j.Status == JobProcessing {
		now := m.now()
		j.Status = JobCompleted
		j.CompletedAt = &now
		j.Result = simulatedResult(j.kind, j.Task)
	}
	return j.clone(), nil
}

func mergeLive(dst *Job, src Job) {
	if src.Status != "" {
		dst.Status = src.Status
	}
	if src.Result != nil {
		dst.Result = src.Result
	}
	if src.CompletedAt != nil {
		dst.CompletedAt = src.CompletedAt
	}
}

// ListJobs returns all jobs in creation order
func (m *Marketplace) ListJobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.jobs[id].clone())
	}
	return out
}

// Account returns the account summary
func (m *Marketplace) Account(ctx context.Context) (Account, bool) {
	if m.client != nil {
		a, err := m.client.Account(ctx)
		if err == nil {
			return a, true
		}
		m.log.Warnf("account: live call failed, using simulation: %v", err)
	}
	return Account{
		CreditsBalance: 30.00,
		Currency:       "USD",
		Plan:           "free_tier",
		MemberSince:    m.now(),
	}, false
}

// Categories returns the distinct catalog categories, sorted
func Categories() []string {
	seen := map[string]struct{}{}
	for _, a := range catalog {
		seen[a.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func newJobID() string {
	return "job_" + ledger.HexID(8)
}
