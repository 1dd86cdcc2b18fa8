// Package activity fabricates the blockchain timeline shown next to each
// agent reply. Records are display only; hashes and counts are fresh
// random values on every call.
package activity

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/internal/ledger"
	"github.com/agenthub-x/agenthub/types"
)

// ADAUSD is the display conversion rate
const ADAUSD = 0.45

// Capabilities records which ledger integrations are live
type Capabilities struct {
	MasumiLive  bool
	HydraLive   bool
	CardanoLive bool
}

// Simulation is true when no integration is live
func (c Capabilities) Simulation() bool {
	return !(c.MasumiLive || c.HydraLive || c.CardanoLive)
}

// HireRecord is one marketplace hire to show on the timeline
type HireRecord struct {
	AgentID     string
	AgentName   string
	Task        string
	JobID       string
	Cost        float64
	IsSimulated bool
}

// Synthesizer builds activity sequences
type Synthesizer struct {
	reg     *registry.Registry
	caps    Capabilities
	network string
	masumi  string

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New builds a synthesizer. cardanoNetwork and masumiURL are echoed in
// records and the network status.
func New(reg *registry.Registry, caps Capabilities, cardanoNetwork, masumiURL string) *Synthesizer {
	return &Synthesizer{
		reg:     reg,
		caps:    caps,
		network: cardanoNetwork,
		masumi:  masumiURL,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// SimulationMode reports the global simulation flag
func (s *Synthesizer) SimulationMode() bool { return s.caps.Simulation() }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (s *Synthesizer) record(typ, title, desc, status string, details map[string]interface{}) types.ActivityRecord {
	return types.ActivityRecord{
		Type:        typ,
		Title:       title,
		Description: desc,
		Details:     details,
		Status:      status,
		IsSimulated: s.caps.Simulation(),
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
	}
}

// Synthesize returns the ordered sequence for one reply: verification,
// payment, an optional discovery/hire/payment triplet when collaborated,
// audit and reputation.
func (s *Synthesizer) Synthesize(persona, userMessage string, collaborated bool) []types.ActivityRecord {
	sim := s.caps.Simulation()
	prof := s.reg.Profile(persona, sim)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []types.ActivityRecord{
		s.record(types.ActivityMasumiVerification, "DID Verification", fmt.Sprintf("Verified %s on Masumi Network", persona), "confirmed",
			map[string]interface{}{
				"did":          prof.DID,
				"reputation":   num(prof.ReputationScore) + "/5.0",
				"transactions": prof.TotalTransactions,
				"verified":     prof.Verified,
			}),
		s.record(types.ActivityHydraPayment, "Hydra L2 Micropayment", fmt.Sprintf("Instant payment to %s", persona), "confirmed",
			map[string]interface{}{
				"amount":    num(prof.FeePerRequest) + " ADA",
				"usd_value": fmt.Sprintf("$%.3f", prof.FeePerRequest*ADAUSD),
				"tx_hash":   ledger.HexID(16) + "...",
				"finality":  "<1 second",
				"layer":     "Hydra L2",
			}),
	}

	if collaborated {
		collaborators := registry.Collaborators(persona)
		if len(collaborators) > 0 && s.rng.Float64() > 0.5 {
			hired := collaborators[s.rng.Intn(len(collaborators))]
			out = append(out, s.collaborationTriplet(persona, hired, sim)...)
		}
	}

	out = append(out,
		s.record(types.ActivityCardanoAudit, "Cardano L1 Decision Log", "Action logged on-chain for audit", "confirmed",
			map[string]interface{}{
				"action":        "Agent response to user query",
				"block_hash":    ledger.HexID(16) + "...",
				"confirmations": 1 + s.rng.Intn(3),
				"network":       s.network,
			}),
		s.record(types.ActivityReputationUpdate, "Reputation Update", fmt.Sprintf("Updated %s reputation on Masumi", persona), "pending",
			map[string]interface{}{
				"agent":              persona,
				"did":                prof.DID,
				"new_score":          fmt.Sprintf("%.2f", math.Min(5.0, prof.ReputationScore+0.01)),
				"total_transactions": prof.TotalTransactions + 1,
			}),
	)
	return out
}

// caller holds s.mu
func (s *Synthesizer) collaborationTriplet(persona, hired string, sim bool) []types.ActivityRecord {
	hp := s.reg.Profile(hired, sim)
	domain := "assistance"
	if len(hp.Services) > 0 {
		domain = hp.Services[0]
	}
	fee := num(hp.FeePerRequest) + " ADA"
	return []types.ActivityRecord{
		s.record(types.ActivityMasumiDiscovery, "Masumi Agent Discovery", "Searching for specialized agent...", "completed",
			map[string]interface{}{
				"query_domain":   domain,
				"min_reputation": "4.0",
				"results_found":  2 + s.rng.Intn(4),
			}),
		s.record(types.ActivityAgentHiring, "Agent Collaboration", fmt.Sprintf("%s hired @%s", persona, hired), "confirmed",
			map[string]interface{}{
				"hired_agent": hired,
				"hired_did":   hp.DID,
				"reputation":  num(hp.ReputationScore) + "/5.0",
				"service_fee": fee,
			}),
		s.record(types.ActivityHydraPayment, "Agent-to-Agent Payment", fmt.Sprintf("Payment: %s → %s", persona, hired), "confirmed",
			map[string]interface{}{
				"from":    persona,
				"to":      hired,
				"amount":  fee,
				"tx_hash": ledger.HexID(16) + "...",
				"channel": "Hydra L2",
			}),
	}
}

// HireRecords renders one sokosumi_hire record per marketplace hire
func (s *Synthesizer) HireRecords(hires []HireRecord) []types.ActivityRecord {
	out := make([]types.ActivityRecord, 0, len(hires))
	for _, h := range hires {
		task := []rune(h.Task)
		if len(task) > 50 {
			task = task[:50]
		}
		r := s.record(types.ActivitySokosumiHire, "Hired "+h.AgentName, fmt.Sprintf("Task: %s...", string(task)), "confirmed",
			map[string]interface{}{
				"agent_id":       h.AgentID,
				"job_id":         h.JobID,
				"cost_usd":       h.Cost,
				"payment_method": "Hydra L2",
				"is_simulated":   h.IsSimulated,
			})
		r.IsSimulated = h.IsSimulated
		out = append(out, r)
	}
	return out
}
