package activity

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/types"
)

// fixedSource pins every draw to one value.
type fixedSource struct{ v int64 }

func (f fixedSource) Int63() int64 { return f.v }
func (f fixedSource) Seed(int64)   {}

func newSynth(v int64) *Synthesizer {
	s := New(registry.New(), Capabilities{}, "preprod", "https://masumi-testnet.io")
	s.rng = rand.New(fixedSource{v})
	s.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func typesOf(rs []types.ActivityRecord) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Type
	}
	return out
}

func TestSequenceWithoutCollaboration(t *testing.T) {
	s := newSynth(1 << 62)
	got := typesOf(s.Synthesize("TradeMind", "hi", false))
	want := []string{
		types.ActivityMasumiVerification,
		types.ActivityHydraPayment,
		types.ActivityCardanoAudit,
		types.ActivityReputationUpdate,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceWithCollaborationTriplet(t *testing.T) {
	// Int63 of 3<<61 makes Float64 return 0.75
	s := newSynth(3 << 61)
	rs := s.Synthesize("YieldMaximizer", "optimize", true)
	want := []string{
		types.ActivityMasumiVerification,
		types.ActivityHydraPayment,
		types.ActivityMasumiDiscovery,
		types.ActivityAgentHiring,
		types.ActivityHydraPayment,
		types.ActivityCardanoAudit,
		types.ActivityReputationUpdate,
	}
	if diff := cmp.Diff(want, typesOf(rs)); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
	hired := rs[3].Details["hired_agent"]
	assert.Contains(t, registry.Collaborators("YieldMaximizer"), hired)
	assert.Equal(t, "Agent-to-Agent Payment", rs[4].Title)
}

func TestLowRollSkipsTriplet(t *testing.T) {
	s := newSynth(0)
	assert.Len(t, s.Synthesize("YieldMaximizer", "optimize", true), 4)
}

func TestVerificationAndReputationDetails(t *testing.T) {
	s := newSynth(0)
	rs := s.Synthesize("YieldMaximizer", "x", false)

	v := rs[0]
	assert.Equal(t, "4.8/5.0", v.Details["reputation"])
	assert.Equal(t, true, v.Details["verified"])
	assert.True(t, v.IsSimulated)

	pay := rs[1]
	assert.Equal(t, "0.1 ADA", pay.Details["amount"])
	assert.Equal(t, "$0.045", pay.Details["usd_value"])
	assert.Len(t, pay.Details["tx_hash"], 19)

	rep := rs[3]
	assert.Equal(t, "4.81", rep.Details["new_score"])
	assert.Equal(t, 1835, rep.Details["total_transactions"])
	assert.Equal(t, "pending", rep.Status)
}

func TestHubUsesFallbackProfile(t *testing.T) {
	s := newSynth(0)
	rs := s.Synthesize(registry.HubName, "x", true)
	require.Len(t, rs, 4)
	assert.Equal(t, "4.5/5.0", rs[0].Details["reputation"])
	assert.Equal(t, false, rs[0].Details["verified"])
}

func TestHireRecords(t *testing.T) {
	s := newSynth(0)
	rs := s.HireRecords([]HireRecord{{
		AgentID: "sok_agent_seo_analyst_001", AgentName: "SEO Insight Analyzer",
		Task: "Audit the landing page keywords and backlinks for the spring campaign launch",
		JobID: "job_1", Cost: 3, IsSimulated: true,
	}})
	require.Len(t, rs, 1)
	assert.Equal(t, "Hired SEO Insight Analyzer", rs[0].Title)
	assert.Equal(t, "Task: Audit the landing page keywords and backlinks for ...", rs[0].Description)
	assert.Equal(t, "Hydra L2", rs[0].Details["payment_method"])
}

func TestNetworkStatus(t *testing.T) {
	s := newSynth(0)
	st := s.NetworkStatus()
	assert.True(t, st.IsSimulationMode)
	assert.Equal(t, "simulated", st.Masumi.Status)
	assert.Equal(t, 8, st.Masumi.RegisteredAgents)
	assert.Equal(t, 1247+892+2103+1567+3421+987+1834+1256, st.Masumi.TotalTransactions)
	assert.GreaterOrEqual(t, st.Hydra.ActiveChannels, 3)
	assert.Contains(t, st.Message, "Add API keys")

	live := New(registry.New(), Capabilities{CardanoLive: true}, "mainnet", "")
	lst := live.NetworkStatus()
	assert.False(t, lst.IsSimulationMode)
	assert.False(t, lst.Cardano.IsSimulated)
	assert.True(t, lst.Masumi.IsSimulated)
	assert.Equal(t, "Connected to live Cardano ecosystem", lst.Message)
}
