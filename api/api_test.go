package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/agents/collaboration"
	"github.com/agenthub-x/agenthub/agents/composer"
	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/agents/router"
	"github.com/agenthub-x/agenthub/internal/activity"
	"github.com/agenthub-x/agenthub/internal/cardano"
	"github.com/agenthub-x/agenthub/internal/chat"
	"github.com/agenthub-x/agenthub/internal/hydra"
	"github.com/agenthub-x/agenthub/internal/ledger"
	"github.com/agenthub-x/agenthub/internal/marketplace"
	"github.com/agenthub-x/agenthub/internal/masumi"
	"github.com/agenthub-x/agenthub/internal/store"
	"github.com/agenthub-x/agenthub/types"
)

type fixedStats struct{ s collaboration.Stats }

func (f fixedStats) Stats() collaboration.Stats { return f.s }

type testServer struct {
	h      http.Handler
	store  *store.Store
	masumi *masumi.Service
}

// newTestServer wires every component in simulation mode with no LLM
func newTestServer(t *testing.T) testServer {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := registry.New()
	require.NoError(t, st.SeedAgents(context.Background(), reg.List()))

	signer, err := ledger.NewSigner()
	require.NoError(t, err)

	market := marketplace.New(nil, nil)
	card := cardano.New("preprod", nil, signer, nil)
	mas := masumi.New("https://masumi-testnet.io", nil, nil)
	synth := activity.New(reg, activity.Capabilities{}, "preprod", "https://masumi-testnet.io")
	orch := collaboration.New(market, nil, nil, 0, nil)

	svc := chat.New(chat.Deps{
		Store:        st,
		Registry:     reg,
		Router:       router.New(reg, nil, nil),
		Collaborator: orch,
		Composer:     composer.New(nil, nil),
		Activity:     synth,
		Cardano:      card,
		Masumi:       mas,
	})

	srv := New(Deps{
		Chat:          svc,
		Store:         st,
		Marketplace:   market,
		Hydra:         hydra.NewService(hydra.NewLedger(), nil, "http://localhost:4001", nil),
		Cardano:       card,
		Masumi:        mas,
		Activity:      synth,
		Collaboration: fixedStats{collaboration.Stats{Hires: 2, Skipped: 1}},
		Version:       "test",
	})
	return testServer{h: srv.Handler(), store: st, masumi: mas}
}

func (ts testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodOptions, "/api/chat", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestChatRequiresConversationAndMessage(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var e types.APIError
	decodeBody(t, rec, &e)
	assert.Equal(t, types.ErrCodeBadRequest, e.Code)
	assert.Equal(t, chat.ErrInvalidRequest.Error(), e.Message)
}

func TestChatTurnIsPersisted(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/chat", map[string]string{"conversationId": "conv-1", "message": "hello there"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp types.ChatResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, registry.HubName, resp.SelectedAgent)
	assert.True(t, resp.IsSimulationMode)
	assert.NotEmpty(t, resp.BlockchainActivities)

	rec = ts.do(t, http.MethodGet, "/api/conversations/conv-1/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []types.Message
	decodeBody(t, rec, &msgs)
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
	assert.Equal(t, types.SenderAgent, msgs[1].Sender)

	rec = ts.do(t, http.MethodGet, "/api/transactions?limit=5", nil)
	var txs []types.Transaction
	decodeBody(t, rec, &txs)
	require.NotEmpty(t, txs)
	assert.Equal(t, "User", txs[0].FromAgentName)
}

func TestAgentsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var agents []types.Agent
	decodeBody(t, rec, &agents)
	require.NotEmpty(t, agents)

	rec = ts.do(t, http.MethodGet, "/api/agents/"+agents[0].ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/agents/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/agents/"+agents[0].ID+"/deploy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dep chat.DeployResult
	decodeBody(t, rec, &dep)
	assert.True(t, dep.Success)
	assert.Equal(t, agents[0].Name+" deployed successfully", dep.Message)

	rec = ts.do(t, http.MethodPost, "/api/agents/missing/deploy", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateConversationDefaultsTitle(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/conversations", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var c types.Conversation
	decodeBody(t, rec, &c)
	assert.Equal(t, "New Conversation", c.Title)
	assert.NotEmpty(t, c.ID)

	rec = ts.do(t, http.MethodGet, "/api/conversations", nil)
	var list []types.Conversation
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)
}

func TestMetricsIncludeCollaborationStats(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var m map[string]interface{}
	decodeBody(t, rec, &m)
	assert.EqualValues(t, 7, m["systemLayers"])
	assert.Equal(t, "$0.000", m["totalCost"])
	collab, ok := m["collaboration"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 2, collab["hires"])
	assert.EqualValues(t, 1, collab["skipped_recommendations"])
}

func TestHydraChannelLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/blockchain/hydra/open-channel", map[string]string{"participantA": "alice", "participantB": "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	var open hydra.OpenResult
	decodeBody(t, rec, &open)
	assert.Equal(t, 200.0, open.Capacity)

	// default amount
	rec = ts.do(t, http.MethodPost, "/api/blockchain/hydra/payment", map[string]string{"channelId": open.ChannelID, "from": "alice", "to": "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	var pay hydra.PaymentResult
	decodeBody(t, rec, &pay)
	assert.InDelta(t, hydra.CostPerTx, pay.Amount, 1e-9)

	rec = ts.do(t, http.MethodPost, "/api/blockchain/hydra/payment", map[string]interface{}{"channelId": open.ChannelID, "from": "alice", "to": "bob", "amount": 200})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/hydra/channel/"+open.ChannelID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st hydra.ChannelStatus
	decodeBody(t, rec, &st)
	assert.Equal(t, 1, st.TransactionCount)
	assert.InDelta(t, 200.0, st.CurrentBalances["alice"]+st.CurrentBalances["bob"], 1e-9)

	rec = ts.do(t, http.MethodPost, "/api/blockchain/hydra/close-channel", map[string]string{"channelId": open.ChannelID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/blockchain/hydra/payment", map[string]string{"channelId": open.ChannelID, "from": "alice", "to": "bob"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/hydra/channel/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/hydra/transactions?channelId="+open.ChannelID, nil)
	var hist hydraHistory
	decodeBody(t, rec, &hist)
	assert.Equal(t, 1, hist.Total)
}

func TestHydraRejectsInvalidBalances(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/blockchain/hydra/open-channel", map[string]interface{}{"participantA": "a", "participantB": "b", "balanceA": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/hydra/estimate-fees?numTransactions=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockchainStatus(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/blockchain/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var st map[string]integrationStatus
	decodeBody(t, rec, &st)
	assert.False(t, st["cardano"].IsLive)
	assert.Equal(t, "preprod", st["cardano"].Network)
	assert.Equal(t, "HYDRA_API_KEY", st["hydra"].Requires)
	assert.Equal(t, "https://masumi-testnet.io", st["masumi"].NetworkURL)
}

func TestMasumiAgentProfile(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/blockchain/masumi/register", map[string]interface{}{
		"agentId": "a1", "name": "MailMind", "domain": "Business", "services": []string{"email"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/masumi/agent/did:masumi:a1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p agentProfileResponse
	decodeBody(t, rec, &p)
	assert.Equal(t, "MailMind", p.Name)
	assert.Equal(t, "did:masumi:a1", p.DIDDocument.ID)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/masumi/discover?domain=Business", nil)
	var d discoverResponse
	decodeBody(t, rec, &d)
	assert.Equal(t, 1, d.Total)

	rec = ts.do(t, http.MethodGet, "/api/blockchain/masumi/agent/did:masumi:ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/blockchain/masumi/reputation", map[string]string{"agentDid": "did:masumi:ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSokosumiHire(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/sokosumi/hire", map[string]string{"agentId": "sok_agent_seo_analyst_001"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var e types.APIError
	decodeBody(t, rec, &e)
	assert.Equal(t, "agentId and task are required", e.Message)

	rec = ts.do(t, http.MethodPost, "/api/sokosumi/hire", map[string]string{"agentId": "sok_agent_unknown", "task": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/sokosumi/hire", map[string]string{"agentId": "sok_agent_seo_analyst_001", "task": "audit example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	var hire marketplace.HireResult
	decodeBody(t, rec, &hire)
	assert.True(t, hire.IsSimulated)

	rec = ts.do(t, http.MethodGet, "/api/sokosumi/jobs/"+hire.Job.JobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/sokosumi/jobs", nil)
	var jobs jobList
	decodeBody(t, rec, &jobs)
	assert.Equal(t, 1, jobs.Total)

	rec = ts.do(t, http.MethodGet, "/api/sokosumi/jobs/job_missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSokosumiStatusAndAgents(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/sokosumi/status", nil)
	var st marketplace.Status
	decodeBody(t, rec, &st)
	assert.False(t, st.IsLive)
	assert.False(t, st.HasAPIKey)

	rec = ts.do(t, http.MethodGet, "/api/sokosumi/agents?limit=2", nil)
	var list marketplace.AgentList
	decodeBody(t, rec, &list)
	assert.Len(t, list.Agents, 2)
	assert.Equal(t, 8, list.Total)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var h types.HealthCheckResponse
	decodeBody(t, rec, &h)
	assert.Equal(t, types.StatusHealthy, h.Status)
	assert.Equal(t, "test", h.Version)
	assert.Equal(t, types.StatusUp, h.Services["database"].Status)
	assert.Equal(t, types.StatusSimulated, h.Services["cardano"].Status)
}
