package cardano

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/internal/ledger"
)

func newSim(t *testing.T) *Service {
	t.Helper()
	signer, err := ledger.NewSigner()
	require.NoError(t, err)
	return New("preprod", nil, signer, nil)
}

func TestRegisterAndVerify(t *testing.T) {
	s := newSim(t)
	reg := s.RegisterDID("agent-42", "InsightBot", nil)
	assert.Equal(t, "did:cardano:preprod:agent-42", reg.DID)
	assert.Equal(t, "pending_blockchain_confirmation", reg.Status)
	assert.Len(t, reg.TxHash, 64)

	v := s.VerifyCredentials(reg.DID)
	assert.True(t, v.IsVerified)
	assert.True(t, v.Registered)

	other := s.VerifyCredentials("not-a-did")
	assert.False(t, other.IsVerified)
}

func TestLogDecisionWitnessVerifies(t *testing.T) {
	s := newSim(t)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	r, err := s.LogDecision("agent-1", "Processed user request", map[string]interface{}{"agent": "TradeMind"})
	require.NoError(t, err)
	require.NotEmpty(t, r.Witness.Signature)

	payload, _ := json.Marshal(map[string]interface{}{
		"agent_id":  "agent-1",
		"decision":  "Processed user request",
		"details":   map[string]interface{}{"agent": "TradeMind"},
		"timestamp": "2025-03-01T12:00:00Z",
	})
	assert.NoError(t, ledger.Verify(payload, r.Witness))

	tx := s.Transaction(context.Background(), r.TxHash)
	assert.Equal(t, "decision_log", tx["type"])
	assert.Equal(t, "confirmed", tx["status"])
}

func TestSettleAndUnknownTransaction(t *testing.T) {
	s := newSim(t)
	st := s.Settle("a", "b", 12.5)
	assert.Equal(t, "submitted", st.Status)

	tx := s.Transaction(context.Background(), "ffff")
	assert.Equal(t, "ffff", tx["tx_hash"])
	assert.Equal(t, 0.17, tx["fees"])
}

func TestTipAdvances(t *testing.T) {
	s := newSim(t)
	start := s.started
	s.now = func() time.Time { return start }
	b1 := s.LatestBlock(context.Background())
	s.now = func() time.Time { return start.Add(60 * time.Second) }
	b2 := s.LatestBlock(context.Background())
	assert.Equal(t, b1.Height+3, b2.Height)
	assert.Equal(t, b1.Slot+60, b2.Slot)
}

func TestBlockfrostReads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pid", r.Header.Get("project_id"))
		switch r.URL.Path {
		case "/addresses/addr_test1xyz":
			_, _ = w.Write([]byte(`{"address":"addr_test1xyz","amount":[{"unit":"lovelace","quantity":"2500000"},{"unit":"abc","quantity":"7"}]}`))
		case "/blocks/latest":
			_, _ = w.Write([]byte(`{"hash":"h","height":99,"slot":1000,"epoch":480,"time":1700000000,"tx_count":3}`))
		case "/network":
			_, _ = w.Write([]byte(`{"supply":{"max":"45000000000000000"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	bf := NewBlockfrost("preprod", "pid", nil)
	bf.BaseURL = srv.URL
	s := New("preprod", bf, nil, nil)

	w := s.Wallet(context.Background(), "addr_test1xyz")
	assert.True(t, w.IsLive)
	assert.InDelta(t, 2.5, w.ADABalance, 1e-9)
	assert.Len(t, w.Tokens, 1)

	info := s.NetworkInfo(context.Background())
	assert.True(t, info.IsLive)
	assert.Equal(t, 480, info.Epoch)
	assert.EqualValues(t, 99, info.BlockHeight)
}
