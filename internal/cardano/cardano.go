// Package cardano covers the Layer 1 side: agent DIDs, decision logging,
// settlement and chain reads. Reads go to Blockfrost when a project id is
// configured; writes are always simulated.
package cardano

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/agenthub-x/agenthub/internal/ledger"
	"github.com/agenthub-x/agenthub/logger"
)

// Registration is the result of RegisterDID
type Registration struct {
	DID          string                 `json:"did"`
	AgentID      string                 `json:"agent_id"`
	AgentName    string                 `json:"agent_name"`
	Metadata     map[string]interface{} `json:"metadata"`
	RegisteredAt time.Time              `json:"registered_at"`
	Network      string                 `json:"network"`
	TxHash       string                 `json:"tx_hash"`
	Status       string                 `json:"status"`
}

// Verification is the result of VerifyCredentials
type Verification struct {
	DID               string    `json:"did"`
	IsVerified        bool      `json:"is_verified"`
	Registered        bool      `json:"registered"`
	ReputationScore   int       `json:"reputation_score"`
	TotalTransactions int       `json:"total_transactions"`
	VerifiedAt        time.Time `json:"verified_at"`
}

// DecisionReceipt is the result of LogDecision
type DecisionReceipt struct {
	TxHash    string                 `json:"tx_hash"`
	AgentID   string                 `json:"agent_id"`
	Decision  string                 `json:"decision"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Network   string                 `json:"network"`
	Witness   ledger.Witness         `json:"witness"`
}

// Settlement is the result of Settle
type Settlement struct {
	TxHash                string  `json:"tx_hash"`
	FromAgent             string  `json:"from_agent"`
	ToAgent               string  `json:"to_agent"`
	Amount                float64 `json:"amount"`
	Network               string  `json:"network"`
	Status                string  `json:"status"`
	EstimatedConfirmation string  `json:"estimated_confirmation"`
}

// Wallet is an address balance
type Wallet struct {
	Address    string        `json:"address"`
	ADABalance float64       `json:"ada_balance"`
	Lovelace   int64         `json:"lovelace"`
	Tokens     []interface{} `json:"tokens"`
	Network    string        `json:"network"`
	IsLive     bool          `json:"is_live"`
}

// Block is a chain tip view
type Block struct {
	Hash    string    `json:"hash"`
	Height  int64     `json:"height"`
	Slot    int64     `json:"slot"`
	Epoch   int       `json:"epoch"`
	Time    time.Time `json:"time"`
	TxCount int       `json:"tx_count"`
}

// NetworkInfo summarises the chain
type NetworkInfo struct {
	Network     string                 `json:"network"`
	IsLive      bool                   `json:"is_live"`
	Epoch       int                    `json:"epoch"`
	Slot        int64                  `json:"slot"`
	BlockHeight int64                  `json:"block_height"`
	Supply      map[string]interface{} `json:"supply,omitempty"`
}

// Service is the Cardano integration. Safe for concurrent use.
type Service struct {
	network string
	client  *Blockfrost
	signer  *ledger.Signer
	log     *logger.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	now       func() time.Time
	started   time.Time
	baseBlock int64
	baseSlot  int64
	epoch     int
	dids      map[string]Registration
	txs       map[string]map[string]interface{}
}

// New builds the service. client may be nil.
func New(network string, client *Blockfrost, signer *ledger.Signer, log *logger.Logger) *Service {
	if network == "" {
		network = "preprod"
	}
	if log == nil {
		log = logger.GetLogger()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Service{
		network:   network,
		client:    client,
		signer:    signer,
		log:       log.WithField("component", "cardano"),
		rng:       rng,
		now:       time.Now,
		started:   time.Now(),
		baseBlock: 10_000_000 + rng.Int63n(5_000_000),
		baseSlot:  80_000_000 + rng.Int63n(20_000_000),
		epoch:     450 + rng.Intn(70),
		dids:      make(map[string]Registration),
		txs:       make(map[string]map[string]interface{}),
	}
}

// Network is the configured network name
func (s *Service) Network() string { return s.network }

// IsLive reports whether Blockfrost reads are enabled
func (s *Service) IsLive() bool { return s.client != nil }

// DID returns the Cardano DID for an agent id
func (s *Service) DID(agentID string) string {
	return fmt.Sprintf("did:cardano:%s:%s", s.network, agentID)
}

// RegisterDID records an agent identity
func (s *Service) RegisterDID(agentID, name string, metadata map[string]interface{}) Registration {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	reg := Registration{
		DID:          s.DID(agentID),
		AgentID:      agentID,
		AgentName:    name,
		Metadata:     metadata,
		RegisteredAt: s.now(),
		Network:      s.network,
		TxHash:       ledger.BlockHash(),
		Status:       "pending_blockchain_confirmation",
	}
	s.mu.Lock()
	s.dids[reg.DID] = reg
	s.recordTx(reg.TxHash, map[string]interface{}{"type": "did_registration", "did": reg.DID})
	s.mu.Unlock()
	return reg
}

// VerifyCredentials checks a DID. Any well-formed DID verifies; the
// Registered flag tells whether it was registered in this process.
func (s *Service) VerifyCredentials(did string) Verification {
	s.mu.Lock()
	_, registered := s.dids[did]
	s.mu.Unlock()
	return Verification{
		DID:               did,
		IsVerified:        strings.HasPrefix(did, "did:"),
		Registered:        registered,
		ReputationScore:   95,
		TotalTransactions: 1234,
		VerifiedAt:        s.now(),
	}
}

// LogDecision records an agent decision and signs its metadata
func (s *Service) LogDecision(agentID, decision string, details map[string]interface{}) (DecisionReceipt, error) {
	r := DecisionReceipt{
		TxHash:    ledger.BlockHash(),
		AgentID:   agentID,
		Decision:  decision,
		Details:   details,
		Timestamp: s.now(),
		Network:   s.network,
	}
	payload, err := json.Marshal(map[string]interface{}{
		"agent_id":  agentID,
		"decision":  decision,
		"details":   details,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return DecisionReceipt{}, fmt.Errorf("encode decision metadata: %w", err)
	}
	if s.signer != nil {
		r.Witness = s.signer.Sign(payload)
	}

	s.mu.Lock()
	s.recordTx(r.TxHash, map[string]interface{}{"type": "decision_log", "agent_id": agentID, "decision": decision})
	s.mu.Unlock()
	return r, nil
}

// Settle submits a simulated Layer 1 payment
func (s *Service) Settle(from, to string, amount float64) Settlement {
	st := Settlement{
		TxHash:                ledger.BlockHash(),
		FromAgent:             from,
		ToAgent:               to,
		Amount:                amount,
		Network:               s.network,
		Status:                "submitted",
		EstimatedConfirmation: "60-90 seconds",
	}
	s.mu.Lock()
	s.recordTx(st.TxHash, map[string]interface{}{"type": "settlement", "from": from, "to": to, "amount": amount})
	s.mu.Unlock()
	return st
}

// caller holds s.mu
func (s *Service) recordTx(hash string, fields map[string]interface{}) {
	fields["tx_hash"] = hash
	fields["timestamp"] = s.now()
	fields["network"] = s.network
	s.txs[hash] = fields
}

// Wallet returns an address balance
func (s *Service) Wallet(ctx context.Context, address string) Wallet {
	if s.client != nil {
		w, err := s.client.Address(ctx, address)
		if err == nil {
			w.Network = s.network
			w.IsLive = true
			return w
		}
		s.log.Warnf("wallet %s: blockfrost failed, using simulation: %v", address, err)
	}
	return Wallet{Address: address, ADABalance: 1000.0, Lovelace: 1_000_000_000, Tokens: []interface{}{}, Network: s.network}
}

// Transaction looks a hash up: live first, then this process's own
// writes, else a fabricated confirmed transaction.
func (s *Service) Transaction(ctx context.Context, hash string) map[string]interface{} {
	if s.client != nil {
		tx, err := s.client.Transaction(ctx, hash)
		if err == nil {
			tx["is_live"] = true
			return tx
		}
		s.log.Warnf("tx %s: blockfrost failed, using simulation: %v", hash, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.txs[hash]; ok {
		out := make(map[string]interface{}, len(rec)+2)
		for k, v := range rec {
			out[k] = v
		}
		out["status"] = "confirmed"
		out["is_simulated"] = true
		return out
	}
	height, slot := s.tipLocked()
	return map[string]interface{}{
		"tx_hash":       hash,
		"block_hash":    ledger.BlockHash(),
		"block_height":  height - 1 - s.rng.Int63n(1000),
		"slot":          slot - 1 - s.rng.Int63n(20000),
		"amount":        1 + s.rng.Float64()*99,
		"fees":          0.17,
		"timestamp":     s.now(),
		"status":        "confirmed",
		"confirmations": 100 + s.rng.Intn(900),
		"is_simulated":  true,
	}
}

// caller holds s.mu
func (s *Service) tipLocked() (height, slot int64) {
	elapsed := int64(s.now().Sub(s.started) / time.Second)
	return s.baseBlock + elapsed/20, s.baseSlot + elapsed
}

// LatestBlock returns the chain tip
func (s *Service) LatestBlock(ctx context.Context) Block {
	if s.client != nil {
		b, err := s.client.LatestBlock(ctx)
		if err == nil {
			return b
		}
		s.log.Warnf("latest block: blockfrost failed, using simulation: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	height, slot := s.tipLocked()
	return Block{
		Hash:    ledger.DeterministicHex(fmt.Sprintf("%s/%d", s.network, height), 64),
		Height:  height,
		Slot:    slot,
		Epoch:   s.epoch,
		Time:    s.now(),
		TxCount: 50 + s.rng.Intn(250),
	}
}

// NetworkInfo returns network level figures
func (s *Service) NetworkInfo(ctx context.Context) NetworkInfo {
	if s.client != nil {
		info, err := s.client.Network(ctx)
		if err == nil {
			info.Network = s.network
			info.IsLive = true
			return info
		}
		s.log.Warnf("network info: blockfrost failed, using simulation: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	height, slot := s.tipLocked()
	return NetworkInfo{Network: s.network, Epoch: s.epoch, Slot: slot, BlockHeight: height}
}

// Epoch returns the simulated epoch
func (s *Service) Epoch() int { return s.epoch }
