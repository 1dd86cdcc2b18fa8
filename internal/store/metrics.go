package store

import (
	"context"
	"fmt"
)

// Metrics is the platform summary served by /api/metrics
type Metrics struct {
	SystemLayers      int    `json:"systemLayers"`
	SpecializedAgents int    `json:"specializedAgents"`
	AgentDomains      int    `json:"agentDomains"`
	Throughput        string `json:"throughput"`
	CostPerService    string `json:"costPerService"`
	PlatformFee       string `json:"platformFee"`
	OnChain           string `json:"onChain"`
	TotalUsesServed   int    `json:"totalUsesServed"`
	TotalTransactions int    `json:"totalTransactions"`
	TotalCost         string `json:"totalCost"`
}

// metricsTxWindow caps how many transactions are counted
const metricsTxWindow = 1000

// Metrics aggregates agent usage and recent transactions
func (s *Store) Metrics(ctx context.Context) (Metrics, error) {
	var agents, uses int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(uses_served), 0) FROM agents`).Scan(&agents, &uses); err != nil {
		return Metrics{}, fmt.Errorf("agent metrics: %w", err)
	}
	var txs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM (SELECT 1 FROM transactions ORDER BY created_at DESC LIMIT ?)`, metricsTxWindow).Scan(&txs); err != nil {
		return Metrics{}, fmt.Errorf("transaction metrics: %w", err)
	}
	return Metrics{
		SystemLayers:      7,
		SpecializedAgents: agents,
		AgentDomains:      4,
		Throughput:        "1000+ TPS",
		CostPerService:    "~$0.004",
		PlatformFee:       "10%",
		OnChain:           "100%",
		TotalUsesServed:   uses,
		TotalTransactions: txs,
		TotalCost:         fmt.Sprintf("$%.3f", float64(txs)*0.004),
	}, nil
}
