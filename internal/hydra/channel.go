// Package hydra simulates Layer-2 payment channels between agents.
//
// A channel holds two participants' balances; payments move value inside
// the channel without touching Layer 1. The sum of balances always equals
// the capacity fixed at open time. Closing is terminal.
package hydra

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthub-x/agenthub/internal/ledger"
)

var (
	ErrChannelNotFound     = errors.New("hydra: channel not found")
	ErrChannelNotOpen      = errors.New("hydra: channel not open")
	ErrInsufficientBalance = errors.New("hydra: insufficient balance")
	ErrInvalidBalance      = errors.New("hydra: invalid initial balance")
	ErrInvalidAmount       = errors.New("hydra: payment amount must be positive")
)

// Channel states
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Fee constants in USD
const (
	CostPerTx   = 0.004
	L1CostPerTx = 0.17
)

// Channel is the internal channel state
type Channel struct {
	ID           string
	Participants [2]string
	Capacity     float64
	Balances     map[string]float64
	TxCount      int
	OpenedAt     time.Time
	Status       string
}

func (c *Channel) balances() map[string]float64 {
	out := make(map[string]float64, len(c.Balances))
	for k, v := range c.Balances {
		out[k] = v
	}
	return out
}

// Tx is an immutable payment record
type Tx struct {
	TxHash    string    `json:"tx_hash"`
	ChannelID string    `json:"channel_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Finality  string    `json:"finality"`
	Layer     string    `json:"layer"`
}

// OpenResult is returned by Open
type OpenResult struct {
	ChannelID    string             `json:"channel_id"`
	Participants []string           `json:"participants"`
	Capacity     float64            `json:"capacity"`
	Balances     map[string]float64 `json:"balances"`
	OpenedAt     time.Time          `json:"opened_at"`
	Status       string             `json:"status"`
	L1TxHash     string             `json:"l1_tx_hash"`
}

// PaymentResult is returned by Send
type PaymentResult struct {
	TxHash         string  `json:"tx_hash"`
	ChannelID      string  `json:"channel_id"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	Amount         float64 `json:"amount"`
	NewBalanceFrom float64 `json:"new_balance_from"`
	NewBalanceTo   float64 `json:"new_balance_to"`
	FinalityTime   string  `json:"finality_time"`
	Cost           float64 `json:"cost"`
	Status         string  `json:"status"`
}

// CloseResult is returned by Close
type CloseResult struct {
	ChannelID         string             `json:"channel_id"`
	FinalBalances     map[string]float64 `json:"final_balances"`
	TotalTransactions int                `json:"total_transactions"`
	ClosedAt          time.Time          `json:"closed_at"`
	SettlementTx      string             `json:"settlement_tx"`
	Status            string             `json:"status"`
}

// ChannelStatus is the public view of a channel
type ChannelStatus struct {
	ChannelID        string             `json:"channel_id"`
	Participants     []string           `json:"participants"`
	Capacity         float64            `json:"capacity"`
	CurrentBalances  map[string]float64 `json:"current_balances"`
	TransactionCount int                `json:"transaction_count"`
	OpenedAt         time.Time          `json:"opened_at"`
	Status           string             `json:"status"`
	Throughput       string             `json:"throughput"`
	Finality         string             `json:"finality"`
}

// Ledger owns every channel and the payment history. All methods are safe
// for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	channels map[string]*Channel
	history  []Tx
	now      func() time.Time
}

// NewLedger returns an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		channels: make(map[string]*Channel),
		now:      time.Now,
	}
}

// Open creates a channel between a and b. Balances must be non-negative
// and at least one must be positive.
func (l *Ledger) Open(a, b string, balanceA, balanceB float64) (OpenResult, error) {
	if err := checkBalances(balanceA, balanceB); err != nil {
		return OpenResult{}, err
	}

	ch := &Channel{
		ID:           uuid.NewString(),
		Participants: [2]string{a, b},
		Capacity:     balanceA + balanceB,
		Balances:     map[string]float64{a: balanceA},
		OpenedAt:     l.now(),
		Status:       StatusOpen,
	}
	// a == b collapses to one balance entry holding the whole capacity
	ch.Balances[b] += balanceB

	l.mu.Lock()
	l.channels[ch.ID] = ch
	l.mu.Unlock()

	return OpenResult{
		ChannelID:    ch.ID,
		Participants: []string{a, b},
		Capacity:     ch.Capacity,
		Balances:     ch.balances(),
		OpenedAt:     ch.OpenedAt,
		Status:       StatusOpen,
		L1TxHash:     ledger.BlockHash(),
	}, nil
}

// Send moves amount from one party to another inside the channel. No
// state changes unless every check passes.
func (l *Ledger) Send(channelID, from, to string, amount float64) (PaymentResult, error) {
	if err := checkAmount(amount); err != nil {
		return PaymentResult{}, err
	}
	return l.transfer(channelID, from, to, amount, ledger.BlockHash())
}

func (l *Ledger) transfer(channelID, from, to string, amount float64, txHash string) (PaymentResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.channels[channelID]
	if !ok {
		return PaymentResult{}, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	if ch.Status != StatusOpen {
		return PaymentResult{}, fmt.Errorf("%w: %s is %s", ErrChannelNotOpen, channelID, ch.Status)
	}
	if ch.Balances[from] < amount {
		return PaymentResult{}, fmt.Errorf("%w: %s holds %v, needs %v", ErrInsufficientBalance, from, ch.Balances[from], amount)
	}

	ch.Balances[from] -= amount
	ch.Balances[to] += amount
	ch.TxCount++

	tx := Tx{
		TxHash:    txHash,
		ChannelID: channelID,
		From:      from,
		To:        to,
		Amount:    amount,
		Timestamp: l.now(),
		Finality:  "instant",
		Layer:     "hydra",
	}
	l.history = append(l.history, tx)

	return PaymentResult{
		TxHash:         tx.TxHash,
		ChannelID:      channelID,
		From:           from,
		To:             to,
		Amount:         amount,
		NewBalanceFrom: ch.Balances[from],
		NewBalanceTo:   ch.Balances[to],
		FinalityTime:   "<1s",
		Cost:           CostPerTx,
		Status:         "confirmed",
	}, nil
}

// adopt tracks a channel opened on a live head so status, history and
// the simulated fallback can see it
func (l *Ledger) adopt(res OpenResult, a, b string, balanceA, balanceB float64) {
	ch := &Channel{
		ID:           res.ChannelID,
		Participants: [2]string{a, b},
		Capacity:     balanceA + balanceB,
		Balances:     map[string]float64{a: balanceA},
		OpenedAt:     res.OpenedAt,
		Status:       StatusOpen,
	}
	ch.Balances[b] += balanceB

	l.mu.Lock()
	l.channels[ch.ID] = ch
	l.mu.Unlock()
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func checkBalances(a, b float64) error {
	if !finite(a) || !finite(b) || a < 0 || b < 0 || !(a+b > 0) {
		return fmt.Errorf("%w: %v/%v", ErrInvalidBalance, a, b)
	}
	return nil
}

func checkAmount(amount float64) error {
	if !finite(amount) || !(amount > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}

// Close flips the channel to closed and reports final balances. Closing
// an already closed channel reports the same balances again.
func (l *Ledger) Close(channelID string) (CloseResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.channels[channelID]
	if !ok {
		return CloseResult{}, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	ch.Status = StatusClosed

	return CloseResult{
		ChannelID:         channelID,
		FinalBalances:     ch.balances(),
		TotalTransactions: ch.TxCount,
		ClosedAt:          l.now(),
		SettlementTx:      ledger.BlockHash(),
		Status:            StatusClosed,
	}, nil
}

// Status returns the channel view
func (l *Ledger) Status(channelID string) (ChannelStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.channels[channelID]
	if !ok {
		return ChannelStatus{}, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}
	return ChannelStatus{
		ChannelID:        ch.ID,
		Participants:     []string{ch.Participants[0], ch.Participants[1]},
		Capacity:         ch.Capacity,
		CurrentBalances:  ch.balances(),
		TransactionCount: ch.TxCount,
		OpenedAt:         ch.OpenedAt,
		Status:           ch.Status,
		Throughput:       "1000+ TPS",
		Finality:         "<1 second",
	}, nil
}

// History returns the last limit payments, optionally for one channel
func (l *Ledger) History(channelID string, limit int) []Tx {
	if limit <= 0 {
		limit = 20
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var txs []Tx
	for _, tx := range l.history {
		if channelID == "" || tx.ChannelID == channelID {
			txs = append(txs, tx)
		}
	}
	if len(txs) > limit {
		txs = txs[len(txs)-limit:]
	}
	return append([]Tx(nil), txs...)
}

// OpenChannels counts channels still open
func (l *Ledger) OpenChannels() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ch := range l.channels {
		if ch.Status == StatusOpen {
			n++
		}
	}
	return n
}

// FeeEstimate compares Hydra and Layer 1 costs for n transactions
type FeeEstimate struct {
	NumTransactions   int    `json:"num_transactions"`
	HydraTotalCost    string `json:"hydra_total_cost"`
	L1TotalCost       string `json:"l1_total_cost"`
	Savings           string `json:"savings"`
	SavingsPercentage string `json:"savings_percentage"`
	Throughput        string `json:"throughput"`
	Finality          string `json:"finality"`
}

// EstimateFees is a pure function of the fee constants
func EstimateFees(n int) FeeEstimate {
	if n < 0 {
		n = 0
	}
	hydra := CostPerTx * float64(n)
	l1 := L1CostPerTx * float64(n)
	savings := l1 - hydra
	pct := 0.0
	if l1 > 0 {
		pct = savings / l1 * 100
	}
	return FeeEstimate{
		NumTransactions:   n,
		HydraTotalCost:    fmt.Sprintf("$%.3f", hydra),
		L1TotalCost:       fmt.Sprintf("$%.2f", l1),
		Savings:           fmt.Sprintf("$%.2f", savings),
		SavingsPercentage: fmt.Sprintf("%.1f%%", pct),
		Throughput:        "1000+ TPS",
		Finality:          "<1 second",
	}
}
