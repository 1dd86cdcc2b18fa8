package hydra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/resilience"
)

// NodeStatus describes the Hydra head
type NodeStatus struct {
	IsLive         bool                   `json:"is_live"`
	NodeURL        string                 `json:"node_url"`
	HeadStatus     string                 `json:"head_status"`
	ActiveChannels int                    `json:"active_channels"`
	Throughput     string                 `json:"throughput"`
	Finality       string                 `json:"finality"`
	Node           map[string]interface{} `json:"node,omitempty"`
	IsSimulated    bool                   `json:"is_simulated"`
}

// Node is the optional live Hydra node connection
type Node struct {
	URL    string
	APIKey string
	HTTP   *http.Client
	guard  *resilience.Guard
}

// NewNode builds a node client
func NewNode(url, apiKey string, log *logger.Logger) *Node {
	return &Node{
		URL:    strings.TrimRight(url, "/"),
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
		guard:  resilience.NewGuard("hydra", log),
	}
}

func (n *Node) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("hydra node: marshal: %w", err)
		}
		payload = b
	}
	return n.guard.Do(ctx, func(ctx context.Context) error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, n.URL+path, rd)
		if err != nil {
			return err
		}
		if n.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+n.APIKey)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		res, err := n.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("hydra node: %w", err)
		}
		defer res.Body.Close()
		raw, _ := io.ReadAll(res.Body)
		if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
			return &resilience.StatusError{Endpoint: "hydra " + path, Code: res.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("hydra node: decode %s: %w", path, err)
		}
		return nil
	})
}

func (n *Node) status(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	err := n.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

type openChannelRequest struct {
	ParticipantA string  `json:"participant_a"`
	ParticipantB string  `json:"participant_b"`
	BalanceA     float64 `json:"balance_a"`
	BalanceB     float64 `json:"balance_b"`
}

// OpenChannel calls POST /channels
func (n *Node) OpenChannel(ctx context.Context, a, b string, balanceA, balanceB float64) (OpenResult, error) {
	var res OpenResult
	err := n.do(ctx, http.MethodPost, "/channels", openChannelRequest{a, b, balanceA, balanceB}, &res)
	if err == nil && res.ChannelID == "" {
		err = fmt.Errorf("hydra node: open reply has no channel_id")
	}
	return res, err
}

type paymentRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// SendPayment calls POST /channels/{id}/payments
func (n *Node) SendPayment(ctx context.Context, channelID, from, to string, amount float64) (PaymentResult, error) {
	var res PaymentResult
	err := n.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/payments", paymentRequest{from, to, amount}, &res)
	if err == nil && res.TxHash == "" {
		err = fmt.Errorf("hydra node: payment reply has no tx_hash")
	}
	return res, err
}

// Service joins the channel ledger with the optional node
type Service struct {
	Ledger  *Ledger
	node    *Node
	nodeURL string
	log     *logger.Logger
}

// NewService wraps ledger; node may be nil
func NewService(l *Ledger, node *Node, nodeURL string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	if node != nil {
		nodeURL = node.URL
	}
	return &Service{Ledger: l, node: node, nodeURL: nodeURL, log: log.WithField("component", "hydra")}
}

// IsLive reports whether a node is configured
func (s *Service) IsLive() bool { return s.node != nil }

// NodeURL is the configured node endpoint
func (s *Service) NodeURL() string { return s.nodeURL }

// NodeStatus queries the node, falling back to the simulated head
func (s *Service) NodeStatus(ctx context.Context) NodeStatus {
	st := NodeStatus{
		NodeURL:        s.nodeURL,
		HeadStatus:     "Open",
		ActiveChannels: s.Ledger.OpenChannels(),
		Throughput:     "1000+ TPS",
		Finality:       "<1 second",
		IsSimulated:    true,
	}
	if s.node == nil {
		return st
	}
	remote, err := s.node.status(ctx)
	if err != nil {
		s.log.Warnf("node status failed, reporting simulated head: %v", err)
		return st
	}
	st.IsLive = true
	st.IsSimulated = false
	st.Node = remote
	if hs, ok := remote["headStatus"].(string); ok {
		st.HeadStatus = hs
	}
	return st
}

// Open opens a channel on the live head when one is configured, and on
// the simulated ledger otherwise or when the node call fails.
func (s *Service) Open(ctx context.Context, a, b string, balanceA, balanceB float64) (OpenResult, error) {
	if err := checkBalances(balanceA, balanceB); err != nil {
		return OpenResult{}, err
	}
	if s.node != nil {
		res, err := s.node.OpenChannel(ctx, a, b, balanceA, balanceB)
		if err == nil {
			if res.OpenedAt.IsZero() {
				res.OpenedAt = time.Now()
			}
			if res.Participants == nil {
				res.Participants = []string{a, b}
			}
			if res.Balances == nil {
				res.Balances = map[string]float64{a: balanceA}
				res.Balances[b] += balanceB
			}
			if res.Status == "" {
				res.Status = StatusOpen
			}
			res.Capacity = balanceA + balanceB
			s.Ledger.adopt(res, a, b, balanceA, balanceB)
			return res, nil
		}
		s.log.Warnf("open channel: live call failed, using simulation: %v", err)
	}
	return s.Ledger.Open(a, b, balanceA, balanceB)
}

// Send pays through the live head when one is configured. A confirmed live
// payment is mirrored into the ledger; a failed call falls back to the
// simulated channel.
func (s *Service) Send(ctx context.Context, channelID, from, to string, amount float64) (PaymentResult, error) {
	if err := checkAmount(amount); err != nil {
		return PaymentResult{}, err
	}
	if s.node != nil {
		res, err := s.node.SendPayment(ctx, channelID, from, to, amount)
		if err == nil {
			if _, merr := s.Ledger.transfer(channelID, from, to, amount, res.TxHash); merr != nil {
				s.log.Debugf("payment %s not mirrored: %v", res.TxHash, merr)
			}
			if res.Cost == 0 {
				res.Cost = CostPerTx
			}
			if res.Status == "" {
				res.Status = "confirmed"
			}
			return res, nil
		}
		s.log.Warnf("payment: live call failed, using simulation: %v", err)
	}
	return s.Ledger.Send(channelID, from, to, amount)
}
