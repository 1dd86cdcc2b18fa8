// Package masumi is the agent identity network: registration, discovery,
// reputation and DID resolution. Registry state is process-local; a
// configured API key adds live discovery and DID resolution.
package masumi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/agenthub-x/agenthub/logger"
)

// ErrAgentNotFound is returned for DIDs with no registration
var ErrAgentNotFound = errors.New("masumi: agent not found")

const (
	initialReputation = 100.0
	initialResponseMs = 1000
	emaAlpha          = 0.1
)

// Agent is a registry entry
type Agent struct {
	DID                 string    `json:"did"`
	Name                string    `json:"name"`
	Domain              string    `json:"domain"`
	Services            []string  `json:"services"`
	ReputationScore     float64   `json:"reputation_score"`
	TotalTransactions   int       `json:"total_transactions"`
	AverageResponseTime int       `json:"average_response_time"`
	RegisteredAt        time.Time `json:"registered_at"`
	IsVerified          bool      `json:"is_verified"`
}

// Credential is a verifiable credential summary
type Credential struct {
	Type     string    `json:"type"`
	Issuer   string    `json:"issuer"`
	IssuedAt time.Time `json:"issued_at"`
}

// Profile is an agent with its credentials
type Profile struct {
	Agent
	VerifiableCredentials []Credential `json:"verifiable_credentials"`
}

// Registration is the result of Register
type Registration struct {
	DID          string    `json:"did"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain"`
	Services     []string  `json:"services"`
	RegisteredAt time.Time `json:"registered_at"`
	RegistryURL  string    `json:"registry_url"`
	Status       string    `json:"status"`
}

// ReputationUpdate is the result of UpdateReputation
type ReputationUpdate struct {
	DID                 string    `json:"did"`
	ReputationScore     float64   `json:"reputation_score"`
	TotalTransactions   int       `json:"total_transactions"`
	AverageResponseTime int       `json:"average_response_time"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Agreement is a service agreement between two agents
type Agreement struct {
	AgreementID string                 `json:"agreement_id"`
	ProviderDID string                 `json:"provider_did"`
	ConsumerDID string                 `json:"consumer_did"`
	ServiceType string                 `json:"service_type"`
	Terms       map[string]interface{} `json:"terms"`
	CreatedAt   time.Time              `json:"created_at"`
	Status      string                 `json:"status"`
	MasumiURL   string                 `json:"masumi_url"`
}

// NetworkStatus describes the registry
type NetworkStatus struct {
	NetworkURL       string `json:"network_url"`
	IsLive           bool   `json:"is_live"`
	Status           string `json:"status"`
	RegisteredAgents int    `json:"registered_agents"`
	Agreements       int    `json:"agreements"`
}

// Service is the Masumi integration. Safe for concurrent use.
type Service struct {
	networkURL string
	client     *Client
	log        *logger.Logger
	docs       *expirable.LRU[string, DIDDocument]

	mu         sync.RWMutex
	agents     map[string]*Agent
	agreements map[string]Agreement
	now        func() time.Time
}

// New builds the service. client may be nil.
func New(networkURL string, client *Client, log *logger.Logger) *Service {
	if networkURL == "" {
		networkURL = "https://masumi-testnet.io"
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		networkURL: strings.TrimRight(networkURL, "/"),
		client:     client,
		log:        log.WithField("component", "masumi"),
		docs:       expirable.NewLRU[string, DIDDocument](256, nil, 10*time.Minute),
		agents:     make(map[string]*Agent),
		agreements: make(map[string]Agreement),
		now:        time.Now,
	}
}

// IsLive reports whether the live API is configured
func (s *Service) IsLive() bool { return s.client != nil }

// NetworkURL is the registry base URL
func (s *Service) NetworkURL() string { return s.networkURL }

// agentKey is the last DID segment
func agentKey(did string) string {
	if i := strings.LastIndex(did, ":"); i >= 0 {
		return did[i+1:]
	}
	return did
}

// Register adds an agent to the registry with a perfect reputation
func (s *Service) Register(agentID, name, domain string, services []string) Registration {
	a := &Agent{
		DID:                 "did:masumi:" + agentID,
		Name:                name,
		Domain:              domain,
		Services:            append([]string(nil), services...),
		ReputationScore:     initialReputation,
		AverageResponseTime: initialResponseMs,
		RegisteredAt:        s.now(),
		IsVerified:          true,
	}
	s.mu.Lock()
	s.agents[agentID] = a
	s.mu.Unlock()
	s.docs.Remove(a.DID)

	return Registration{
		DID:          a.DID,
		Name:         name,
		Domain:       domain,
		Services:     a.Services,
		RegisteredAt: a.RegisteredAt,
		RegistryURL:  fmt.Sprintf("%s/agents/%s", s.networkURL, agentID),
		Status:       "active",
	}
}

// Discover filters registered agents. Empty filters match everything.
// Live results, when available, replace the local registry.
func (s *Service) Discover(ctx context.Context, domain, service string, minReputation float64) []Agent {
	if s.client != nil {
		agents, err := s.client.Discover(ctx, domain, service, minReputation)
		if err == nil {
			return agents
		}
		s.log.Warnf("discover: live call failed, using local registry: %v", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Agent
	for _, a := range s.agents {
		if domain != "" && a.Domain != domain {
			continue
		}
		if service != "" && !contains(a.Services, service) {
			continue
		}
		if a.ReputationScore < minReputation {
			continue
		}
		out = append(out, copyAgent(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Search does a case-insensitive substring match over name, domain and
// services
func (s *Service) Search(query string) []Agent {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Agent
	for _, a := range s.agents {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Domain), q) || anyContains(a.Services, q) {
			out = append(out, copyAgent(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Profile returns a registered agent by DID
func (s *Service) Profile(did string) (Profile, error) {
	s.mu.RLock()
	a, ok := s.agents[agentKey(did)]
	s.mu.RUnlock()
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrAgentNotFound, did)
	}
	cp := copyAgent(a)
	return Profile{
		Agent: cp,
		VerifiableCredentials: []Credential{
			{Type: "ServiceProvider", Issuer: "did:masumi:registry", IssuedAt: cp.RegisteredAt},
		},
	}, nil
}

// UpdateReputation applies one transaction outcome: +0.1 on success,
// -1.0 on failure, clamped to [0,100]. Response time is an EMA.
func (s *Service) UpdateReputation(did string, success bool, responseMs int) (ReputationUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentKey(did)]
	if !ok {
		return ReputationUpdate{}, fmt.Errorf("%w: %s", ErrAgentNotFound, did)
	}
	if success {
		a.ReputationScore = math.Min(100, a.ReputationScore+0.1)
	} else {
		a.ReputationScore = math.Max(0, a.ReputationScore-1.0)
	}
	a.AverageResponseTime = int(emaAlpha*float64(responseMs) + (1-emaAlpha)*float64(a.AverageResponseTime))
	a.TotalTransactions++

	return ReputationUpdate{
		DID:                 did,
		ReputationScore:     a.ReputationScore,
		TotalTransactions:   a.TotalTransactions,
		AverageResponseTime: a.AverageResponseTime,
		UpdatedAt:           s.now(),
	}, nil
}

// CreateAgreement records a service agreement
func (s *Service) CreateAgreement(providerDID, consumerDID, serviceType string, terms map[string]interface{}) Agreement {
	if terms == nil {
		terms = map[string]interface{}{}
	}
	id := "agreement_" + uuid.NewString()
	ag := Agreement{
		AgreementID: id,
		ProviderDID: providerDID,
		ConsumerDID: consumerDID,
		ServiceType: serviceType,
		Terms:       terms,
		CreatedAt:   s.now(),
		Status:      "active",
		MasumiURL:   fmt.Sprintf("%s/agreements/%s", s.networkURL, id),
	}
	s.mu.Lock()
	s.agreements[id] = ag
	s.mu.Unlock()
	return ag
}

// VerifyCredential checks the required credential fields are present
func VerifyCredential(c map[string]interface{}) bool {
	for _, f := range []string{"type", "issuer", "issued_at"} {
		if _, ok := c[f]; !ok {
			return false
		}
	}
	return true
}

// Status summarises the registry
func (s *Service) Status() NetworkStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := NetworkStatus{
		NetworkURL:       s.networkURL,
		IsLive:           s.client != nil,
		Status:           "simulated",
		RegisteredAgents: len(s.agents),
		Agreements:       len(s.agreements),
	}
	if st.IsLive {
		st.Status = "connected"
	}
	return st
}

func copyAgent(a *Agent) Agent {
	cp := *a
	cp.Services = append([]string(nil), a.Services...)
	return cp
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func anyContains(xs []string, q string) bool {
	for _, x := range xs {
		if strings.Contains(strings.ToLower(x), q) {
			return true
		}
	}
	return false
}
