package api

import (
	"net/http"
	"strings"

	"github.com/agenthub-x/agenthub/internal/hydra"
	"github.com/agenthub-x/agenthub/internal/masumi"
)

// integrationStatus is one entry of /api/blockchain/status
type integrationStatus struct {
	IsLive     bool   `json:"is_live"`
	Network    string `json:"network,omitempty"`
	NetworkURL string `json:"network_url,omitempty"`
	NodeURL    string `json:"node_url,omitempty"`
	Requires   string `json:"requires"`
}

func (s *Server) handleBlockchainStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]integrationStatus{
		"cardano": {IsLive: s.Cardano.IsLive(), Network: s.Cardano.Network(), Requires: "BLOCKFROST_API_KEY"},
		"masumi":  {IsLive: s.Masumi.IsLive(), NetworkURL: s.Masumi.NetworkURL(), Requires: "MASUMI_API_KEY"},
		"hydra":   {IsLive: s.Hydra.IsLive(), NodeURL: s.Hydra.NodeURL(), Requires: "HYDRA_API_KEY"},
	})
}

func (s *Server) handleNetworkStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Activity.NetworkStatus())
}

func (s *Server) handleAgentProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Activity.Profiles())
}

func (s *Server) handleAgentProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Activity.Profile(r.PathValue("name")))
}

// Cardano

func (s *Server) handleCardanoStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"network":      s.Cardano.NetworkInfo(r.Context()),
		"latest_block": s.Cardano.LatestBlock(r.Context()),
	})
}

func (s *Server) handleCardanoRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentID   string                 `json:"agentId"`
		AgentName string                 `json:"agentName"`
		Metadata  map[string]interface{} `json:"metadata"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.AgentID == "" {
		badRequest(w, "agentId is required")
		return
	}
	writeJSON(w, http.StatusOK, s.Cardano.RegisterDID(body.AgentID, body.AgentName, body.Metadata))
}

func (s *Server) handleCardanoVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DID string `json:"did"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.DID == "" {
		badRequest(w, "did is required")
		return
	}
	writeJSON(w, http.StatusOK, s.Cardano.VerifyCredentials(body.DID))
}

func (s *Server) handleCardanoLogDecision(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentID  string                 `json:"agentId"`
		Decision string                 `json:"decision"`
		Details  map[string]interface{} `json:"details"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.AgentID == "" || body.Decision == "" {
		badRequest(w, "agentId and decision are required")
		return
	}
	receipt, err := s.Cardano.LogDecision(body.AgentID, body.Decision, body.Details)
	if err != nil {
		s.fail(w, "log decision", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleCardanoSettle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FromAgent string  `json:"fromAgent"`
		ToAgent   string  `json:"toAgent"`
		Amount    float64 `json:"amount"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.FromAgent == "" || body.ToAgent == "" {
		badRequest(w, "fromAgent and toAgent are required")
		return
	}
	writeJSON(w, http.StatusOK, s.Cardano.Settle(body.FromAgent, body.ToAgent, body.Amount))
}

func (s *Server) handleCardanoWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cardano.Wallet(r.Context(), r.PathValue("address")))
}

func (s *Server) handleCardanoTransaction(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Cardano.Transaction(r.Context(), r.PathValue("hash")))
}

// Masumi

func (s *Server) handleMasumiStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Masumi.Status())
}

func (s *Server) handleMasumiRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentID  string   `json:"agentId"`
		Name     string   `json:"name"`
		Domain   string   `json:"domain"`
		Services []string `json:"services"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.AgentID == "" || body.Name == "" {
		badRequest(w, "agentId and name are required")
		return
	}
	writeJSON(w, http.StatusOK, s.Masumi.Register(body.AgentID, body.Name, body.Domain, body.Services))
}

type discoverResponse struct {
	Agents []masumi.Agent `json:"agents"`
	Total  int            `json:"total"`
}

func (s *Server) handleMasumiDiscover(w http.ResponseWriter, r *http.Request) {
	minRep, err := queryFloat(r, "minReputation", 0)
	if err != nil {
		badRequest(w, "minReputation must be a number")
		return
	}
	q := r.URL.Query()
	var agents []masumi.Agent
	if search := strings.TrimSpace(q.Get("q")); search != "" {
		agents = s.Masumi.Search(search)
	} else {
		agents = s.Masumi.Discover(r.Context(), q.Get("domain"), q.Get("service"), minRep)
	}
	if agents == nil {
		agents = []masumi.Agent{}
	}
	writeJSON(w, http.StatusOK, discoverResponse{Agents: agents, Total: len(agents)})
}

type agentProfileResponse struct {
	masumi.Profile
	DIDDocument masumi.DIDDocument `json:"did_document"`
}

func (s *Server) handleMasumiAgent(w http.ResponseWriter, r *http.Request) {
	did := r.PathValue("did")
	profile, err := s.Masumi.Profile(did)
	if err != nil {
		s.fail(w, "fetch agent profile", err)
		return
	}
	doc, err := s.Masumi.ResolveDID(r.Context(), did)
	if err != nil {
		s.fail(w, "resolve DID", err)
		return
	}
	writeJSON(w, http.StatusOK, agentProfileResponse{Profile: profile, DIDDocument: doc})
}

func (s *Server) handleMasumiReputation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentDID           string `json:"agentDid"`
		TransactionSuccess *bool  `json:"transactionSuccess"`
		ResponseTime       *int   `json:"responseTime"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.AgentDID == "" {
		badRequest(w, "agentDid is required")
		return
	}
	success, responseMs := true, 1000
	if body.TransactionSuccess != nil {
		success = *body.TransactionSuccess
	}
	if body.ResponseTime != nil {
		responseMs = *body.ResponseTime
	}
	upd, err := s.Masumi.UpdateReputation(body.AgentDID, success, responseMs)
	if err != nil {
		s.fail(w, "update reputation", err)
		return
	}
	writeJSON(w, http.StatusOK, upd)
}

func (s *Server) handleMasumiAgreement(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProviderDID string                 `json:"providerDid"`
		ConsumerDID string                 `json:"consumerDid"`
		ServiceType string                 `json:"serviceType"`
		Terms       map[string]interface{} `json:"terms"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.ProviderDID == "" || body.ConsumerDID == "" {
		badRequest(w, "providerDid and consumerDid are required")
		return
	}
	writeJSON(w, http.StatusOK, s.Masumi.CreateAgreement(body.ProviderDID, body.ConsumerDID, body.ServiceType, body.Terms))
}

// Hydra

func (s *Server) handleHydraStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Hydra.NodeStatus(r.Context()))
}

func (s *Server) handleHydraOpen(w http.ResponseWriter, r *http.Request) {
	body := struct {
		ParticipantA string  `json:"participantA"`
		ParticipantB string  `json:"participantB"`
		BalanceA     float64 `json:"balanceA"`
		BalanceB     float64 `json:"balanceB"`
	}{BalanceA: 100, BalanceB: 100}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.ParticipantA == "" || body.ParticipantB == "" {
		badRequest(w, "participantA and participantB are required")
		return
	}
	res, err := s.Hydra.Open(r.Context(), body.ParticipantA, body.ParticipantB, body.BalanceA, body.BalanceB)
	if err != nil {
		s.fail(w, "open channel", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHydraPayment(w http.ResponseWriter, r *http.Request) {
	body := struct {
		ChannelID string  `json:"channelId"`
		From      string  `json:"from"`
		To        string  `json:"to"`
		Amount    float64 `json:"amount"`
	}{Amount: hydra.CostPerTx}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.ChannelID == "" {
		badRequest(w, "channelId is required")
		return
	}
	res, err := s.Hydra.Send(r.Context(), body.ChannelID, body.From, body.To, body.Amount)
	if err != nil {
		s.fail(w, "send payment", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHydraClose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID string `json:"channelId"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.ChannelID == "" {
		badRequest(w, "channelId is required")
		return
	}
	res, err := s.Hydra.Ledger.Close(body.ChannelID)
	if err != nil {
		s.fail(w, "close channel", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHydraChannel(w http.ResponseWriter, r *http.Request) {
	st, err := s.Hydra.Ledger.Status(r.PathValue("id"))
	if err != nil {
		s.fail(w, "fetch channel", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type hydraHistory struct {
	ChannelID    string     `json:"channel_id,omitempty"`
	Transactions []hydra.Tx `json:"transactions"`
	Total        int        `json:"total"`
}

func (s *Server) handleHydraTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	channelID := r.URL.Query().Get("channelId")
	txs := s.Hydra.Ledger.History(channelID, limit)
	if txs == nil {
		txs = []hydra.Tx{}
	}
	writeJSON(w, http.StatusOK, hydraHistory{ChannelID: channelID, Transactions: txs, Total: len(txs)})
}

func (s *Server) handleHydraEstimateFees(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "numTransactions", 100)
	if err != nil {
		badRequest(w, "numTransactions must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, hydra.EstimateFees(n))
}
