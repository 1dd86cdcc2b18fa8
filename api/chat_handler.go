package api

import (
	"net/http"

	"github.com/agenthub-x/agenthub/agents/collaboration"
	"github.com/agenthub-x/agenthub/internal/store"
	"github.com/agenthub-x/agenthub/types"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	resp, err := s.Chat.Handle(r.Context(), req)
	if err != nil {
		s.fail(w, "process chat message", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.Store.ListAgents(r.Context())
	if err != nil {
		s.fail(w, "fetch agents", err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := s.Store.GetAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "fetch agent", err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (s *Server) handleDeployAgent(w http.ResponseWriter, r *http.Request) {
	res, err := s.Chat.Deploy(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "deploy agent", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.Store.ListConversations(r.Context())
	if err != nil {
		s.fail(w, "fetch conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title  string `json:"title"`
		UserID string `json:"userId"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	conv, err := s.Store.CreateConversation(r.Context(), body.Title, body.UserID)
	if err != nil {
		s.fail(w, "create conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Store.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "fetch messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	txs, err := s.Store.ListTransactions(r.Context(), limit)
	if err != nil {
		s.fail(w, "fetch transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleListDecisionLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", store.DefaultLimit)
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	logs, err := s.Store.ListDecisionLogs(r.Context(), limit)
	if err != nil {
		s.fail(w, "fetch decision logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type metricsResponse struct {
	store.Metrics
	Collaboration *collaboration.Stats `json:"collaboration,omitempty"`
	Observers     *int                 `json:"observers,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.Store.Metrics(r.Context())
	if err != nil {
		s.fail(w, "fetch metrics", err)
		return
	}
	resp := metricsResponse{Metrics: m}
	if s.Collaboration != nil {
		st := s.Collaboration.Stats()
		resp.Collaboration = &st
	}
	if s.Observers != nil {
		n := s.Observers.Stats().Clients
		resp.Observers = &n
	}
	writeJSON(w, http.StatusOK, resp)
}
