package api

import (
	"net/http"
	"strings"

	"github.com/agenthub-x/agenthub/internal/marketplace"
)

func (s *Server) handleSokosumiAgents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		badRequest(w, "limit must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, s.Marketplace.ListAgents(r.Context(), r.URL.Query().Get("category"), limit))
}

type agentResponse struct {
	Success     bool              `json:"success"`
	IsLive      bool              `json:"is_live"`
	IsSimulated bool              `json:"is_simulated"`
	Agent       marketplace.Agent `json:"agent"`
}

func (s *Server) handleSokosumiAgent(w http.ResponseWriter, r *http.Request) {
	a, live, err := s.Marketplace.GetAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "fetch marketplace agent", err)
		return
	}
	writeJSON(w, http.StatusOK, agentResponse{Success: true, IsLive: live, IsSimulated: !live, Agent: a})
}

func (s *Server) handleSokosumiHire(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentID        string `json:"agentId"`
		Task           string `json:"task"`
		RequesterAgent string `json:"requesterAgent"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if body.AgentID == "" || strings.TrimSpace(body.Task) == "" {
		badRequest(w, "agentId and task are required")
		return
	}
	res, err := s.Marketplace.Hire(r.Context(), body.AgentID, body.Task, body.RequesterAgent)
	if err != nil {
		s.fail(w, "hire agent", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type jobList struct {
	Success bool              `json:"success"`
	Jobs    []marketplace.Job `json:"jobs"`
	Total   int               `json:"total"`
}

func (s *Server) handleSokosumiJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.Marketplace.ListJobs()
	writeJSON(w, http.StatusOK, jobList{Success: true, Jobs: jobs, Total: len(jobs)})
}

type jobResponse struct {
	Success bool            `json:"success"`
	Job     marketplace.Job `json:"job"`
}

func (s *Server) handleSokosumiJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Marketplace.JobStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "fetch job", err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{Success: true, Job: job})
}

type accountResponse struct {
	Success     bool                `json:"success"`
	IsLive      bool                `json:"is_live"`
	IsSimulated bool                `json:"is_simulated"`
	Account     marketplace.Account `json:"account"`
}

func (s *Server) handleSokosumiAccount(w http.ResponseWriter, r *http.Request) {
	acct, live := s.Marketplace.Account(r.Context())
	writeJSON(w, http.StatusOK, accountResponse{Success: true, IsLive: live, IsSimulated: !live, Account: acct})
}

func (s *Server) handleSokosumiStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Marketplace.Status())
}
