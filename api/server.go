// Package api exposes the chat pipeline, the blockchain simulations and the
// marketplace over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/agenthub-x/agenthub/agents/collaboration"
	"github.com/agenthub-x/agenthub/internal/activity"
	"github.com/agenthub-x/agenthub/internal/cardano"
	"github.com/agenthub-x/agenthub/internal/chat"
	"github.com/agenthub-x/agenthub/internal/hydra"
	"github.com/agenthub-x/agenthub/internal/marketplace"
	"github.com/agenthub-x/agenthub/internal/masumi"
	"github.com/agenthub-x/agenthub/internal/store"
	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/types"
	"github.com/agenthub-x/agenthub/websocket"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// ChatService runs turns and deployments
type ChatService interface {
	Handle(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Deploy(ctx context.Context, agentID string) (chat.DeployResult, error)
}

// StatsSource reports orchestrator counters
type StatsSource interface {
	Stats() collaboration.Stats
}

// Deps wires the handlers. Collaboration and Observers may be nil.
type Deps struct {
	Chat          ChatService
	Store         *store.Store
	Marketplace   *marketplace.Marketplace
	Hydra         *hydra.Service
	Cardano       *cardano.Service
	Masumi        *masumi.Service
	Activity      *activity.Synthesizer
	Collaboration StatsSource
	Observers     *websocket.Server
	Version       string
	Log           *logger.Logger
}

// Server holds the routed handler
type Server struct {
	Deps
	log *logger.Logger
	mux *http.ServeMux
}

// New registers every route
func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = logger.GetLogger()
	}
	if d.Version == "" {
		d.Version = "dev"
	}
	s := &Server{Deps: d, log: log.WithField("component", "api"), mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the mux wrapped in recovery and CORS
func (s *Server) Handler() http.Handler {
	return withCORS(s.withRecover(s.mux))
}

func (s *Server) routes() {
	m := s.mux

	m.HandleFunc("GET /health", s.handleHealth)
	if s.Observers != nil {
		m.Handle("GET /ws", s.Observers)
	}

	m.HandleFunc("POST /api/chat", s.handleChat)
	m.HandleFunc("GET /api/agents", s.handleListAgents)
	m.HandleFunc("GET /api/agents/{id}", s.handleGetAgent)
	m.HandleFunc("POST /api/agents/{id}/deploy", s.handleDeployAgent)
	m.HandleFunc("GET /api/conversations", s.handleListConversations)
	m.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	m.HandleFunc("GET /api/conversations/{id}/messages", s.handleListMessages)
	m.HandleFunc("GET /api/transactions", s.handleListTransactions)
	m.HandleFunc("GET /api/decision-logs", s.handleListDecisionLogs)
	m.HandleFunc("GET /api/metrics", s.handleMetrics)

	m.HandleFunc("GET /api/blockchain/status", s.handleBlockchainStatus)
	m.HandleFunc("GET /api/blockchain/network-status", s.handleNetworkStatus)
	m.HandleFunc("GET /api/blockchain/agent-profiles", s.handleAgentProfiles)
	m.HandleFunc("GET /api/blockchain/agent-profiles/{name}", s.handleAgentProfile)

	m.HandleFunc("GET /api/blockchain/cardano/status", s.handleCardanoStatus)
	m.HandleFunc("POST /api/blockchain/cardano/register-agent", s.handleCardanoRegister)
	m.HandleFunc("POST /api/blockchain/cardano/verify", s.handleCardanoVerify)
	m.HandleFunc("POST /api/blockchain/cardano/log-decision", s.handleCardanoLogDecision)
	m.HandleFunc("POST /api/blockchain/cardano/settle-payment", s.handleCardanoSettle)
	m.HandleFunc("GET /api/blockchain/cardano/wallet/{address}", s.handleCardanoWallet)
	m.HandleFunc("GET /api/blockchain/cardano/transaction/{hash}", s.handleCardanoTransaction)

	m.HandleFunc("GET /api/blockchain/masumi/status", s.handleMasumiStatus)
	m.HandleFunc("POST /api/blockchain/masumi/register", s.handleMasumiRegister)
	m.HandleFunc("GET /api/blockchain/masumi/discover", s.handleMasumiDiscover)
	m.HandleFunc("GET /api/blockchain/masumi/agent/{did}", s.handleMasumiAgent)
	m.HandleFunc("POST /api/blockchain/masumi/reputation", s.handleMasumiReputation)
	m.HandleFunc("POST /api/blockchain/masumi/agreement", s.handleMasumiAgreement)

	m.HandleFunc("GET /api/blockchain/hydra/status", s.handleHydraStatus)
	m.HandleFunc("POST /api/blockchain/hydra/open-channel", s.handleHydraOpen)
	m.HandleFunc("POST /api/blockchain/hydra/payment", s.handleHydraPayment)
	m.HandleFunc("POST /api/blockchain/hydra/close-channel", s.handleHydraClose)
	m.HandleFunc("GET /api/blockchain/hydra/channel/{id}", s.handleHydraChannel)
	m.HandleFunc("GET /api/blockchain/hydra/transactions", s.handleHydraTransactions)
	m.HandleFunc("GET /api/blockchain/hydra/estimate-fees", s.handleHydraEstimateFees)

	m.HandleFunc("GET /api/sokosumi/agents", s.handleSokosumiAgents)
	m.HandleFunc("GET /api/sokosumi/agents/{id}", s.handleSokosumiAgent)
	m.HandleFunc("POST /api/sokosumi/hire", s.handleSokosumiHire)
	m.HandleFunc("GET /api/sokosumi/jobs", s.handleSokosumiJobs)
	m.HandleFunc("GET /api/sokosumi/jobs/{id}", s.handleSokosumiJob)
	m.HandleFunc("GET /api/sokosumi/account", s.handleSokosumiAccount)
	m.HandleFunc("GET /api/sokosumi/status", s.handleSokosumiStatus)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.log.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, v)
				writeError(w, http.StatusInternalServerError, types.NewAPIError(types.ErrCodeInternal, "internal server error", false))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, e *types.APIError) {
	writeJSON(w, status, e)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, types.NewAPIError(types.ErrCodeBadRequest, msg, true))
}

// fail maps a domain error to its status and logs anything unexpected
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status, code, recoverable := http.StatusInternalServerError, types.ErrCodeInternal, false
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, hydra.ErrChannelNotFound),
		errors.Is(err, marketplace.ErrAgentNotFound),
		errors.Is(err, marketplace.ErrJobNotFound),
		errors.Is(err, masumi.ErrAgentNotFound):
		status, code, recoverable = http.StatusNotFound, types.ErrCodeNotFound, true
	case errors.Is(err, hydra.ErrChannelNotOpen):
		status, code, recoverable = http.StatusConflict, types.ErrCodeChannelNotOpen, true
	case errors.Is(err, hydra.ErrInsufficientBalance):
		status, code, recoverable = http.StatusUnprocessableEntity, types.ErrCodeInsufficientBalance, true
	case errors.Is(err, hydra.ErrInvalidBalance), errors.Is(err, hydra.ErrInvalidAmount):
		status, code, recoverable = http.StatusBadRequest, types.ErrCodeInvalidBalance, true
	case errors.Is(err, chat.ErrInvalidRequest):
		status, code, recoverable = http.StatusBadRequest, types.ErrCodeBadRequest, true
	default:
		s.log.Error(op+" failed", err)
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "failed to " + op
	}
	writeError(w, status, types.NewAPIError(code, msg, recoverable))
}

// decode reads an optional JSON body into v. An empty body leaves v as is.
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format(time.RFC3339)
	svc := func(name string, live bool) types.ServiceStatus {
		st := types.ServiceStatus{Name: name, Status: types.StatusSimulated, LastCheck: now}
		if live {
			st.Status = types.StatusUp
		}
		return st
	}

	resp := types.HealthCheckResponse{
		Status:    types.StatusHealthy,
		Timestamp: now,
		Version:   s.Version,
		Services:  map[string]types.ServiceStatus{},
	}

	db := types.ServiceStatus{Name: "database", Status: types.StatusUp, LastCheck: now}
	if err := s.Store.Ping(r.Context()); err != nil {
		db.Status = types.StatusDown
		db.Error = err.Error()
		resp.Status = types.StatusUnhealthy
	}
	resp.Services["database"] = db
	resp.Services["cardano"] = svc("cardano", s.Cardano.IsLive())
	resp.Services["masumi"] = svc("masumi", s.Masumi.IsLive())
	resp.Services["hydra"] = svc("hydra", s.Hydra.IsLive())
	resp.Services["sokosumi"] = svc("sokosumi", s.Marketplace.IsLive())
	if s.Observers != nil {
		resp.Services["websocket"] = types.ServiceStatus{Name: "websocket", Status: types.StatusUp, LastCheck: now}
	}

	status := http.StatusOK
	if resp.Status == types.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
