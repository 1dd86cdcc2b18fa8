package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/types"
)

// DefaultHeartbeat is the heartbeat broadcast period
const DefaultHeartbeat = 30 * time.Second

// Server exposes the hub at /ws and publishes collaboration events.
type Server struct {
	hub       *Hub
	log       *logger.Logger
	upgrader  websocket.Upgrader
	heartbeat time.Duration
	started   time.Time

	mu      sync.Mutex
	running bool
	clients map[string]*types.ConnectionStatus
}

// NewServer creates a server. Run must be called before clients connect.
func NewServer(log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Server{
		hub: NewHub(),
		log: log.WithField("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		heartbeat: DefaultHeartbeat,
		started:   time.Now(),
		clients:   make(map[string]*types.ConnectionStatus),
	}
}

// SetHeartbeat changes the heartbeat period; zero disables it
func (s *Server) SetHeartbeat(d time.Duration) { s.heartbeat = d }

// Run drives the hub and heartbeat until ctx is done
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	var wg sync.WaitGroup
	if s.heartbeat > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.heartbeats(ctx)
		}()
	}
	s.log.Info("observer hub started")
	s.hub.Run(ctx)
	wg.Wait()
	s.log.Info("observer hub stopped")
	return nil
}

func (s *Server) heartbeats(ctx context.Context) {
	t := time.NewTicker(s.heartbeat)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.publish(types.WSTypeHeartbeat, map[string]interface{}{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"uptime":    time.Since(s.started).Seconds(),
				"clients":   s.hub.Clients(),
			})
		}
	}
}

// ServeHTTP upgrades /ws requests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade failed: %v", err)
		return
	}
	id := "client-" + uuid.NewString()[:8]
	c := newClient(id, s.hub, conn, s.handleClientMessage)

	if msg, err := types.NewWebSocketMessage(types.WSTypeConnection, map[string]interface{}{
		"connected": true,
		"clientId":  id,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}).ToJSON(); err == nil {
		c.enqueue(msg)
	}
	if !s.hub.join(c) {
		conn.Close()
		return
	}
	s.track(id, true)
	s.log.Debugf("client %s connected", id)

	go c.writePump()
	go func() {
		c.readPump()
		s.track(id, false)
		s.log.Debugf("client %s disconnected", id)
	}()
}

type clientMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

// clients may subscribe to a conversation; every client receives every
// event, the acknowledgement only confirms the request was seen
func (s *Server) handleClientMessage(c *Client, raw []byte) {
	var m clientMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return
	}
	s.mu.Lock()
	if st, ok := s.clients[c.ID()]; ok {
		st.MessageCount++
		st.LastPing = time.Now()
	}
	s.mu.Unlock()

	if m.Type == "subscribe_collaboration" {
		s.log.Debugf("client %s subscribed to %s", c.ID(), m.ConversationID)
		s.publish("subscribed", map[string]interface{}{"conversation_id": m.ConversationID})
	}
}

func (s *Server) track(id string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if connected {
		s.clients[id] = &types.ConnectionStatus{Connected: true, ClientID: id, ConnectedAt: time.Now()}
		return
	}
	delete(s.clients, id)
}

// Emit broadcasts a collaboration event without waiting
func (s *Server) Emit(eventType string, data map[string]interface{}) {
	msg := types.NewCollaborationEvent(eventType, data)
	s.send(msg)
}

// BroadcastStatus sends a status message to every client
func (s *Server) BroadcastStatus(status interface{}) {
	s.publish(types.WSTypeStatus, status)
}

func (s *Server) publish(msgType string, payload interface{}) {
	s.send(types.NewWebSocketMessage(msgType, payload))
}

func (s *Server) send(msg *types.WebSocketMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		s.log.Warnf("encode %s message: %v", msg.Type, err)
		return
	}
	if !s.hub.Broadcast(data) {
		s.log.Debugf("dropped %s message, queue full", msg.Type)
	}
}

// Stats describes the hub for health output
type Stats struct {
	Clients   int       `json:"clients"`
	Dropped   int64     `json:"dropped"`
	Uptime    float64   `json:"uptime"`
	StartedAt time.Time `json:"started_at"`
}

// Stats returns a snapshot
func (s *Server) Stats() Stats {
	return Stats{
		Clients:   s.hub.Clients(),
		Dropped:   s.hub.Dropped(),
		Uptime:    time.Since(s.started).Seconds(),
		StartedAt: s.started,
	}
}

// Connections lists connected clients
func (s *Server) Connections() []types.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ConnectionStatus, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, *c)
	}
	return out
}
