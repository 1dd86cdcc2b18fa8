package types

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	ConversationID      string `json:"conversationId"`
	Message             string `json:"message"`
	AgentName           string `json:"agentName,omitempty"`
	EnableCollaboration *bool  `json:"enableCollaboration,omitempty"`
}

// CollaborationEnabled reports the effective flag; absent means enabled.
func (r ChatRequest) CollaborationEnabled() bool {
	return r.EnableCollaboration == nil || *r.EnableCollaboration
}

// Message is a persisted conversation turn
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"` // "user" or "agent"
	AgentID        string    `json:"agentId,omitempty"`
	AgentName      string    `json:"agentName,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation groups messages
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Agent is the persisted view of a persona
type Agent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Domain        string    `json:"domain"`
	Icon          string    `json:"icon"`
	SystemPrompt  string    `json:"systemPrompt"`
	UsesServed    int       `json:"usesServed"`
	AvgResponseMs int       `json:"avgResponseMs"`
	IsVerified    bool      `json:"isVerified"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Transaction is a persisted micropayment between two parties
type Transaction struct {
	ID            string    `json:"id"`
	FromAgentID   string    `json:"fromAgentId,omitempty"`
	ToAgentID     string    `json:"toAgentId,omitempty"`
	FromAgentName string    `json:"fromAgentName"`
	ToAgentName   string    `json:"toAgentName"`
	Amount        string    `json:"amount"`
	TxHash        string    `json:"txHash"`
	Status        string    `json:"status"`
	Layer         string    `json:"layer"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DecisionLog records an agent action
type DecisionLog struct {
	ID             string    `json:"id"`
	AgentID        string    `json:"agentId,omitempty"`
	AgentName      string    `json:"agentName"`
	Action         string    `json:"action"`
	Details        string    `json:"details,omitempty"`
	TxHash         string    `json:"txHash"`
	Status         string    `json:"status"`
	ConversationID string    `json:"conversationId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HiredAgentSummary describes one hire in a chat response
type HiredAgentSummary struct {
	Name        string  `json:"name"`
	Task        string  `json:"task"`
	Status      string  `json:"status"`
	JobID       string  `json:"job_id"`
	Cost        float64 `json:"cost"`
	IsSimulated bool    `json:"is_simulated"`
}

// CollaborationSummary is attached to a chat response when hires happened
type CollaborationSummary struct {
	Collaborated    bool                `json:"collaborated"`
	AgentsHired     int                 `json:"agents_hired"`
	SuccessfulHires int                 `json:"successful_hires"`
	TotalCostUSD    float64             `json:"total_cost_usd"`
	Agents          []HiredAgentSummary `json:"agents"`
	PaymentMethod   string              `json:"payment_method"`
	IsSimulated     bool                `json:"is_simulated"`
}

// ChatResponse is the body returned by POST /api/chat
type ChatResponse struct {
	UserMessage          *Message              `json:"userMessage"`
	AgentMessage         *Message              `json:"agentMessage"`
	SelectedAgent        string                `json:"selectedAgent"`
	BlockchainActivities []ActivityRecord      `json:"blockchainActivities"`
	AgentProfile         interface{}           `json:"agentProfile,omitempty"`
	IsSimulationMode     bool                  `json:"isSimulationMode"`
	Collaboration        *CollaborationSummary `json:"collaboration"`
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"` // "collaboration_update", "status", "heartbeat", "connection"
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"messageId,omitempty"`
}

// CollaborationEvent is the payload of a collaboration_update message
type CollaborationEvent struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// ConnectionStatus represents WebSocket connection status
type ConnectionStatus struct {
	Connected    bool      `json:"connected"`
	ClientID     string    `json:"clientId"`
	ConnectedAt  time.Time `json:"connectedAt,omitempty"`
	LastPing     time.Time `json:"lastPing,omitempty"`
	MessageCount int       `json:"messageCount"`
}

// HealthCheckResponse represents the health status of the service
type HealthCheckResponse struct {
	Status    string                   `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Services  map[string]ServiceStatus `json:"services"`
}

// ServiceStatus represents the status of a dependent service
type ServiceStatus struct {
	Name      string `json:"name"`
	Status    string `json:"status"` // "up", "down", "simulated"
	LastCheck string `json:"lastCheck"`
	Error     string `json:"error,omitempty"`
}

const (
	// WebSocket message types
	WSTypeCollaboration = "collaboration_update"
	WSTypeError         = "error"
	WSTypeStatus        = "status"
	WSTypeHeartbeat     = "heartbeat"
	WSTypeConnection    = "connection"

	// Collaboration event types
	EventCollaborationStart    = "collaboration_start"
	EventAgentHiring           = "agent_hiring"
	EventAgentWorking          = "agent_working"
	EventAgentCompleted        = "agent_completed"
	EventCollaborationComplete = "collaboration_complete"

	// Message senders
	SenderUser  = "user"
	SenderAgent = "agent"

	// Service status
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUp        = "up"
	StatusDown      = "down"
	StatusSimulated = "simulated"
)

// NewWebSocketMessage creates a new WebSocket message
func NewWebSocketMessage(msgType string, payload interface{}) *WebSocketMessage {
	return &WebSocketMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: generateMessageID(),
	}
}

// NewCollaborationEvent wraps an event in its websocket envelope
func NewCollaborationEvent(eventType string, data map[string]interface{}) *WebSocketMessage {
	return NewWebSocketMessage(WSTypeCollaboration, CollaborationEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// ToJSON converts the message to JSON
func (m *WebSocketMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func generateMessageID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), generateRandomString(8))
}

func generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
