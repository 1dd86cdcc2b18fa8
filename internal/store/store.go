// Package store persists agents, conversations, messages, transactions and
// decision logs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agenthub-x/agenthub/agents/registry"
	"github.com/agenthub-x/agenthub/types"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("store: not found")

// timestamps are fixed width so text order is time order
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// DefaultLimit applies to list calls given a non-positive limit
const DefaultLimit = 20

// Store is the SQLite persistence gateway
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) stamp() string { return s.now().UTC().Format(tsLayout) }

func parseTS(v string) time.Time {
	t, err := time.Parse(tsLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func limitOr(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

// SeedAgents inserts personas missing from the agents table. Existing rows
// keep their counters.
func (s *Store) SeedAgents(ctx context.Context, personas []registry.Persona) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed agents: %w", err)
	}
	defer tx.Rollback()

	for _, p := range personas {
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO agents
			(id, name, description, domain, icon, system_prompt, uses_served, avg_response_ms, is_verified, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			uuid.NewString(), p.Name, p.Description, p.Domain, p.Icon, p.SystemPrompt, p.UsesServed, p.AvgResponseMs, p.Status, s.stamp())
		if err != nil {
			return fmt.Errorf("seed agent %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

const agentCols = `id, name, description, domain, icon, system_prompt, uses_served, avg_response_ms, is_verified, status, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAgent(r scanner) (types.Agent, error) {
	var a types.Agent
	var created string
	err := r.Scan(&a.ID, &a.Name, &a.Description, &a.Domain, &a.Icon, &a.SystemPrompt, &a.UsesServed, &a.AvgResponseMs, &a.IsVerified, &a.Status, &created)
	a.CreatedAt = parseTS(created)
	return a, err
}

// ListAgents returns every agent by name
func (s *Store) ListAgents(ctx context.Context) ([]types.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+agentCols+` FROM agents ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()
	var out []types.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) getAgent(ctx context.Context, where string, arg string) (types.Agent, error) {
	a, err := scanAgent(s.db.QueryRowContext(ctx, `SELECT `+agentCols+` FROM agents WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Agent{}, fmt.Errorf("%w: agent %s", ErrNotFound, arg)
	}
	if err != nil {
		return types.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// GetAgent looks an agent up by id
func (s *Store) GetAgent(ctx context.Context, id string) (types.Agent, error) {
	return s.getAgent(ctx, "id", id)
}

// GetAgentByName looks an agent up by persona name
func (s *Store) GetAgentByName(ctx context.Context, name string) (types.Agent, error) {
	return s.getAgent(ctx, "name", name)
}

// IncrementAgentUsage bumps uses_served
func (s *Store) IncrementAgentUsage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE agents SET uses_served = uses_served + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: agent %s", ErrNotFound, id)
	}
	return nil
}

// CreateConversation starts a conversation
func (s *Store) CreateConversation(ctx context.Context, title, userID string) (types.Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	now := s.stamp()
	c := types.Conversation{ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: parseTS(now), UpdatedAt: parseTS(now)}
	_, err := s.db.ExecContext(ctx, `INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, nullable(userID), c.Title, now, now)
	if err != nil {
		return types.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns conversations, most recently updated first
func (s *Store) ListConversations(ctx context.Context) ([]types.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, COALESCE(user_id, ''), title, created_at, updated_at FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()
	var out []types.Conversation
	for rows.Next() {
		var c types.Conversation
		var created, updated string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.CreatedAt, c.UpdatedAt = parseTS(created), parseTS(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateMessage appends a message and touches the conversation. The
// conversation row is created on first use.
func (s *Store) CreateMessage(ctx context.Context, m types.Message) (types.Message, error) {
	now := s.stamp()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = parseTS(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO conversations (id, title, created_at, updated_at) VALUES (?, 'New Conversation', ?, ?)`,
		m.ConversationID, now, now); err != nil {
		return types.Message{}, fmt.Errorf("ensure conversation: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO messages (id, conversation_id, sender, agent_id, agent_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Sender, nullable(m.AgentID), nullable(m.AgentName), m.Content, now); err != nil {
		return types.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`, now, m.ConversationID); err != nil {
		return types.Message{}, fmt.Errorf("touch conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Message{}, fmt.Errorf("commit message: %w", err)
	}
	return m, nil
}

// ListMessages returns a conversation in insertion order
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, conversation_id, sender, COALESCE(agent_id, ''), COALESCE(agent_name, ''), content, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	var out []types.Message
	for rows.Next() {
		var m types.Message
		var created string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.AgentID, &m.AgentName, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = parseTS(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateTransaction records a micropayment. Amount defaults to 0.004 and
// layer to hydra.
func (s *Store) CreateTransaction(ctx context.Context, t types.Transaction) (types.Transaction, error) {
	now := s.stamp()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Amount == "" {
		t.Amount = "0.004"
	}
	if t.Layer == "" {
		t.Layer = "hydra"
	}
	if t.Status == "" {
		t.Status = "pending"
	}
	t.CreatedAt = parseTS(now)
	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(id, from_agent_id, to_agent_id, from_agent_name, to_agent_name, amount, tx_hash, status, layer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullable(t.FromAgentID), nullable(t.ToAgentID), t.FromAgentName, t.ToAgentName, t.Amount, t.TxHash, t.Status, t.Layer, now)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the newest transactions first
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]types.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, COALESCE(from_agent_id, ''), COALESCE(to_agent_id, ''), from_agent_name, to_agent_name, amount, tx_hash, status, layer, created_at
		FROM transactions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limitOr(limit))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var out []types.Transaction
	for rows.Next() {
		var t types.Transaction
		var created string
		if err := rows.Scan(&t.ID, &t.FromAgentID, &t.ToAgentID, &t.FromAgentName, &t.ToAgentName, &t.Amount, &t.TxHash, &t.Status, &t.Layer, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.CreatedAt = parseTS(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateDecisionLog records an agent action
func (s *Store) CreateDecisionLog(ctx context.Context, d types.DecisionLog) (types.DecisionLog, error) {
	now := s.stamp()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = "pending"
	}
	d.CreatedAt = parseTS(now)
	_, err := s.db.ExecContext(ctx, `INSERT INTO decision_logs
		(id, agent_id, agent_name, action, details, tx_hash, status, conversation_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, nullable(d.AgentID), d.AgentName, d.Action, nullable(d.Details), d.TxHash, d.Status, nullable(d.ConversationID), now)
	if err != nil {
		return types.DecisionLog{}, fmt.Errorf("create decision log: %w", err)
	}
	return d, nil
}

// ListDecisionLogs returns the newest decision logs first
func (s *Store) ListDecisionLogs(ctx context.Context, limit int) ([]types.DecisionLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, COALESCE(agent_id, ''), agent_name, action, COALESCE(details, ''), tx_hash, status, COALESCE(conversation_id, ''), created_at
		FROM decision_logs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limitOr(limit))
	if err != nil {
		return nil, fmt.Errorf("list decision logs: %w", err)
	}
	defer rows.Close()
	var out []types.DecisionLog
	for rows.Next() {
		var d types.DecisionLog
		var created string
		if err := rows.Scan(&d.ID, &d.AgentID, &d.AgentName, &d.Action, &d.Details, &d.TxHash, &d.Status, &d.ConversationID, &created); err != nil {
			return nil, fmt.Errorf("scan decision log: %w", err)
		}
		d.CreatedAt = parseTS(created)
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
