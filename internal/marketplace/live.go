package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agenthub-x/agenthub/logger"
	"github.com/agenthub-x/agenthub/resilience"
)

// DefaultBaseURL is the public Sokosumi endpoint
const DefaultBaseURL = "https://app.sokosumi.com"

// Client talks to the Sokosumi REST API with Bearer auth.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	guard   *resilience.Guard
}

// NewClient builds a client guarded by a circuit breaker
func NewClient(baseURL, apiKey string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		guard:   resilience.NewGuard("sokosumi", log),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sokosumi: marshal: %w", err)
		}
		payload = b
	}
	return c.guard.Do(ctx, func(ctx context.Context) error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
		if err != nil {
			return fmt.Errorf("sokosumi: create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		res, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("sokosumi: %s %s: %w", method, path, err)
		}
		defer res.Body.Close()

		raw, _ := io.ReadAll(res.Body)
		if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
			return &resilience.StatusError{Endpoint: "sokosumi " + path, Code: res.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("sokosumi: decode %s: %w", path, err)
		}
		return nil
	})
}

// ListAgents calls GET /api/agents. The reply may be a bare list or an
// object with an agents field.
func (c *Client) ListAgents(ctx context.Context, category string, limit int) ([]Agent, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if category != "" {
		q.Set("category", category)
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/agents?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}
	var list []Agent
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Agents []Agent `json:"agents"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("sokosumi: decode agents: %w", err)
	}
	return wrapped.Agents, nil
}

// GetAgent calls GET /api/agents/{id}
func (c *Client) GetAgent(ctx context.Context, id string) (Agent, error) {
	var a Agent
	err := c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(id), nil, &a)
	return a, err
}

type createJobRequest struct {
	AgentID     string  `json:"agent_id"`
	Task        string  `json:"task"`
	Requester   string  `json:"requester"`
	CallbackURL *string `json:"callback_url"`
}

// CreateJob calls POST /api/jobs
func (c *Client) CreateJob(ctx context.Context, agentID, task, requester string) (Job, error) {
	var j Job
	err := c.do(ctx, http.MethodPost, "/api/jobs", createJobRequest{AgentID: agentID, Task: task, Requester: requester}, &j)
	return j, err
}

// GetJob calls GET /api/jobs/{id}
func (c *Client) GetJob(ctx context.Context, id string) (Job, error) {
	var j Job
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &j)
	return j, err
}

// Account calls GET /api/account
func (c *Client) Account(ctx context.Context) (Account, error) {
	var a Account
	err := c.do(ctx, http.MethodGet, "/api/account", nil, &a)
	return a, err
}
