package masumi

import (
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

// Client calls the Masumi registry API
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	guard   *resilience.Guard
}

// NewClient builds a guarded client
func NewClient(baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		guard:   resilience.NewGuard("masumi", log),
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.guard.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("token", c.APIKey)
		req.Header.Set("Accept", "application/json")
		res, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("masumi %s: %w", path, err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode != http.StatusOK {
			return &resilience.StatusError{Endpoint: "masumi " + path, Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return json.Unmarshal(body, out)
	})
}

// Discover calls GET /agents with filters
func (c *Client) Discover(ctx context.Context, domain, service string, minReputation float64) ([]Agent, error) {
	q := url.Values{}
	if domain != "" {
		q.Set("domain", domain)
	}
	if service != "" {
		q.Set("service", service)
	}
	if minReputation > 0 {
		q.Set("min_reputation", strconv.FormatFloat(minReputation, 'f', -1, 64))
	}
	var out []Agent
	err := c.get(ctx, "/agents?"+q.Encode(), &out)
	return out, err
}

// ResolveDID calls GET /dids/{did}
func (c *Client) ResolveDID(ctx context.Context, did string) (DIDDocument, error) {
	var doc DIDDocument
	err := c.get(ctx, "/dids/"+url.PathEscape(did), &doc)
	return doc, err
}
