package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/config"
	"github.com/agenthub-x/agenthub/resilience"
)

func TestNewProviderSelection(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, config.LLMConfig{Provider: "openai"}, nil)
	assert.ErrorIs(t, err, ErrLLMDisabled)

	c, err := New(ctx, config.LLMConfig{Provider: "openai", OpenAIKey: "sk-test123"}, nil)
	require.NoError(t, err)
	oai, ok := c.(*OpenAIClient)
	require.True(t, ok, "got %T", c)
	assert.Equal(t, "gpt-4o", oai.Model)
	assert.Equal(t, "https://api.openai.com/v1", oai.BaseURL)

	// local servers need no key
	c, err = New(ctx, config.LLMConfig{Provider: "openai", BaseURL: "http://localhost:11434"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", c.(*OpenAIClient).BaseURL)

	c, err = New(ctx, config.LLMConfig{Provider: "anthropic", AnthropicKey: "ak"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	_, err = New(ctx, config.LLMConfig{Provider: "gemini"}, nil)
	assert.ErrorIs(t, err, ErrLLMDisabled)

	_, err = New(ctx, config.LLMConfig{Provider: "mystery"}, nil)
	assert.Error(t, err)
}

func TestOpenAIComplete(t *testing.T) {
	var got chatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  hello  "}}]}`))
	}))
	defer srv.Close()

	c := &OpenAIClient{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o", HTTP: srv.Client()}
	out, err := c.Complete(context.Background(), "be brief", []Message{
		{Role: "user", Content: "hi"},
		{Role: "agent", Content: "hello there"},
		{Role: "user", Content: "again"},
	}, WithTemperature(0.2), WithJSONMode())
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	c := &OpenAIClient{BaseURL: srv.URL, Model: "gpt-4o", HTTP: srv.Client()}
	_, err := c.Chat(context.Background(), "", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestAnthropicRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("ak", "", time.Second)
	c.BaseURL = srv.URL
	c.Retry = &resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	out, err := c.Chat(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAnthropicDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewAnthropicClient("ak", "", time.Second)
	c.BaseURL = srv.URL
	_, err := c.Chat(context.Background(), "sys", "hi")
	var se *resilience.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExtractJSON(t *testing.T) {
	raw, err := ExtractJSON("```json\n{\"a\": {\"b\": 1}}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":1}}`, string(raw))

	_, err = ExtractJSON("no braces here")
	assert.ErrorIs(t, err, ErrNoJSON)
}

// scripted replays canned replies
type scripted struct {
	reply string
	err   error
}

func (s scripted) Chat(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	return s.reply, s.err
}

func (s scripted) Complete(ctx context.Context, system string, messages []Message, opts ...CallOption) (string, error) {
	return s.reply, s.err
}

func TestCompleteStructured(t *testing.T) {
	schema := MustSchema("route", `{"type":"object","required":["agent"],"properties":{"agent":{"type":"string"}}}`)

	var out struct {
		Agent string `json:"agent"`
	}
	err := CompleteStructured(context.Background(), scripted{reply: `Sure! {"agent":"InsightBot"}`}, "sys", "msg", schema, &out)
	require.NoError(t, err)
	assert.Equal(t, "InsightBot", out.Agent)

	err = CompleteStructured(context.Background(), scripted{reply: `{"agent": 7}`}, "sys", "msg", schema, &out)
	assert.ErrorContains(t, err, "does not match schema")

	err = CompleteStructured(context.Background(), nil, "sys", "msg", schema, &out)
	assert.ErrorIs(t, err, ErrLLMDisabled)

	boom := errors.New("timeout")
	err = CompleteStructured(context.Background(), scripted{err: boom}, "sys", "msg", schema, &out)
	assert.ErrorIs(t, err, boom)
}

func TestRedact(t *testing.T) {
	in := []byte("POST / HTTP/1.1\r\nAuthorization: Bearer sk-secret\r\nX-Api-Key: ak-secret\r\n")
	out := string(redact(in))
	assert.NotContains(t, out, "sk-secret")
	assert.NotContains(t, out, "ak-secret")
}
