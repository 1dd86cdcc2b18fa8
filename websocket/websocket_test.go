package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agenthub-x/agenthub/types"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type running struct {
	*Server
	url     string
	cancel  context.CancelFunc
	stopped chan struct{}
	http    *httptest.Server
}

// shutdown stops the hub and the HTTP listener
func (r running) shutdown() {
	r.cancel()
	<-r.stopped
	r.http.Close()
}

func startServer(t *testing.T) running {
	t.Helper()
	s := NewServer(nil)
	s.SetHeartbeat(0)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(stopped)
	}()
	ts := httptest.NewServer(s)
	return running{Server: s, url: "ws" + strings.TrimPrefix(ts.URL, "http"), cancel: cancel, stopped: stopped, http: ts}
}

func readEnvelope(t *testing.T, c *gws.Conn) envelope {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := c.ReadMessage()
	require.NoError(t, err)
	var e envelope
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

func TestEmitReachesClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := startServer(t)
	defer s.http.Close()
	conn, _, err := gws.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readEnvelope(t, conn)
	assert.Equal(t, types.WSTypeConnection, hello.Type)
	assert.Equal(t, 1, s.Stats().Clients)

	s.Emit(types.EventAgentHiring, map[string]interface{}{"agent_name": "Statista Data Agent", "index": 0})
	got := readEnvelope(t, conn)
	require.Equal(t, types.WSTypeCollaboration, got.Type)

	var ev types.CollaborationEvent
	require.NoError(t, json.Unmarshal(got.Payload, &ev))
	assert.Equal(t, types.EventAgentHiring, ev.Type)
	assert.Equal(t, "Statista Data Agent", ev.Data["agent_name"])

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"type":"subscribe_collaboration","conversation_id":"c1"}`)))
	ack := readEnvelope(t, conn)
	assert.Equal(t, "subscribed", ack.Type)

	s.cancel()
	<-s.stopped
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestRunTwice(t *testing.T) {
	s := startServer(t)
	defer s.shutdown()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
}

func TestBroadcastNeverBlocks(t *testing.T) {
	h := NewHub()
	for i := 0; i < broadcastBuffer; i++ {
		require.True(t, h.Broadcast([]byte("x")))
	}
	done := make(chan bool)
	go func() { done <- h.Broadcast([]byte("overflow")) }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked")
	}
	assert.EqualValues(t, 1, h.Dropped())
}

func TestEmitWithoutClients(t *testing.T) {
	s := NewServer(nil)
	for i := 0; i < broadcastBuffer*2; i++ {
		s.Emit(types.EventAgentWorking, map[string]interface{}{"index": i})
	}
	assert.EqualValues(t, broadcastBuffer, s.Stats().Dropped)
}

func TestReconnectingClientReceives(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := startServer(t)
	defer s.shutdown()

	rc, err := NewReconnectingClient(s.url, nil)
	require.NoError(t, err)
	connected := make(chan struct{}, 1)
	rc.SetOnConnect(func() { connected <- struct{}{} })

	ctx, stop := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- rc.Run(ctx) }()

	<-connected
	first := <-rc.Messages()
	assert.Contains(t, string(first), types.WSTypeConnection)
	assert.True(t, rc.IsConnected())

	s.Emit(types.EventCollaborationComplete, map[string]interface{}{"agents_hired": 1})
	next := <-rc.Messages()
	assert.Contains(t, string(next), types.EventCollaborationComplete)

	stop()
	require.NoError(t, <-runErr)
	_, open := <-rc.Messages()
	assert.False(t, open)
	assert.False(t, rc.IsConnected())
	assert.ErrorIs(t, rc.Send([]byte("x")), ErrNotConnected)
}

func TestReconnectingClientGivesUp(t *testing.T) {
	ts := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ts.Close()

	rc, err := NewReconnectingClient(url, nil)
	require.NoError(t, err)
	rc.SetMaxAttempts(2)
	rc.SetInitialDelay(time.Millisecond)
	assert.ErrorIs(t, rc.Run(context.Background()), ErrMaxReconnectAttemptsReached)
}
