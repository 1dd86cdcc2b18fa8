package websocket

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agenthub-x/agenthub/logger"
)

const (
	// Initial delay before first reconnection attempt
	initialReconnectDelay = 1 * time.Second
	// Maximum delay between reconnection attempts
	maxReconnectDelay = 30 * time.Second
	// Factor to multiply delay after each failed attempt
	reconnectDelayMultiplier = 2
)

// ReconnectingClient keeps a websocket subscription alive, redialing with
// exponential backoff whenever the connection drops.
type ReconnectingClient struct {
	url         string
	dialer      websocket.Dialer
	log         *logger.Logger
	maxAttempts int
	delay       time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	messages chan []byte

	onConnect    func()
	onDisconnect func()
}

// NewReconnectingClient validates the URL and builds a client
func NewReconnectingClient(rawURL string, log *logger.Logger) (*ReconnectingClient, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &ReconnectingClient{
		url:      rawURL,
		dialer:   websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:      log.WithField("component", "ws-client"),
		delay:    initialReconnectDelay,
		messages: make(chan []byte, clientBuffer),
	}, nil
}

// SetMaxAttempts bounds consecutive failed dials; zero means unlimited
func (rc *ReconnectingClient) SetMaxAttempts(n int) { rc.maxAttempts = n }

// SetInitialDelay overrides the first backoff delay
func (rc *ReconnectingClient) SetInitialDelay(d time.Duration) { rc.delay = d }

// SetOnConnect sets the callback for connection events
func (rc *ReconnectingClient) SetOnConnect(fn func()) { rc.onConnect = fn }

// SetOnDisconnect sets the callback for disconnection events
func (rc *ReconnectingClient) SetOnDisconnect(fn func()) { rc.onDisconnect = fn }

// Messages delivers received frames. It is closed when Run returns.
func (rc *ReconnectingClient) Messages() <-chan []byte { return rc.messages }

// IsConnected returns the connection status
func (rc *ReconnectingClient) IsConnected() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.connected
}

// Send writes a text frame on the current connection
func (rc *ReconnectingClient) Send(msg []byte) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.conn == nil {
		return ErrNotConnected
	}
	_ = rc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return rc.conn.WriteMessage(websocket.TextMessage, msg)
}

// Run connects and reconnects until ctx is cancelled or the attempt
// limit is reached.
func (rc *ReconnectingClient) Run(ctx context.Context) error {
	defer close(rc.messages)

	delay := rc.delay
	failures := 0
	for {
		conn, _, err := rc.dialer.DialContext(ctx, rc.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			rc.log.Warnf("connect attempt %d to %s failed: %v", failures, rc.url, err)
			if rc.maxAttempts > 0 && failures >= rc.maxAttempts {
				return ErrMaxReconnectAttemptsReached
			}
			if !sleep(ctx, delay) {
				return nil
			}
			delay *= reconnectDelayMultiplier
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		failures, delay = 0, rc.delay
		rc.log.Infof("connected to %s", rc.url)
		rc.readUntilClosed(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

func (rc *ReconnectingClient) readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	rc.setConn(conn)
	if rc.onConnect != nil {
		rc.onConnect()
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		conn.Close()
		rc.setConn(nil)
		if rc.onDisconnect != nil {
			rc.onDisconnect()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		rc.mu.Lock()
		defer rc.mu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				rc.log.Warnf("read from %s: %v", rc.url, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		select {
		case rc.messages <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (rc *ReconnectingClient) setConn(c *websocket.Conn) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.conn = c
	rc.connected = c != nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
