package websocket

import "errors"

// Common websocket errors
var (
	// ErrNotConnected is returned when sending on a disconnected client
	ErrNotConnected = errors.New("websocket: not connected")

	// ErrAlreadyRunning is returned when Run is called twice
	ErrAlreadyRunning = errors.New("websocket: server already running")

	// ErrMaxReconnectAttemptsReached is returned when max reconnection attempts are exceeded
	ErrMaxReconnectAttemptsReached = errors.New("websocket: max reconnection attempts reached")
)
