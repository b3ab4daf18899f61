package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not started")
)

// State is the process-wide connection state, mutated only by the Manager.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// EventKind classifies a transport event.
type EventKind int

const (
	// EventOpen signals a (re)established connection.
	EventOpen EventKind = iota
	// EventMessage carries one raw push payload.
	EventMessage
	// EventClosed signals the connection dropped; the transport will keep
	// retrying on its own.
	EventClosed
)

// Event is one transport occurrence, delivered in order.
type Event struct {
	Kind EventKind
	Data []byte    // Raw payload (EventMessage only)
	At   time.Time // Local timestamp of the occurrence
	Err  error     // Close cause (EventClosed only, may be nil)
}

// TransportConfig configures the WebSocket transport.
type TransportConfig struct {
	URL              string        // Relay push endpoint (ws:// or wss://)
	HandshakeTimeout time.Duration // Dial deadline
	ReconnectMinWait time.Duration // Backoff floor
	ReconnectMaxWait time.Duration // Backoff ceiling
	BufferSize       int           // Event channel capacity
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		HandshakeTimeout: 10 * time.Second,
		ReconnectMinWait: time.Second,
		ReconnectMaxWait: 60 * time.Second,
		BufferSize:       256,
	}
}

// Status is a point-in-time view of the connection for display.
type Status struct {
	State         State     `json:"state"`
	ConnectedAt   time.Time `json:"connected_at,omitzero"`
	LastDataAt    time.Time `json:"last_data_at,omitzero"`
	LastRefreshAt time.Time `json:"last_refresh_at,omitzero"`
}
