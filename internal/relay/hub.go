package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to a client.
	writeWait = 10 * time.Second

	// clientBuffer is the per-client send queue. Clients that cannot
	// drain it are disconnected rather than allowed to stall fanout.
	clientBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The relay serves local dashboards; origin checks are left to
	// whatever fronts it in a real deployment.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans snapshot payloads out to connected WebSocket clients. It also
// retains the most recent payload so that new clients and the one-shot
// fetch endpoint see data immediately.
type Hub struct {
	logger *slog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu     sync.RWMutex
	latest []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub. Run must be called before clients attach.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger.With("component", "hub"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. All registration and
// fanout happens on this goroutine, so no lock guards the set.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*client]struct{})
	defer func() {
		close(h.done)
		for c := range clients {
			close(c.send)
		}
	}()

	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.logger.Info("client connected", "clients", len(clients))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.logger.Info("client disconnected", "clients", len(clients))
			}

		case payload := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer: drop it.
					delete(clients, c)
					close(c.send)
					h.logger.Warn("dropping slow client", "clients", len(clients))
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// Broadcast queues a payload for fanout and caches it as the latest.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	h.latest = payload
	h.mu.Unlock()

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("fanout queue full, dropping payload")
	}
}

// Latest returns the most recently broadcast payload, or nil if nothing
// has been received yet.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// ServeWS upgrades an HTTP request and attaches the connection to the
// hub. New clients are immediately sent the latest payload so they do
// not wait for the next upstream event.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if latest := h.Latest(); latest != nil {
		c.send <- latest
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

// writePump drains the send queue onto the connection. It exits when the
// hub closes the queue or a write fails.
func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames. The relay is push-only; the read
// loop exists to observe connection closure.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
