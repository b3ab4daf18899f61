package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
)

// Transport delivers push-connection events. Implementations own their
// reconnect policy; consumers only see open/message/closed.
type Transport interface {
	// Start begins dialing and reading in the background.
	Start(ctx context.Context) error

	// Stop tears the connection down and stops reconnecting.
	Stop() error

	// Events returns the ordered event stream.
	Events() <-chan Event
}

// wsTransport is the WebSocket Transport implementation.
type wsTransport struct {
	cfg    TransportConfig
	logger *slog.Logger

	events chan Event

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewTransport creates a WebSocket transport. A nil logger falls back to
// slog.Default().
func NewTransport(cfg TransportConfig, logger *slog.Logger) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultTransportConfig().BufferSize
	}
	if cfg.ReconnectMinWait <= 0 {
		cfg.ReconnectMinWait = DefaultTransportConfig().ReconnectMinWait
	}
	if cfg.ReconnectMaxWait <= 0 {
		cfg.ReconnectMaxWait = DefaultTransportConfig().ReconnectMaxWait
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultTransportConfig().HandshakeTimeout
	}
	return &wsTransport{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, cfg.BufferSize),
	}
}

// Start begins the dial/read/reconnect loop.
func (t *wsTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.run(runCtx)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (t *wsTransport) Stop() error {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return ErrNotStarted
	}
	cancel := t.cancel
	t.mu.Unlock()

	cancel()
	t.wg.Wait()
	close(t.events)
	return nil
}

// Events returns the event stream.
func (t *wsTransport) Events() <-chan Event {
	return t.events
}

// run dials, reads until failure, and reconnects with backoff forever.
func (t *wsTransport) run(ctx context.Context) {
	defer t.wg.Done()

	retry := &backoff.Backoff{
		Min:    t.cfg.ReconnectMinWait,
		Max:    t.cfg.ReconnectMaxWait,
		Factor: 2,
		Jitter: true,
	}

	for {
		conn, err := t.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := retry.Duration()
			t.logger.Warn("push connection failed", "url", t.cfg.URL, "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		retry.Reset()
		t.logger.Info("push connection established", "url", t.cfg.URL)
		t.emit(ctx, Event{Kind: EventOpen, At: time.Now()})

		readErr := t.readLoop(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}

		t.logger.Warn("push connection closed", "error", readErr)
		t.emit(ctx, Event{Kind: EventClosed, At: time.Now(), Err: readErr})

		wait := retry.Duration()
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (t *wsTransport) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: t.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, t.cfg.URL, nil)
	return conn, err
}

// readLoop reads messages until the connection fails or ctx is done.
func (t *wsTransport) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		t.emit(ctx, Event{Kind: EventMessage, Data: data, At: time.Now()})
	}
}

// emit delivers an event, dropping it if the consumer is gone.
func (t *wsTransport) emit(ctx context.Context, ev Event) {
	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}
