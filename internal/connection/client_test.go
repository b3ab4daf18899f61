package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// wsURL converts an httptest server URL to a ws:// URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func collectEvents(t *testing.T, events <-chan Event, n int, timeout time.Duration) []Event {
	t.Helper()
	var out []Event
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case ev := <-events:
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d/%d events: %v", len(out), n, out)
		}
	}
	return out
}

func TestTransport_OpenMessageClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`))
		conn.Close()
	}))
	defer srv.Close()

	cfg := DefaultTransportConfig()
	cfg.URL = wsURL(srv)
	cfg.ReconnectMinWait = 10 * time.Millisecond
	tr := NewTransport(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer tr.Stop()

	got := collectEvents(t, tr.Events(), 3, 5*time.Second)
	if got[0].Kind != EventOpen {
		t.Errorf("event 0 = %v, want EventOpen", got[0].Kind)
	}
	if got[1].Kind != EventMessage || string(got[1].Data) != `{"data":{}}` {
		t.Errorf("event 1 = %+v, want the message", got[1])
	}
	if got[2].Kind != EventClosed {
		t.Errorf("event 2 = %v, want EventClosed", got[2].Kind)
	}
}

func TestTransport_ReconnectsAfterDrop(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns.Add(1)
		// Drop immediately; the transport should come back.
		conn.Close()
	}))
	defer srv.Close()

	cfg := DefaultTransportConfig()
	cfg.URL = wsURL(srv)
	cfg.ReconnectMinWait = 10 * time.Millisecond
	cfg.ReconnectMaxWait = 50 * time.Millisecond
	tr := NewTransport(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer tr.Stop()

	// Expect at least two opens: initial connection plus a reconnect.
	opens := 0
	deadline := time.After(5 * time.Second)
	for opens < 2 {
		select {
		case ev := <-tr.Events():
			if ev.Kind == EventOpen {
				opens++
			}
		case <-deadline:
			t.Fatalf("saw %d opens before timeout, want 2", opens)
		}
	}
	if conns.Load() < 2 {
		t.Errorf("server saw %d connections, want >= 2", conns.Load())
	}
}

func TestTransport_StartTwice(t *testing.T) {
	cfg := DefaultTransportConfig()
	cfg.URL = "ws://127.0.0.1:0/nowhere"
	tr := NewTransport(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := tr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := tr.Start(ctx); err != ErrAlreadyStarted {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	tr.Stop()
}
