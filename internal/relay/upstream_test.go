package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rvinod/tickwatch/internal/config"
	"github.com/rvinod/tickwatch/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func upstreamCfg(url string) config.UpstreamConfig {
	return config.UpstreamConfig{
		URL:            url,
		ReconnectDelay: 50 * time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func TestUpstream_StreamsSnapshots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept header = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"timestamp\":\"2025-04-21T11:00:00Z\",\"data\":{\"RELIANCE\":{\"last_price\":2990.5,\"timestamp\":\"2025-04-21T11:00:00Z\"}}}\n\n")
		fmt.Fprintf(w, ": keep-alive comment\n")
		fmt.Fprintf(w, "data: not json at all\n\n")
		fmt.Fprintf(w, "data: {\"timestamp\":\"2025-04-21T11:00:01Z\",\"data\":{\"RELIANCE\":{\"last_price\":2991.0,\"timestamp\":\"2025-04-21T11:00:01Z\"}}}\n\n")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan model.Snapshot, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewUpstream(upstreamCfg(srv.URL), testLogger()).Run(ctx, out)
	}()

	var got []model.Snapshot
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case snap := <-out:
			got = append(got, snap)
		case <-timeout:
			t.Fatalf("timed out with %d snapshots", len(got))
		}
	}

	if p := got[0].Prices["RELIANCE"].Price; p != 2990.5 {
		t.Errorf("first snapshot price = %v, want 2990.5", p)
	}
	if p := got[1].Prices["RELIANCE"].Price; p != 2991.0 {
		t.Errorf("second snapshot price = %v, want 2991.0", p)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error after cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}

func TestUpstream_FirstConnectFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	out := make(chan model.Snapshot, 1)
	err := NewUpstream(upstreamCfg(srv.URL), testLogger()).Run(context.Background(), out)
	if err == nil {
		t.Fatal("Run succeeded against a closed server, want error")
	}
}

func TestUpstream_ReconnectsAfterDataFlowed(t *testing.T) {
	var connects int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		connects++
		fmt.Fprintf(w, "data: {\"timestamp\":\"2025-04-21T11:00:00Z\",\"data\":{\"INFY\":{\"last_price\":%d,\"timestamp\":\"2025-04-21T11:00:00Z\"}}}\n\n", 1000+connects)
		// Handler returns, closing the stream; the consumer should dial again.
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan model.Snapshot, 8)
	go NewUpstream(upstreamCfg(srv.URL), testLogger()).Run(ctx, out)

	var got []model.Snapshot
	timeout := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case snap := <-out:
			got = append(got, snap)
		case <-timeout:
			t.Fatalf("timed out with %d snapshots, want reconnect to deliver a second", len(got))
		}
	}

	if got[0].Prices["INFY"].Price == got[1].Prices["INFY"].Price {
		t.Error("snapshots from separate connections carry the same price")
	}
}
