package relay

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rvinod/tickwatch/internal/config"
)

func relayTestConfig(upstreamURL string) *config.RelayConfig {
	return &config.RelayConfig{
		Upstream: config.UpstreamConfig{
			URL:            upstreamURL,
			ReconnectDelay: 50 * time.Millisecond,
			RequestTimeout: time.Second,
		},
		Simulator: config.SimulatorConfig{
			Enabled:  true,
			Interval: 10 * time.Millisecond,
		},
	}
}

func startServer(t *testing.T, cfg *config.RelayConfig) *Server {
	t.Helper()
	srv := NewServer(cfg, testLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := srv.startWith(context.Background(), ln); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv
}

func TestServer_SimulatorFallbackServesData(t *testing.T) {
	// Point the upstream at a port nothing listens on so the first
	// connect fails and the simulated feed takes over.
	srv := startServer(t, relayTestConfig("http://127.0.0.1:1/stream"))
	base := "http://" + srv.Addr().String()

	var body string
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(base + "/api/stock-data")
		if err != nil {
			t.Fatalf("GET /api/stock-data: %v", err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			body = string(raw)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no data before deadline, last status %d", resp.StatusCode)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !strings.Contains(body, "RELIANCE") {
		t.Errorf("cached snapshot %q missing simulated instrument", body)
	}
}

func TestServer_UpstreamDataReachesCache(t *testing.T) {
	feed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: {\"timestamp\":\"2025-04-21T11:00:00Z\",\"data\":{\"INFY\":{\"last_price\":1456.2,\"timestamp\":\"2025-04-21T11:00:00Z\"}}}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the stream open so the consumer does not churn.
		<-r.Context().Done()
	})
	feedLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	feedSrv := &http.Server{Handler: feed}
	go feedSrv.Serve(feedLn)
	t.Cleanup(func() { feedSrv.Close() })

	srv := startServer(t, relayTestConfig("http://"+feedLn.Addr().String()+"/stream"))
	base := "http://" + srv.Addr().String()

	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(base + "/api/stock-data")
		if err != nil {
			t.Fatalf("GET /api/stock-data: %v", err)
		}
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			if !strings.Contains(string(raw), "INFY") {
				t.Fatalf("snapshot %q missing upstream instrument", raw)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("upstream snapshot never reached the cache")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestServer_DoubleStartFails(t *testing.T) {
	srv := startServer(t, relayTestConfig("http://127.0.0.1:1/stream"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := srv.startWith(context.Background(), ln); err != ErrAlreadyStarted {
		t.Errorf("second start error = %v, want ErrAlreadyStarted", err)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	srv := startServer(t, relayTestConfig("http://127.0.0.1:1/stream"))

	resp, err := http.Get("http://" + srv.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
