package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/rvinod/tickwatch/internal/config"
	"github.com/rvinod/tickwatch/internal/model"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("relay server already started")

// Server ties the upstream feed, the fallback simulator, the fanout hub,
// and the HTTP surface together.
type Server struct {
	cfg    *config.RelayConfig
	logger *slog.Logger

	hub      *Hub
	upstream *Upstream
	sim      *Simulator

	mu         sync.Mutex
	started    bool
	ln         net.Listener
	httpServer *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewServer creates a relay server from configuration.
func NewServer(cfg *config.RelayConfig, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      NewHub(logger),
		upstream: NewUpstream(cfg.Upstream, logger),
		sim:      NewSimulator(cfg.Simulator, logger),
	}
}

// Start binds the configured port and begins serving. It returns once
// the listener is accepting; feed consumption and fanout run in
// background goroutines until Stop.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Listen.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Listen.Port, err)
	}
	return s.startWith(ctx, ln)
}

func (s *Server) startWith(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		ln.Close()
		return ErrAlreadyStarted
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stock-data", s.handleStockData)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.httpServer = &http.Server{Handler: mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(runCtx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runFeed(runCtx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()

	s.logger.Info("relay started", "addr", ln.Addr().String(), "upstream", s.cfg.Upstream.URL)
	return nil
}

// Stop shuts down the HTTP surface and background goroutines. The ctx
// bounds the HTTP drain.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	err := s.httpServer.Shutdown(ctx)
	s.cancel()
	s.wg.Wait()
	s.logger.Info("relay stopped")
	return err
}

// Addr reports the bound listen address.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// runFeed consumes the upstream stream and pushes encoded snapshots into
// the hub. If the upstream cannot be reached at all and the simulator is
// enabled, the simulated feed takes over for the life of the process.
func (s *Server) runFeed(ctx context.Context) {
	out := make(chan model.Snapshot, 8)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case snap := <-out:
				s.publish(snap)
			case <-ctx.Done():
				return
			}
		}
	}()

	err := s.upstream.Run(ctx, out)
	if err == nil || ctx.Err() != nil {
		return
	}

	if !s.cfg.Simulator.Enabled {
		s.logger.Error("upstream feed unavailable and simulator disabled", "error", err)
		return
	}
	s.logger.Warn("upstream feed unavailable, switching to simulated data", "error", err)
	s.sim.Run(ctx, out)
}

func (s *Server) publish(snap model.Snapshot) {
	payload, err := model.EncodeSnapshot(snap)
	if err != nil {
		s.logger.Error("encode snapshot failed", "error", err)
		return
	}
	s.hub.Broadcast(payload)
}

// handleStockData serves the latest snapshot for one-shot consumers,
// such as a watcher refreshing after reconnect.
func (s *Server) handleStockData(w http.ResponseWriter, r *http.Request) {
	latest := s.hub.Latest()
	if latest == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(latest)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
