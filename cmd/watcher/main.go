package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rvinod/tickwatch/internal/api"
	"github.com/rvinod/tickwatch/internal/calendar"
	"github.com/rvinod/tickwatch/internal/config"
	"github.com/rvinod/tickwatch/internal/connection"
	"github.com/rvinod/tickwatch/internal/exchange"
	"github.com/rvinod/tickwatch/internal/ledger"
	"github.com/rvinod/tickwatch/internal/notify"
	"github.com/rvinod/tickwatch/internal/prefs"
	"github.com/rvinod/tickwatch/internal/staleness"
	"github.com/rvinod/tickwatch/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/watcher.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting watcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadWatcher(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"ws_url", cfg.Relay.WSURL,
		"fetch_url", cfg.Relay.FetchURL,
		"prefs_path", cfg.Prefs.Path,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the preference store
	store, err := prefs.Open(cfg.Prefs.Path, logger)
	if err != nil {
		logger.Error("failed to open preference store", "error", err, "path", cfg.Prefs.Path)
		os.Exit(1)
	}
	defer store.Close()

	// Assemble the evaluation pipeline
	prices := ledger.New()
	cal := calendar.New(nil, nil)
	table := exchange.DefaultTable()
	for ticker, code := range cfg.Exchange.Table {
		table[ticker] = code
	}
	resolver := exchange.NewResolver(table, cfg.Exchange.Default)
	sink := notify.NewSink(cfg.Notifications.HistoryLimit)
	eval := staleness.New(prices, store, cal, resolver, sink, logger)

	sink.Subscribe(func(ev notify.Event) {
		logger.Info("notification",
			"kind", ev.Kind,
			"message", ev.Message,
			"ticker", ev.Ticker,
			"exchange", ev.Exchange,
		)
	})

	// Create the one-shot fetch client
	fetcher := api.NewClient(
		cfg.Relay.FetchURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Relay.FetchTimeout),
		api.WithRetries(cfg.Relay.FetchRetries, time.Second),
	)

	// Create the push transport and connection manager
	transport := connection.NewTransport(connection.TransportConfig{
		URL:              cfg.Relay.WSURL,
		HandshakeTimeout: cfg.Relay.HandshakeTimeout,
		ReconnectMinWait: cfg.Relay.ReconnectMinWait,
		ReconnectMaxWait: cfg.Relay.ReconnectMaxWait,
	}, logger)

	mgr := connection.NewManager(transport, fetcher, prices, eval, store,
		cfg.Evaluator.TickInterval, logger)

	if err := mgr.Start(ctx); err != nil {
		logger.Error("failed to start connection manager", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		mgr.Stop(shutdownCtx)
	}()

	// Status server exposes state and preference mutations
	statusServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Status.Port),
		Handler: createStatusHandler(mgr, eval, store, sink, cal, resolver, prices, logger),
	}

	go func() {
		logger.Info("starting status server", "port", cfg.Status.Port)
		if err := statusServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("status server error", "error", err)
		}
	}()

	logger.Info("watcher running",
		"status_url", fmt.Sprintf("http://localhost:%d/status", cfg.Status.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	statusServer.Shutdown(shutdownCtx)

	logger.Info("watcher stopped")
}

// createStatusHandler creates the HTTP handler for the watcher's status
// and settings surface.
func createStatusHandler(
	mgr *connection.Manager,
	eval *staleness.Evaluator,
	store *prefs.Store,
	sink *notify.Sink,
	cal *calendar.Calendar,
	resolver *exchange.Resolver,
	prices *ledger.Ledger,
	logger *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		conn := mgr.Status()

		markets := make(map[string]calendar.Status, len(exchange.Codes()))
		for _, code := range exchange.Codes() {
			markets[code] = cal.Status(code, now)
		}

		view := struct {
			Connection    connection.Status          `json:"connection"`
			ConnectedFor  string                     `json:"connected_for,omitempty"`
			LastData      string                     `json:"last_data,omitempty"`
			LastRefresh   string                     `json:"last_refresh,omitempty"`
			Monitoring    bool                       `json:"monitoring_enabled"`
			Instruments   int                        `json:"instruments"`
			Stale         staleness.StaleSet         `json:"stale"`
			Markets       map[string]calendar.Status `json:"markets"`
			Notifications int                        `json:"notifications"`
		}{
			Connection:    conn,
			Monitoring:    store.Settings().MonitoringEnabled,
			Instruments:   prices.Len(),
			Stale:         eval.Current(),
			Markets:       markets,
			Notifications: len(sink.History()),
		}
		if !conn.ConnectedAt.IsZero() {
			view.ConnectedFor = humanize.Time(conn.ConnectedAt)
		}
		if !conn.LastDataAt.IsZero() {
			view.LastData = humanize.Time(conn.LastDataAt)
		}
		if !conn.LastRefreshAt.IsZero() {
			view.LastRefresh = humanize.Time(conn.LastRefreshAt)
		}
		writeJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sink.History())
	})

	mux.HandleFunc("GET /settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.Settings())
	})

	mux.HandleFunc("POST /refresh", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		if err := mgr.Refresh(ctx); err != nil {
			logger.Warn("manual refresh failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
	})

	mux.HandleFunc("POST /settings/threshold", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Ticker      string `json:"ticker"`
			Exchange    string `json:"exchange"`
			ThresholdMs uint32 `json:"threshold_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticker == "" || req.ThresholdMs == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticker and threshold_ms are required"})
			return
		}
		code := req.Exchange
		if code == "" {
			code = resolver.Resolve(req.Ticker)
		}
		threshold := time.Duration(req.ThresholdMs) * time.Millisecond
		if err := store.SetThreshold(req.Ticker, code, threshold); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, store.Settings())
	})

	mux.HandleFunc("DELETE /settings/threshold", func(w http.ResponseWriter, r *http.Request) {
		ticker := r.URL.Query().Get("ticker")
		if ticker == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticker is required"})
			return
		}
		if err := store.RemoveThreshold(ticker); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, store.Settings())
	})

	mux.HandleFunc("POST /settings/default-threshold", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ThresholdMs uint32 `json:"threshold_ms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ThresholdMs == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "threshold_ms is required"})
			return
		}
		if err := store.SetDefaultThreshold(time.Duration(req.ThresholdMs) * time.Millisecond); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, store.Settings())
	})

	mux.HandleFunc("POST /settings/monitoring/toggle", func(w http.ResponseWriter, r *http.Request) {
		enabled, err := store.ToggleMonitoring()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		logger.Info("monitoring toggled", "enabled", enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"monitoring_enabled": enabled})
	})

	mux.HandleFunc("POST /settings/alerts/toggle", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Exchange string `json:"exchange"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Exchange == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exchange is required"})
			return
		}
		enabled, err := store.ToggleExchangeAlert(req.Exchange)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		logger.Info("exchange alerts toggled", "exchange", req.Exchange, "enabled", enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	return mux
}
