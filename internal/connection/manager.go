package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rvinod/tickwatch/internal/api"
	"github.com/rvinod/tickwatch/internal/ledger"
	"github.com/rvinod/tickwatch/internal/model"
	"github.com/rvinod/tickwatch/internal/prefs"
	"github.com/rvinod/tickwatch/internal/staleness"
)

// Manager reacts to transport events and drives the core on every inbound
// snapshot: parse, feed the ledger, keep status, and run the staleness
// evaluator on its fixed tick.
type Manager struct {
	transport Transport
	fetcher   *api.Client
	ledger    *ledger.Ledger
	evaluator *staleness.Evaluator
	store     *prefs.Store
	logger    *slog.Logger

	tickInterval time.Duration

	mu            sync.Mutex
	state         State
	connectedAt   time.Time
	lastDataAt    time.Time
	lastRefreshAt time.Time
	lastDay       string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager wires the core together. tickInterval <= 0 uses the
// evaluator's fixed one-second cadence.
func NewManager(transport Transport, fetcher *api.Client, l *ledger.Ledger, eval *staleness.Evaluator, store *prefs.Store, tickInterval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if tickInterval <= 0 {
		tickInterval = staleness.TickInterval
	}
	return &Manager{
		transport:    transport,
		fetcher:      fetcher,
		ledger:       l,
		evaluator:    eval,
		store:        store,
		logger:       logger,
		tickInterval: tickInterval,
		state:        StateDisconnected,
	}
}

// Start begins the transport and the run loop.
func (m *Manager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if err := m.transport.Start(runCtx); err != nil {
		cancel()
		return err
	}

	// Day-rollover check on startup: a silenced monitoring switch does
	// not survive into a new calendar day.
	m.rollDay(time.Now())

	m.wg.Add(1)
	go m.run(runCtx)

	m.logger.Info("connection manager started", "tick", m.tickInterval)
	return nil
}

// Stop tears down the run loop and the transport.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("connection manager stop timed out")
	}

	if err := m.transport.Stop(); err != nil && err != ErrNotStarted {
		return err
	}
	m.logger.Info("connection manager stopped")
	return nil
}

// Status returns the current connection view.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Status{
		State:         m.state,
		ConnectedAt:   m.connectedAt,
		LastDataAt:    m.lastDataAt,
		LastRefreshAt: m.lastRefreshAt,
	}
}

// Refresh primes the ledger with a one-shot fetch, independent of the
// push transport. The fetch error surfaces to the caller; there is no
// automatic retry loop for this path.
func (m *Manager) Refresh(ctx context.Context) error {
	snap, err := m.fetcher.FetchSnapshot(ctx)
	if err != nil {
		m.logger.Warn("manual refresh failed", "error", err)
		return err
	}

	now := time.Now()
	changed := m.ledger.Apply(snap, now)

	m.mu.Lock()
	m.lastRefreshAt = now
	m.mu.Unlock()

	m.logger.Info("manual refresh applied", "instruments", len(snap.Prices), "changed", len(changed))
	return nil
}

// run consumes transport events and fires the evaluator tick, all on one
// goroutine: a snapshot is fully applied before a tick reads the ledger.
func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	tick := time.NewTicker(m.tickInterval)
	defer tick.Stop()

	events := m.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		case <-tick.C:
			now := time.Now()
			m.rollDay(now)
			m.evaluator.Evaluate(now)
		}
	}
}

func (m *Manager) handleEvent(ev Event) {
	switch ev.Kind {
	case EventOpen:
		m.mu.Lock()
		m.state = StateConnected
		m.connectedAt = ev.At
		m.mu.Unlock()

	case EventClosed:
		// Recoverable: the transport keeps retrying on its own.
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()

	case EventMessage:
		snap, err := model.ParseSnapshot(ev.Data, ev.At)
		if err != nil {
			// Noise, not a user-facing error: drop and carry on.
			m.logger.Debug("dropping unparseable push message", "error", err)
			return
		}
		m.ledger.Apply(snap, ev.At)

		m.mu.Lock()
		m.lastDataAt = ev.At
		m.mu.Unlock()
	}
}

// rollDay invokes the preference store's day-rollover reset once per
// observed calendar day.
func (m *Manager) rollDay(now time.Time) {
	day := now.Format("2006-01-02")

	m.mu.Lock()
	if m.lastDay == day {
		m.mu.Unlock()
		return
	}
	m.lastDay = day
	m.mu.Unlock()

	reenabled, err := m.store.RollMonitoringDay(now)
	if err != nil {
		m.logger.Warn("day rollover check failed", "error", err)
		return
	}
	if reenabled {
		m.logger.Info("monitoring re-enabled on day rollover")
	}
}
