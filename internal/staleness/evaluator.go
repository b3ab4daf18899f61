package staleness

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rvinod/tickwatch/internal/calendar"
	"github.com/rvinod/tickwatch/internal/exchange"
	"github.com/rvinod/tickwatch/internal/ledger"
	"github.com/rvinod/tickwatch/internal/notify"
	"github.com/rvinod/tickwatch/internal/prefs"
)

// TickInterval is the fixed evaluation cadence.
const TickInterval = time.Second

// Stale describes one instrument currently judged stale.
type Stale struct {
	Ticker    string        `json:"ticker"`
	Exchange  string        `json:"exchange"`
	Elapsed   time.Duration `json:"elapsed"`
	Threshold time.Duration `json:"threshold"`
}

// StaleSet is the current set of stale instruments, keyed by ticker.
// Derived and ephemeral; recomputed every tick, never persisted.
type StaleSet map[string]Stale

// Evaluator combines ledger state, preferences, and the market calendar
// into the current StaleSet, emitting one notification per transition
// into staleness.
type Evaluator struct {
	ledger   *ledger.Ledger
	store    *prefs.Store
	cal      *calendar.Calendar
	resolver *exchange.Resolver
	sink     *notify.Sink
	logger   *slog.Logger

	mu   sync.Mutex
	prev StaleSet
}

// New creates an Evaluator. A nil logger falls back to slog.Default().
func New(l *ledger.Ledger, store *prefs.Store, cal *calendar.Calendar, resolver *exchange.Resolver, sink *notify.Sink, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		ledger:   l,
		store:    store,
		cal:      cal,
		resolver: resolver,
		sink:     sink,
		logger:   logger,
		prev:     make(StaleSet),
	}
}

// Evaluate recomputes the StaleSet at now and publishes a single Stale
// notification when the set grew since the previous tick. Shrinkage and
// unchanged membership emit nothing.
func (e *Evaluator) Evaluate(now time.Time) StaleSet {
	settings := e.store.Settings()
	current := e.compute(now, settings)

	e.mu.Lock()
	prev := e.prev
	e.prev = current
	e.mu.Unlock()

	// Growth detection by ticker membership only.
	var entered []string
	for ticker := range current {
		if _, was := prev[ticker]; !was {
			entered = append(entered, ticker)
		}
	}
	if len(entered) > 0 {
		e.notifyStale(entered, current, now)
	}
	return current
}

// Current returns the StaleSet from the most recent tick.
func (e *Evaluator) Current() StaleSet {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(StaleSet, len(e.prev))
	for k, v := range e.prev {
		out[k] = v
	}
	return out
}

func (e *Evaluator) compute(now time.Time, settings prefs.Settings) StaleSet {
	current := make(StaleSet)

	// Global kill switch: nothing is ever stale while monitoring is off.
	if !settings.MonitoringEnabled {
		return current
	}

	for ticker, entry := range e.ledger.Entries() {
		exc := e.resolver.Resolve(ticker)
		if !settings.AlertsEnabled(exc) {
			continue
		}
		// Staleness is only meaningful while the segment is trading.
		if !e.cal.IsOpen(exc, now) {
			continue
		}

		elapsed := now.Sub(entry.LastChangeAt)
		threshold := settings.Threshold(ticker)
		if elapsed > threshold {
			current[ticker] = Stale{
				Ticker:    ticker,
				Exchange:  exc,
				Elapsed:   elapsed,
				Threshold: threshold,
			}
		}
	}
	return current
}

// notifyStale emits exactly one event for the tickers that entered
// staleness this tick.
func (e *Evaluator) notifyStale(entered []string, current StaleSet, now time.Time) {
	sort.Strings(entered)

	ev := notify.Event{Kind: notify.KindStale, OccurredAt: now}
	if len(entered) == 1 {
		s := current[entered[0]]
		ev.Ticker = s.Ticker
		ev.Exchange = s.Exchange
		ev.Message = fmt.Sprintf("%s: no price change for over %d seconds",
			s.Ticker, int(s.Threshold/time.Second))
	} else {
		ev.Message = fmt.Sprintf("no fresh data on %d instruments: %s",
			len(entered), strings.Join(entered, ", "))
	}

	e.sink.Publish(ev)
	e.logger.Warn("instruments entered staleness", "tickers", entered)
}
