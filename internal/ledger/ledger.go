package ledger

import (
	"sync"
	"time"

	"github.com/rvinod/tickwatch/internal/model"
)

// Entry is the ledger's record for one instrument.
type Entry struct {
	LastPrice    float64   // Last observed price
	LastChangeAt time.Time // When the price last differed from the previous one
}

// ChangeSet lists the tickers whose price changed in one snapshot,
// including tickers seen for the first time.
type ChangeSet map[string]struct{}

// Ledger tracks last price and last-change time per instrument. Entries
// are owned exclusively by the Ledger; accessors return copies.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

// Apply folds one snapshot into the ledger and returns the set of tickers
// whose price differed from the recorded one. A first-seen ticker always
// counts as changed. An unchanged price leaves LastChangeAt untouched, so
// re-applying an identical snapshot is a no-op with an empty ChangeSet.
//
// now is the processing wall-clock, not the snapshot's own timestamp.
func (l *Ledger) Apply(snap model.Snapshot, now time.Time) ChangeSet {
	changed := make(ChangeSet)

	l.mu.Lock()
	defer l.mu.Unlock()

	for ticker, tick := range snap.Prices {
		entry, ok := l.entries[ticker]
		if !ok {
			l.entries[ticker] = &Entry{LastPrice: tick.Price, LastChangeAt: now}
			changed[ticker] = struct{}{}
			continue
		}
		if tick.Price != entry.LastPrice {
			entry.LastPrice = tick.Price
			entry.LastChangeAt = now
			changed[ticker] = struct{}{}
		}
	}
	return changed
}

// Entry returns a copy of one instrument's record.
func (l *Ledger) Entry(ticker string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[ticker]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns a copy of every record, keyed by ticker.
func (l *Ledger) Entries() map[string]Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]Entry, len(l.entries))
	for ticker, e := range l.entries {
		out[ticker] = *e
	}
	return out
}

// Len returns the number of tracked instruments.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}
