package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// Storage keys. The settings key is versioned so future shape changes get
// their own load path instead of ad hoc field checks at call sites.
const (
	settingsKey = "settings|v1"
	lastDayKey  = "settings|last_day"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("prefs: store is closed")

// Store is the durable preference store. All reads are served from the
// in-memory document; every mutation writes the full document through to
// Pebble before returning.
type Store struct {
	db     *pebble.DB
	logger *slog.Logger

	mu       sync.Mutex
	settings Settings
	closed   bool
}

// Open loads (or initializes) the preference store at path. Absent or
// unreadable documents fall back to defaults rather than failing startup.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}

	s := &Store{db: db, logger: logger}
	s.settings = s.loadAndUpgrade()
	return s, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// loadAndUpgrade reads the persisted document and migrates legacy shapes
// forward. The migration is one-way: a legacy document missing the
// exchange_alerts field gets it filled all-enabled.
func (s *Store) loadAndUpgrade() Settings {
	raw, ok := s.get(settingsKey)
	if !ok {
		return DefaultSettings()
	}

	var loaded Settings
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("stored settings unreadable, using defaults", "error", err)
		return DefaultSettings()
	}

	if loaded.ExchangeAlerts == nil {
		s.logger.Info("migrating legacy settings: enabling alerts for all exchanges")
		loaded.ExchangeAlerts = DefaultSettings().ExchangeAlerts
	}
	if loaded.DefaultThresholdMs == 0 {
		loaded.DefaultThresholdMs = DefaultThresholdMs
	}
	if loaded.Overrides == nil {
		loaded.Overrides = []ThresholdOverride{}
	}
	return loaded
}

// Settings returns a copy of the current document.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.clone()
}

// Threshold resolves the staleness threshold for a ticker.
func (s *Store) Threshold(ticker string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.Threshold(ticker)
}

// SetThreshold sets a per-instrument threshold override, replacing any
// existing override for the ticker.
func (s *Store) SetThreshold(ticker, exchangeCode string, threshold time.Duration) error {
	return s.mutate(func(st *Settings) {
		kept := st.Overrides[:0]
		for _, o := range st.Overrides {
			if o.Ticker != ticker {
				kept = append(kept, o)
			}
		}
		st.Overrides = append(kept, ThresholdOverride{
			Ticker:      ticker,
			Exchange:    exchangeCode,
			ThresholdMs: uint32(threshold / time.Millisecond),
		})
	})
}

// RemoveThreshold deletes a ticker's override, reverting it to the default.
func (s *Store) RemoveThreshold(ticker string) error {
	return s.mutate(func(st *Settings) {
		kept := st.Overrides[:0]
		for _, o := range st.Overrides {
			if o.Ticker != ticker {
				kept = append(kept, o)
			}
		}
		st.Overrides = kept
	})
}

// SetDefaultThreshold updates the fallback threshold.
func (s *Store) SetDefaultThreshold(threshold time.Duration) error {
	return s.mutate(func(st *Settings) {
		st.DefaultThresholdMs = uint32(threshold / time.Millisecond)
	})
}

// ToggleMonitoring flips the global monitoring switch and returns the new
// state.
func (s *Store) ToggleMonitoring() (bool, error) {
	var enabled bool
	err := s.mutate(func(st *Settings) {
		st.MonitoringEnabled = !st.MonitoringEnabled
		enabled = st.MonitoringEnabled
	})
	return enabled, err
}

// ToggleExchangeAlert flips alerts for one exchange and returns the new
// state. Exchanges not yet present in the document are added enabled.
func (s *Store) ToggleExchangeAlert(exchangeCode string) (bool, error) {
	var enabled bool
	err := s.mutate(func(st *Settings) {
		if cur, ok := st.ExchangeAlerts[exchangeCode]; ok {
			st.ExchangeAlerts[exchangeCode] = !cur
		} else {
			st.ExchangeAlerts[exchangeCode] = true
		}
		enabled = st.ExchangeAlerts[exchangeCode]
	})
	return enabled, err
}

// RollMonitoringDay re-enables monitoring when a new calendar day is first
// observed while it was off. Silencing alerts is a same-day-only opt-out.
// Returns whether monitoring was re-enabled.
func (s *Store) RollMonitoringDay(today time.Time) (bool, error) {
	date := today.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	reenabled := false
	if raw, ok := s.get(lastDayKey); ok {
		if string(raw) != date && !s.settings.MonitoringEnabled {
			s.settings.MonitoringEnabled = true
			reenabled = true
			if err := s.persistLocked(); err != nil {
				return false, err
			}
		}
	}

	if err := s.db.Set([]byte(lastDayKey), []byte(date), pebble.Sync); err != nil {
		return reenabled, fmt.Errorf("persist last seen date: %w", err)
	}
	return reenabled, nil
}

// mutate applies fn to the document under lock and writes it through.
func (s *Store) mutate(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	fn(&s.settings)
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	raw, err := json.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.db.Set([]byte(settingsKey), raw, pebble.Sync); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// get reads one key, swallowing not-found.
func (s *Store) get(key string) ([]byte, bool) {
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			s.logger.Warn("prefs read failed", "key", key, "error", err)
		}
		return nil, false
	}
	out := make([]byte, len(value))
	copy(out, value)
	closer.Close()
	return out, true
}
