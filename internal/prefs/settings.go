package prefs

import (
	"time"

	"github.com/rvinod/tickwatch/internal/exchange"
)

// DefaultThresholdMs is the staleness threshold for instruments without
// an override: 30 seconds.
const DefaultThresholdMs = 30000

// ThresholdOverride is a per-instrument staleness threshold. Unique per
// ticker; absent entries fall back to the default threshold.
type ThresholdOverride struct {
	Ticker      string `json:"ticker"`
	Exchange    string `json:"exchange"`
	ThresholdMs uint32 `json:"threshold_ms"`
}

// Settings is the persisted user preference document.
type Settings struct {
	Overrides          []ThresholdOverride `json:"threshold_overrides"`
	DefaultThresholdMs uint32              `json:"default_threshold_ms"`
	MonitoringEnabled  bool                `json:"monitoring_enabled"`
	// ExchangeAlerts maps exchange code -> alerts enabled. Missing in
	// legacy documents; the versioned load fills it all-enabled.
	ExchangeAlerts map[string]bool `json:"exchange_alerts"`
}

// DefaultSettings returns the out-of-the-box preference document:
// 30s default threshold, no overrides, monitoring on, every exchange
// enabled.
func DefaultSettings() Settings {
	alerts := make(map[string]bool)
	for _, code := range exchange.Codes() {
		alerts[code] = true
	}
	return Settings{
		Overrides:          []ThresholdOverride{},
		DefaultThresholdMs: DefaultThresholdMs,
		MonitoringEnabled:  true,
		ExchangeAlerts:     alerts,
	}
}

// Threshold resolves the staleness threshold for a ticker: override if
// present, the default otherwise.
func (s Settings) Threshold(ticker string) time.Duration {
	for _, o := range s.Overrides {
		if o.Ticker == ticker {
			return time.Duration(o.ThresholdMs) * time.Millisecond
		}
	}
	return time.Duration(s.DefaultThresholdMs) * time.Millisecond
}

// AlertsEnabled reports whether alerts are on for an exchange. Only an
// explicit false disables; unknown exchanges default to enabled.
func (s Settings) AlertsEnabled(exchangeCode string) bool {
	enabled, ok := s.ExchangeAlerts[exchangeCode]
	if !ok {
		return true
	}
	return enabled
}

// clone deep-copies the document so callers never alias store state.
func (s Settings) clone() Settings {
	out := s
	out.Overrides = make([]ThresholdOverride, len(s.Overrides))
	copy(out.Overrides, s.Overrides)
	out.ExchangeAlerts = make(map[string]bool, len(s.ExchangeAlerts))
	for k, v := range s.ExchangeAlerts {
		out.ExchangeAlerts[k] = v
	}
	return out
}
