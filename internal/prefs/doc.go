// Package prefs persists user settings in a local Pebble key/value store:
// per-instrument staleness thresholds, the default threshold, the global
// monitoring switch, and per-exchange alert toggles.
//
// The document loads once at startup (migrating legacy shapes forward)
// and every mutation persists the full document synchronously. Mutations
// are human-driven; correctness beats throughput here.
package prefs
