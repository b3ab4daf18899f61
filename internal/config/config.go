package config

import "time"

// WatcherConfig is the root configuration for a watcher instance.
type WatcherConfig struct {
	Relay         RelayEndpoints      `yaml:"relay"`
	Evaluator     EvaluatorConfig     `yaml:"evaluator"`
	Prefs         PrefsConfig         `yaml:"prefs"`
	Exchange      ExchangeConfig      `yaml:"exchange"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Status        StatusConfig        `yaml:"status"`
}

// RelayEndpoints locates the push relay.
type RelayEndpoints struct {
	WSURL            string        `yaml:"ws_url"`    // Push endpoint (ws://.../ws)
	FetchURL         string        `yaml:"fetch_url"` // One-shot snapshot endpoint
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	ReconnectMinWait time.Duration `yaml:"reconnect_min_wait"`
	ReconnectMaxWait time.Duration `yaml:"reconnect_max_wait"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	FetchRetries     int           `yaml:"fetch_retries"`
}

// EvaluatorConfig holds staleness evaluation settings.
type EvaluatorConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// PrefsConfig holds preference store settings.
type PrefsConfig struct {
	Path string `yaml:"path"` // Pebble directory
}

// ExchangeConfig holds instrument classification settings.
type ExchangeConfig struct {
	Default string            `yaml:"default"` // Exchange for unresolved tickers
	Table   map[string]string `yaml:"table"`   // Explicit ticker -> exchange entries
}

// NotificationsConfig holds notification sink settings.
type NotificationsConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

// StatusConfig holds the watcher's HTTP status surface settings.
type StatusConfig struct {
	Port int `yaml:"port"`
}

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Listen    ListenConfig    `yaml:"listen"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// UpstreamConfig locates the SSE tick feed.
type UpstreamConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ListenConfig holds the relay's HTTP listener settings.
type ListenConfig struct {
	Port int `yaml:"port"`
}

// SimulatorConfig controls the fallback simulated feed used when the
// upstream cannot be reached.
type SimulatorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}
