package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRelayWSURL       = "ws://localhost:8090/ws"
	DefaultRelayFetchURL    = "http://localhost:8090/api/stock-data"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReconnectMinWait = 1 * time.Second
	DefaultReconnectMaxWait = 60 * time.Second
	DefaultFetchTimeout     = 10 * time.Second
	DefaultFetchRetries     = 2
	DefaultTickInterval     = 1 * time.Second
	DefaultPrefsPath        = "data/prefs"
	DefaultExchange         = "NSE"
	DefaultHistoryLimit     = 50
	DefaultStatusPort       = 8091

	DefaultUpstreamURL            = "https://api-ticks.rvinod.com/stream"
	DefaultUpstreamReconnectDelay = 5 * time.Second
	DefaultUpstreamTimeout        = 30 * time.Second
	DefaultRelayPort              = 8090
	DefaultSimulatorInterval      = 3 * time.Second
)

func (c *WatcherConfig) applyDefaults() {
	if c.Relay.WSURL == "" {
		c.Relay.WSURL = DefaultRelayWSURL
	}
	if c.Relay.FetchURL == "" {
		c.Relay.FetchURL = DefaultRelayFetchURL
	}
	if c.Relay.HandshakeTimeout == 0 {
		c.Relay.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Relay.ReconnectMinWait == 0 {
		c.Relay.ReconnectMinWait = DefaultReconnectMinWait
	}
	if c.Relay.ReconnectMaxWait == 0 {
		c.Relay.ReconnectMaxWait = DefaultReconnectMaxWait
	}
	if c.Relay.FetchTimeout == 0 {
		c.Relay.FetchTimeout = DefaultFetchTimeout
	}
	if c.Relay.FetchRetries == 0 {
		c.Relay.FetchRetries = DefaultFetchRetries
	}
	if c.Evaluator.TickInterval == 0 {
		c.Evaluator.TickInterval = DefaultTickInterval
	}
	if c.Prefs.Path == "" {
		c.Prefs.Path = DefaultPrefsPath
	}
	if c.Exchange.Default == "" {
		c.Exchange.Default = DefaultExchange
	}
	if c.Notifications.HistoryLimit == 0 {
		c.Notifications.HistoryLimit = DefaultHistoryLimit
	}
	if c.Status.Port == 0 {
		c.Status.Port = DefaultStatusPort
	}
}

func (c *RelayConfig) applyDefaults() {
	if c.Upstream.URL == "" {
		c.Upstream.URL = DefaultUpstreamURL
	}
	if c.Upstream.ReconnectDelay == 0 {
		c.Upstream.ReconnectDelay = DefaultUpstreamReconnectDelay
	}
	if c.Upstream.RequestTimeout == 0 {
		c.Upstream.RequestTimeout = DefaultUpstreamTimeout
	}
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultRelayPort
	}
	if c.Simulator.Interval == 0 {
		c.Simulator.Interval = DefaultSimulatorInterval
	}
}
