package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *WatcherConfig) Validate() error {
	if !strings.HasPrefix(c.Relay.WSURL, "ws://") && !strings.HasPrefix(c.Relay.WSURL, "wss://") {
		return fmt.Errorf("relay.ws_url must be a ws:// or wss:// URL, got %q", c.Relay.WSURL)
	}
	if !strings.HasPrefix(c.Relay.FetchURL, "http://") && !strings.HasPrefix(c.Relay.FetchURL, "https://") {
		return fmt.Errorf("relay.fetch_url must be an http(s) URL, got %q", c.Relay.FetchURL)
	}
	if c.Relay.ReconnectMinWait > c.Relay.ReconnectMaxWait {
		return errors.New("relay.reconnect_min_wait must not exceed relay.reconnect_max_wait")
	}
	if c.Evaluator.TickInterval < 100*time.Millisecond {
		return errors.New("evaluator.tick_interval must be >= 100ms")
	}
	if c.Prefs.Path == "" {
		return errors.New("prefs.path is required")
	}
	if c.Notifications.HistoryLimit < 1 {
		return errors.New("notifications.history_limit must be >= 1")
	}
	if c.Status.Port < 1 || c.Status.Port > 65535 {
		return fmt.Errorf("status.port must be between 1 and 65535, got %d", c.Status.Port)
	}
	return nil
}

// Validate checks the relay configuration.
func (c *RelayConfig) Validate() error {
	if !strings.HasPrefix(c.Upstream.URL, "http://") && !strings.HasPrefix(c.Upstream.URL, "https://") {
		return fmt.Errorf("upstream.url must be an http(s) URL, got %q", c.Upstream.URL)
	}
	if c.Upstream.ReconnectDelay < time.Second {
		return errors.New("upstream.reconnect_delay must be >= 1s")
	}
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port must be between 1 and 65535, got %d", c.Listen.Port)
	}
	if c.Simulator.Interval < 100*time.Millisecond {
		return errors.New("simulator.interval must be >= 100ms")
	}
	return nil
}
