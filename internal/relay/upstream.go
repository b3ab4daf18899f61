package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rvinod/tickwatch/internal/config"
	"github.com/rvinod/tickwatch/internal/model"
)

// maxEventSize bounds a single SSE line. Snapshots carry every tracked
// instrument in one payload, so the line can be large.
const maxEventSize = 1 << 20

// Upstream consumes the server-sent-events tick feed and delivers parsed
// snapshots to a channel.
type Upstream struct {
	url            string
	reconnectDelay time.Duration
	client         *http.Client
	logger         *slog.Logger
}

// NewUpstream creates an upstream consumer for the configured feed.
func NewUpstream(cfg config.UpstreamConfig, logger *slog.Logger) *Upstream {
	return &Upstream{
		url:            cfg.URL,
		reconnectDelay: cfg.ReconnectDelay,
		client: &http.Client{
			// No overall timeout: the response body is a long-lived
			// stream. The header timeout bounds the connect phase.
			Transport: &http.Transport{
				ResponseHeaderTimeout: cfg.RequestTimeout,
			},
		},
		logger: logger.With("component", "upstream"),
	}
}

// Run streams snapshots to out until ctx is cancelled. If the very first
// connection attempt fails before any data arrives, Run returns the error
// so the caller can fall back to a simulated feed. Once data has flowed,
// dropped streams are retried after the configured delay.
func (u *Upstream) Run(ctx context.Context, out chan<- model.Snapshot) error {
	delivered := false
	for {
		n, err := u.stream(ctx, out)
		if n > 0 {
			delivered = true
		}
		if ctx.Err() != nil {
			return nil
		}
		if !delivered {
			return fmt.Errorf("upstream feed unreachable: %w", err)
		}

		u.logger.Warn("upstream stream ended, reconnecting",
			"error", err,
			"delay", u.reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(u.reconnectDelay):
		}
	}
}

// stream opens one SSE connection and forwards events until the stream
// breaks. It returns the number of snapshots delivered.
func (u *Upstream) stream(ctx context.Context, out chan<- model.Snapshot) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := u.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	u.logger.Info("connected to upstream feed", "url", u.url)

	delivered := 0
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		snap, err := model.ParseSnapshot([]byte(payload), time.Now())
		if err != nil {
			u.logger.Debug("dropping malformed event", "error", err)
			continue
		}

		select {
		case out <- snap:
			delivered++
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
	if serr := scanner.Err(); serr != nil {
		return delivered, fmt.Errorf("stream read: %w", serr)
	}
	return delivered, errors.New("stream closed by server")
}
