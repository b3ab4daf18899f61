// Package api is the one-shot snapshot fetch client: a plain GET against
// the relay's cached-snapshot endpoint, used for manual refresh and to
// prime state before the push transport delivers its first message.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rvinod/tickwatch/internal/model"
)

// APIError represents a non-2xx response from the relay.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Client fetches snapshots from the relay over HTTP.
type Client struct {
	fetchURL   string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a snapshot fetch client.
func NewClient(fetchURL string, opts ...ClientOption) *Client {
	c := &Client{
		fetchURL: fetchURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   2,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// FetchSnapshot GETs the latest cached snapshot. Retries transient
// failures with jittered exponential backoff up to the configured
// attempts; beyond that the error surfaces to the caller, who decides
// whether to retry (no automatic retry loop for this path).
func (c *Client) FetchSnapshot(ctx context.Context) (model.Snapshot, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			c.logger.Debug("retrying snapshot fetch", "attempt", attempt, "backoff", jitter)

			select {
			case <-ctx.Done():
				return model.Snapshot{}, ctx.Err()
			case <-time.After(jitter):
			}
			backoff *= 2
		}

		snap, err := c.fetchOnce(ctx)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if apiErr, ok := err.(*APIError); ok && !apiErr.IsRetryable() {
			return model.Snapshot{}, err
		}
	}
	return model.Snapshot{}, fmt.Errorf("fetch snapshot: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) (model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fetchURL, nil)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return model.Snapshot{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return model.ParseSnapshot(body, time.Now())
}
