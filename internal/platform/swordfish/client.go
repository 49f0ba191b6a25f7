// Package swordfish is the REST client for the sharp reference odds feed.
package swordfish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kylemaddern/oddscreen/internal/domain"
)

// DefaultSource is the source id stamped on every reference quote.
const DefaultSource = "swordfish"

// Config holds client parameters.
type Config struct {
	// BaseURL is the API root, e.g. "https://swordfish.example.com/api".
	BaseURL string
	// APIKey, when set, is sent as X-API-Key on every request.
	APIKey string
	// Source overrides DefaultSource as the quote source id.
	Source string
	// Timeout bounds a single HTTP attempt. Defaults to 10s.
	Timeout time.Duration
	// MaxRetries is the number of re-attempts after a failed request.
	// Retries apply to network errors and 5xx responses only.
	MaxRetries int
	// RetryDelay is the pause between attempts. Defaults to 500ms.
	RetryDelay time.Duration
}

// Client fetches live event odds from the reference feed.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ domain.ReferenceFetcher = (*Client)(nil)

// NewClient creates a Client. Zero config fields take their defaults.
func NewClient(cfg Config) *Client {
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchEventOdds returns the current full-game odds for one event.
func (c *Client) FetchEventOdds(ctx context.Context, eventID string) (domain.EventSnapshot, error) {
	path := fmt.Sprintf("/events/%s/odds", url.PathEscape(eventID))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.EventSnapshot{}, fmt.Errorf("swordfish: get event %s: %w", eventID, err)
	}

	var resp APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.EventSnapshot{}, fmt.Errorf("swordfish: decode event %s: %w", eventID, err)
	}
	if !resp.Success {
		return domain.EventSnapshot{}, fmt.Errorf("swordfish: event %s: feed error: %s", eventID, resp.Error)
	}

	snap := resp.Data.toSnapshot(c.cfg.Source, time.Now().UTC())
	if snap.EventID == "" {
		snap.EventID = eventID
	}
	return snap, nil
}

// doGet sends a GET request with limited retry on transient failures.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		body, retryable, err := c.attempt(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, path string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, domain.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	default:
		return nil, false, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
