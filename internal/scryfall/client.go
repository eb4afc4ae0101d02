// Package scryfall looks up card prices, mana costs and images by exact name.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/MTG-Buylist/internal/metrics"
)

const (
	DefaultBaseURL   = "https://api.scryfall.com"
	DefaultUserAgent = "MTG-Buylist/1.0"
	rateLimitDelay   = 100 * time.Millisecond // 10 req/sec
	initialBackoff   = 1 * time.Second
	maxBackoff       = 16 * time.Second
)

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	BaseURL   string
	UserAgent string
	RateLimit time.Duration
	// Retries is the number of extra attempts on 429 and network errors.
	Retries    int
	HTTPClient *http.Client
	Metrics    *metrics.LookupMetrics
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
	retries     int
	metrics     *metrics.LookupMetrics
}

// NewClient creates a new Scryfall API client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rateLimitDelay
	}
	if opts.HTTPClient == nil {
		// No client timeout: the request context bounds each lookup.
		opts.HTTPClient = &http.Client{}
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	return &Client{
		httpClient:  opts.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(opts.RateLimit), 1),
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		userAgent:   opts.UserAgent,
		retries:     opts.Retries,
		metrics:     opts.Metrics,
	}
}

// LookupCard retrieves a card by its exact name.
func (c *Client) LookupCard(ctx context.Context, name string) (*CardLookup, error) {
	endpoint := fmt.Sprintf("%s/cards/named?exact=%s", c.baseURL, escapeName(name))

	start := time.Now()
	var card Card
	err := c.doRequest(ctx, endpoint, &card)
	if c.metrics != nil {
		c.metrics.ObserveLookup(time.Since(start), err, IsNotFound(err))
	}
	if err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("failed to look up card %q: %w", name, err)
	}

	return card.ToLookup(), nil
}

// escapeName percent-encodes a card name for a query string, spaces as %20.
func escapeName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// doRequest performs an HTTP GET with rate limiting and optional retries.
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		retry, err := c.attempt(ctx, endpoint, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}

	if c.retries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// attempt issues one request. The bool result reports whether a failure is retryable.
func (c *Client) attempt(ctx context.Context, endpoint string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, result); err != nil {
			return false, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return false, nil

	case http.StatusTooManyRequests:
		return true, fmt.Errorf("rate limited (HTTP 429)")

	case http.StatusNotFound:
		return false, &NotFoundError{Name: endpoint}

	default:
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			if apiErr.Status == 0 {
				apiErr.Status = resp.StatusCode
			}
			return false, &apiErr
		}
		return false, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
