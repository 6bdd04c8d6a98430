// Package riot provides a rate-limited, retrying client for the Riot API
// plus the account resolver and match-history fetcher built on top of it.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	defaultMaxAttempts    = 5
	defaultAttemptTimeout = 10 * time.Second
	defaultBaseBackoff    = 500 * time.Millisecond
)

// Limiter is the permit source consulted before every outbound attempt.
// Satisfied by *ratelimit.Limiter.
type Limiter interface {
	Acquire(ctx context.Context, domain string) error
	OnThrottled(domain string, retryAfter time.Duration)
}

// Client executes authenticated requests against a Riot API host, funneling
// every attempt through the shared Limiter and retrying transient failures
// with exponential backoff plus jitter.
type Client struct {
	apiKey      string
	httpClient  *http.Client
	limiter     Limiter
	maxAttempts int
	baseBackoff time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (useful for testing).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithMaxAttempts sets the retry ceiling per request.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each individual attempt.
func WithAttemptTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBaseBackoff sets the first retry delay; later delays double it.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.baseBackoff = d
		}
	}
}

// NewClient creates a Client. The API key must be non-empty and the limiter
// is mandatory: every attempt consumes a permit for the target host.
func NewClient(apiKey string, limiter Limiter, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}
	if limiter == nil {
		return nil, fmt.Errorf("limiter cannot be nil")
	}

	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: defaultAttemptTimeout,
		},
		limiter:     limiter,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get performs a rate-limited GET against host+path and decodes the JSON
// response into result. The host doubles as the rate-limiting domain.
//
// Outcome mapping: 404 -> ErrNotFound, 401/403 -> ErrUnauthorized (both
// non-retryable), 429 -> reported to the limiter and retried, 5xx and
// network/timeout errors retried, any other 4xx -> *StatusError.
func (c *Client) Get(ctx context.Context, host, path string, result any) error {
	url := host + path

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}

		if err := c.limiter.Acquire(ctx, host); err != nil {
			return err
		}

		retryAfter, err := c.attempt(ctx, url, result)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrThrottled):
			c.limiter.OnThrottled(host, retryAfter)
			lastErr = err
		case isRetryable(err):
			lastErr = err
		default:
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

// attempt performs one network call. The returned duration is the server's
// Retry-After hint on a 429, zero otherwise.
func (c *Client) attempt(ctx context.Context, url string, result any) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failure or per-attempt timeout: transient.
		return 0, &transientError{err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if result == nil {
			return 0, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return 0, fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
		return 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("%s: %w", url, ErrThrottled)

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("%s: %w", url, ErrUnauthorized)

	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%s: %w", url, ErrNotFound)

	case resp.StatusCode >= 500:
		return 0, &transientError{&StatusError{Code: resp.StatusCode, URL: url}}

	default:
		return 0, &StatusError{Code: resp.StatusCode, URL: url}
	}
}

// sleepBackoff waits for the exponential backoff delay before a retry,
// with up to 50% random jitter added.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.baseBackoff << (attempt - 2)

	c.rngMu.Lock()
	jitter := time.Duration(c.rng.Int63n(int64(delay)/2 + 1))
	c.rngMu.Unlock()

	timer := time.NewTimer(delay + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// transientError wraps failures eligible for retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
