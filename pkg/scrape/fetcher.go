package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/storelens/storelens/internal/logger"
)

// Chrome user agent for better compatibility with storefront themes.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultRetryAfter = 60 * time.Second
)

// ClientConfig holds configuration for the fetch client.
type ClientConfig struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		UserAgent:  defaultUserAgent,
		Timeout:    defaultTimeout,
		MaxRetries: defaultMaxRetries,
		BaseDelay:  defaultBaseDelay,
	}
}

// Client performs HTTP GETs with timeout, retry/backoff and rate-limit
// cooperation. One Client is shared across all fetches of a pipeline run
// so connections are reused and the target sees a single consistent
// client fingerprint.
type Client struct {
	http  *http.Client
	cfg   ClientConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a fetch client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	return &Client{
		http:  &http.Client{Timeout: cfg.Timeout},
		cfg:   cfg,
		sleep: sleepContext,
	}
}

// Fetch retrieves the body of url as text. Up to MaxRetries attempts are
// made; transient failures back off exponentially (BaseDelay * 2^attempt).
// An HTTP 429 honors Retry-After (default 60s) and does not consume the
// retry budget. The final failure is returned as a *NetworkError carrying
// the last underlying error.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		body, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}

		var rl *RateLimitError
		if errors.As(err, &rl) {
			logger.Warn("rate limited", "url", url, "retry_after", rl.RetryAfter)
			if werr := c.sleep(ctx, rl.RetryAfter); werr != nil {
				return "", werr
			}
			attempt-- // rate-limit waits are not failures
			continue
		}

		lastErr = err
		if attempt == c.cfg.MaxRetries-1 {
			break
		}

		delay := c.cfg.BaseDelay * (1 << attempt)
		logger.Warn("fetch failed, retrying", "url", url, "attempt", attempt+1, "delay", delay, "error", err)
		if werr := c.sleep(ctx, delay); werr != nil {
			return "", werr
		}
	}

	var ne *NetworkError
	if errors.As(lastErr, &ne) {
		return "", lastErr
	}
	return "", &NetworkError{URL: url, Err: lastErr}
}

// do performs a single GET attempt.
func (c *Client) do(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{URL: url, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseRetryAfter reads a Retry-After header value in seconds.
func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultRetryAfter
}

// sleepContext sleeps for d unless the context is canceled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
