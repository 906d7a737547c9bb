package scrape

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidURL is returned when an input string has no parseable host
// after scheme qualification. Check with errors.Is.
var ErrInvalidURL = errors.New("invalid url: no host")

// NetworkError indicates a fetch that could not be completed: either the
// retry budget was exhausted or the server answered with a non-2xx status.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RateLimitError signals an explicit HTTP 429 from the target. The fetcher
// handles it internally by honoring RetryAfter; it only escapes to callers
// that bypass the retry loop.
type RateLimitError struct {
	URL        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("fetch %s: rate limited, retry after %s", e.URL, e.RetryAfter)
}

// ParseError indicates malformed JSON or XML where structure was assumed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
