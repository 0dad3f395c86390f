package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig bounds the transport-level retry loop around one provider
// call. Retries apply to the connection/request phase only; an established
// stream is never retried.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// HTTPError is a non-200 provider response. RetryAfter carries the parsed
// Retry-After header when the provider sent one.
type HTTPError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// retryable reports whether the failure is worth another attempt: rate
// limiting and server-side errors are, everything else (auth, bad request)
// is not.
func (e *HTTPError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// ParseRetryAfter parses a Retry-After header value in delta-seconds form;
// unparseable or absent values yield zero and the backoff schedule applies.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// RetryDo runs fn up to cfg.MaxAttempts times with exponential backoff,
// honoring a provider-supplied Retry-After over the computed delay. Only a
// *HTTPError marked retryable (429, 5xx — the request was never served)
// triggers another attempt; any other failure returns immediately, since a
// completed-but-unusable LLM call must not be silently re-run.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.BaseDelay
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := delay
			var he *HTTPError
			if errors.As(lastErr, &he) && he.RetryAfter > 0 {
				wait = he.RetryAfter
			}
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(wait):
			}
			delay *= 2
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		var he *HTTPError
		if !errors.As(err, &he) || !he.retryable() {
			return zero, err
		}
	}
	return zero, lastErr
}
