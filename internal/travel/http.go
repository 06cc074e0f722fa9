package travel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultMaxTries    = 3
	maxBodyBytes       = 2 << 20
)

// fetcher performs JSON GET requests with retries on transient failures.
type fetcher struct {
	client    *http.Client
	userAgent string
	maxTries  uint
	backoff   func() backoff.BackOff
}

func newFetcher(client *http.Client, userAgent string) *fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &fetcher{
		client:    client,
		userAgent: userAgent,
		maxTries:  defaultMaxTries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

// budget bounds one getJSON call including its retries.
func (f *fetcher) budget() time.Duration {
	per := f.client.Timeout
	if per <= 0 {
		per = defaultHTTPTimeout
	}
	return per * time.Duration(f.maxTries)
}

type statusError struct {
	Code int
	URL  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// getJSON fetches endpoint?params and returns the raw body. 5xx and 429
// responses and network errors are retried; other 4xx fail immediately.
func (f *fetcher) getJSON(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", endpoint, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 && secs <= 5 {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, &statusError{Code: resp.StatusCode, URL: u.Host + u.Path}
		case resp.StatusCode >= 500:
			return nil, &statusError{Code: resp.StatusCode, URL: u.Host + u.Path}
		case resp.StatusCode >= 400:
			return nil, backoff.Permanent(&statusError{Code: resp.StatusCode, URL: u.Host + u.Path})
		}
		return body, nil
	}

	body, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(f.backoff()),
		backoff.WithMaxTries(f.maxTries),
	)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, err
	}
	return body, nil
}
