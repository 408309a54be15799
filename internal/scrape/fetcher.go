package scrape

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// RateLimitedFetcher serializes requests against the target site through a
// ticker-based limiter and retries transient failures with exponential
// backoff. The scraper only ever talks to one domain, so a single client and
// limiter suffice.
type RateLimitedFetcher struct {
	client  *http.Client
	limiter <-chan time.Time
	config  FetchConfig
}

// NewRateLimitedFetcher creates a fetcher from the source's fetch config,
// filling in defaults for zero values.
func NewRateLimitedFetcher(config FetchConfig) *RateLimitedFetcher {
	if config.TimeoutSeconds == 0 {
		config.TimeoutSeconds = 15
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 2
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 1.0
	}
	if config.UserAgent == "" {
		config.UserAgent = "eureka-scraper/1.0"
	}

	interval := time.Duration(float64(time.Second) / config.RateLimitRPS)
	if interval == 0 {
		interval = time.Second
	}

	return &RateLimitedFetcher{
		client: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: newReadyTicker(interval),
		config:  config,
	}
}

// newReadyTicker returns a ticker channel whose first tick is immediate, so
// the first request of a run is not delayed.
func newReadyTicker(interval time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	go func() {
		t := time.NewTicker(interval)
		for now := range t.C {
			select {
			case ch <- now:
			default:
			}
		}
	}()
	return ch
}

// shouldRetry reports whether an error or status code warrants another
// attempt.
func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return true
		}
		return false
	}

	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch implements Fetcher with rate limiting and retries.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) (*FetchedDocument, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.limiter:
	}

	var lastErr error

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 0.5s, 1s, 2s plus jitter.
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", f.config.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(err, 0) {
				continue
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return &FetchedDocument{
				URL:         rawURL,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        resp.Body,
				FetchedAt:   time.Now(),
				Headers:     resp.Header,
			}, nil
		}

		resp.Body.Close()
		if shouldRetry(nil, resp.StatusCode) {
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			continue
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
