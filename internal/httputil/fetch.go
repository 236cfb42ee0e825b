// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across pipeline stages.
//
// The pipeline never retries a failed request: a source, candidate, or file
// that fails is dropped from the run. Pacing toward third-party sites is
// done with rate limiters, not retry backoff.
package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewClient returns an HTTP client with the given timeout. Redirects are
// followed with net/http's default policy (10 hops).
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Get issues a GET for url with the given User-Agent. The caller owns the
// response body. Non-2xx statuses are returned, not treated as errors;
// callers decide what a miss means for their stage.
func Get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp, nil
}

// NewThrottle returns a limiter that admits one event per interval, used to
// pace successive requests against the same third party. The initial token
// is consumed at construction so the very first Wait already pauses for one
// interval. A zero or negative interval disables pacing.
func NewThrottle(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(interval), 1)
	l.Allow()
	return l
}
