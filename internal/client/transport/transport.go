// Package transport wraps outbound HTTP calls with credential injection and a
// single authorization-driven retry.
package transport

import (
	"bytes"
	"context"
	"net/http"

	"github.com/example/fieldentry/internal/logging"
)

// TokenProvider supplies the bearer credential for outbound calls.
// Non-forced lookups fail soft (empty token); forced lookups may fail hard.
type TokenProvider interface {
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}

// Client executes requests with the current id token attached. On a 401 it
// forces one credential refresh and retries exactly once with the new token;
// a second 401 is returned as-is. Non-401 failures (network errors, 5xx)
// propagate directly and are never retried here.
type Client struct {
	base  *http.Client
	creds TokenProvider
	log   logging.Logger
}

// NewClient wraps base with authentication. A nil base falls back to
// http.DefaultClient.
func NewClient(base *http.Client, creds TokenProvider, log logging.Logger) *Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &Client{base: base, creds: creds, log: log}
}

// Get builds and executes an authenticated GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(req)
}

// Head builds and executes an authenticated HEAD request.
func (c *Client) Head(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post builds and executes an authenticated POST request with a JSON body.
// The body is buffered so the request can be replayed after a refresh.
func (c *Client) Post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.Do(req)
}

// Do executes req with the current id token as a bearer credential. Requests
// proceed without a credential when none is available (some endpoints are
// unauthenticated). Callers that need a retryable body must set GetBody
// (http.NewRequest does this for buffered readers).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token, err := c.creds.IDToken(ctx, false)
	if err != nil {
		// non-forced lookups fail soft; log and proceed unauthenticated
		c.log.Error(ctx, "failed to obtain id token", "error", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	fresh, err := c.creds.IDToken(ctx, true)
	if err != nil {
		// refresh failed: hand the original 401 back so the caller always
		// has a well-formed response to interpret
		c.log.Error(ctx, "failed to refresh id token after 401", "error", err)
		return resp, nil
	}
	if fresh == "" || fresh == token {
		return resp, nil
	}

	retry, ok := cloneForRetry(req)
	if !ok {
		c.log.Warn(ctx, "cannot replay request body, returning original 401", "url", req.URL.String())
		return resp, nil
	}
	retry.Header.Set("Authorization", "Bearer "+fresh)

	resp2, err := c.base.Do(retry)
	if err != nil {
		c.log.Error(ctx, "retry after token refresh failed", "error", err)
		return resp, nil
	}
	resp.Body.Close()
	return resp2, nil
}

// cloneForRetry duplicates req for the single post-refresh retry. It reports
// false when the body was consumed and cannot be rebuilt.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(req.Context())
	if req.Body == nil {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}
