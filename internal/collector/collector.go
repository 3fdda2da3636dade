// Package collector pulls current balances from the external platform APIs
// and appends them to the ledger on a cron schedule. Collectors live outside
// the valuation core: a platform whose upstream call fails simply contributes
// nothing to that save cycle, and the core treats the gap as absent data.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/savings-tracker/internal/circuitbreaker"
	"github.com/savings-tracker/internal/retry"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// AccountBalance is one observed balance reported by a platform
type AccountBalance struct {
	Account string
	Amount  decimal.Decimal
}

// Collector fetches the current balances for one platform
type Collector interface {
	Platform() string
	Balances(ctx context.Context) ([]AccountBalance, error)
}

// httpClient wraps an *http.Client with rate limiting, retry, and a circuit
// breaker per upstream host. The client is shared by all platform collectors;
// per-host breakers keep one platform's outage from blocking the others.
type httpClient struct {
	client  *http.Client
	limiter *rate.Limiter
	retry   *retry.Config

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

func newHTTPClient(timeout time.Duration, ratePerSecond int) *httpClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &httpClient{
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
		retry:    retry.DefaultConfig(),
		breakers: make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

func (c *httpClient) breakerFor(endpoint string) *circuitbreaker.CircuitBreaker {
	host := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		host = u.Host
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.breakers[host]
	if !ok {
		b = circuitbreaker.New(nil)
		c.breakers[host] = b
	}
	return b
}

// getJSON performs a rate-limited GET with retries and decodes the JSON
// response into dest.
func (c *httpClient) getJSON(ctx context.Context, endpoint string, headers map[string]string, dest interface{}) error {
	return c.do(ctx, endpoint, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		return c.send(req, dest)
	})
}

// postForm performs a rate-limited form POST with retries and decodes the
// JSON response into dest.
func (c *httpClient) postForm(ctx context.Context, endpoint string, form url.Values, dest interface{}) error {
	return c.do(ctx, endpoint, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		return c.send(req, dest)
	})
}

func (c *httpClient) do(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	breaker := c.breakerFor(endpoint)
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := breaker.Allow(); err != nil {
			return err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			// Local cancellation, not an upstream failure
			return err
		}

		err := fn(ctx)
		breaker.Record(err)
		return err
	})
}

func (c *httpClient) send(req *http.Request, dest interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL, resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}
