// Package httpclient wraps outbound provider calls with the timeout,
// retry, and circuit-breaking behavior every provider adapter shares,
// grounded in the teacher's internal/middleware/circuit_breaker.go
// (relocated here from HTTP-server middleware to a per-call client
// wrapper — see SPEC_FULL.md's C3 expansion).
package httpclient

import (
	"context"
	"time"

	"interactions-backend/internal/apperr"

	"github.com/sony/gobreaker"
)

// Fetch performs a single unit of provider I/O. Implementations should
// respect ctx cancellation/deadline.
type Fetch func(ctx context.Context) (any, error)

// RetryPolicy configures the linear-backoff retry wrapper. A provider with
// MaxRetries==0 gets a single shot.
type RetryPolicy struct {
	MaxRetries  int
	BackoffBase time.Duration
}

// BreakerConfig configures the per-provider circuit breaker, grounded in
// the teacher's DefaultCircuitBreakerConfig.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig mirrors the teacher's defaults, tuned down for
// provider-level (rather than whole-server) granularity.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      4,
	}
}

// Client performs timed, retried, circuit-broken provider calls.
type Client struct {
	name    string
	timeout time.Duration
	retry   RetryPolicy
	breaker *gobreaker.CircuitBreaker
}

// New builds a Client for one provider. timeout is the per-attempt
// deadline from spec §6; retry is the provider's retry policy (only
// label_warnings is configured with MaxRetries>0 per spec §4.3).
func New(name string, timeout time.Duration, retry RetryPolicy, bc BreakerConfig) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bc.FailureThreshold
		},
	})
	return &Client{name: name, timeout: timeout, retry: retry, breaker: cb}
}

// Do executes fetch with the client's timeout, retrying on failure per the
// retry policy, all guarded by the provider's circuit breaker. A timeout
// elapses into apperr.KindTimeout, never a raw context.DeadlineExceeded.
func (c *Client) Do(ctx context.Context, fetch Fetch) (any, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.doWithRetry(ctx, fetch)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apperr.Transport("CIRCUIT_OPEN", c.name+" is temporarily unavailable").
			WithOperation(c.name).WithRetryable(true).WithCause(err).Build()
	}
	return result, err
}

func (c *Client) doWithRetry(ctx context.Context, fetch Fetch) (any, error) {
	attempts := c.retry.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.doOnce(ctx, fetch)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !apperr.IsRetryable(err) || attempt == attempts {
			break
		}
		backoff := time.Duration(attempt) * c.retry.BackoffBase
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, apperr.Timeout("CONTEXT_CANCELED", c.name+" canceled during backoff").
				WithOperation(c.name).Build()
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, fetch Fetch) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		val any
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		val, err := fetch(callCtx)
		resultCh <- outcome{val, err}
	}()

	select {
	case o := <-resultCh:
		return o.val, o.err
	case <-callCtx.Done():
		return nil, apperr.Timeout("PROVIDER_TIMEOUT", c.name+" timed out").
			WithOperation(c.name).WithRetryable(true).Build()
	}
}
