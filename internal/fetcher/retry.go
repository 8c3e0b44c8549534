package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// MaxAttempts bounds the number of tries a single fetch operation gets.
// The counter is shared across the mandatory calls of one refresh cycle
// and starts at zero on every cycle, including manual refreshes.
const MaxAttempts = 10

// RetryState is the attempt counter for one in-flight fetch operation.
type RetryState struct {
	attempts int
}

// Reset zeroes the counter.
func (s *RetryState) Reset() {
	s.attempts = 0
}

// Attempts returns how many failed attempts have been recorded.
func (s *RetryState) Attempts() int {
	return s.attempts
}

// Record notes a failed attempt and reports whether the budget allows
// another one.
func (s *RetryState) Record() bool {
	s.attempts++
	return s.attempts < MaxAttempts
}

// BackoffConfig controls the delay between retry attempts.
type BackoffConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (b BackoffConfig) delay(attempt int) time.Duration {
	d := b.InitialInterval * time.Duration(math.Pow(2, float64(attempt-1)))
	if b.MaxInterval > 0 && d > b.MaxInterval {
		d = b.MaxInterval
	}
	return d
}

// transport executes the GET requests of one worker. Each worker gets
// its own *http.Client (with the proxy configuration read at worker
// start), so concurrent cycles never share mutable transport state. The
// breaker and limiter are shared and safe for concurrent use.
type transport struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	backoff BackoffConfig
	tag     string
}

// fetch GETs rawURL, retrying transient failures until the shared retry
// budget runs out. Non-transient errors are returned as-is.
func (t *transport) fetch(ctx context.Context, rawURL string, state *RetryState) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := t.do(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		if !state.Record() {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, state.Attempts(), err)
		}

		log.Printf("WARN: [%s] transient error, attempt %d: %v", t.tag, state.Attempts(), err)
		if err := sleepCtx(ctx, t.backoff.delay(state.Attempts())); err != nil {
			return nil, err
		}
	}
}

func (t *transport) do(ctx context.Context, rawURL string) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := t.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
