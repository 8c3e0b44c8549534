package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
)

// ErrRetriesExhausted marks a transient failure that outlived the
// per-operation retry budget. The cycle ends with done(1).
var ErrRetriesExhausted = errors.New("retry attempts exhausted")

var errUnexpectedStatus = errors.New("unexpected status code")

// FatalParseError reports an endpoint whose body could not be made sense
// of in either wire format. It is surfaced immediately, without retry.
type FatalParseError struct {
	Endpoint string
	Err      error
}

func (e *FatalParseError) Error() string {
	return fmt.Sprintf("%s: unparseable in both formats: %v", e.Endpoint, e.Err)
}

func (e *FatalParseError) Unwrap() error {
	return e.Err
}

// isTransient classifies transport-level failures: timeouts, connection
// resets and other socket errors, HTTP/URL-level errors, and an open
// circuit breaker. These are retried; everything else is not.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errUnexpectedStatus) {
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return hasAny(err.Error(), "connection reset", "broken pipe", "unexpected EOF")
}

// hasAny reports whether s contains any of the substrings.
func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
