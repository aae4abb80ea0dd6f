package infra

import (
	"fmt"
	"net/http"
)

// Doer is the subset of *http.Client the admin controllers need.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// errServerStatus marks a 5xx response as a breaker failure.
type errServerStatus int

func (e errServerStatus) Error() string { return fmt.Sprintf("server responded %d", int(e)) }

// BreakerDoer routes every request through a CircuitBreaker. Transport
// errors and 5xx responses count as failures; the 5xx response itself is
// still handed back so the caller can read the server's detail.
type BreakerDoer struct {
	next Doer
	cb   *CircuitBreaker
}

// NewBreakerDoer wraps next. A nil next uses http.DefaultClient.
func NewBreakerDoer(next Doer, cb *CircuitBreaker) *BreakerDoer {
	if next == nil {
		next = http.DefaultClient
	}
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &BreakerDoer{next: next, cb: cb}
}

// Breaker exposes the wrapped breaker (for status output).
func (d *BreakerDoer) Breaker() *CircuitBreaker { return d.cb }

// Do implements Doer.
func (d *BreakerDoer) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := d.cb.Execute(func() error {
		var err error
		resp, err = d.next.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return errServerStatus(resp.StatusCode)
		}
		return nil
	})
	if resp != nil {
		return resp, nil
	}
	return nil, err
}
