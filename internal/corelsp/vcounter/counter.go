// Package vcounter implements the VolatileCounter primitive: a
// non-negative integer that can be incremented with a scoped release
// handle, and waited on until it reaches zero. Nothing in the retrieval
// pack ships this exact shape (a re-observable wait-for-zero gate, as
// opposed to sync.WaitGroup's single-shot Add/Wait contract) so it stays
// on the standard library.
package vcounter

import (
	"context"
	"sync"
)

// Release decrements the counter it was obtained from. It is safe to
// call more than once; only the first call has effect, so it is safe to
// defer unconditionally even when a code path also releases explicitly.
type Release func()

// Counter is a concurrency-safe non-negative counter with a wait-for-zero
// gate. The zero value is ready to use.
type Counter struct {
	mu     sync.Mutex
	n      int
	zeroCh chan struct{}
}

func New() *Counter {
	ch := make(chan struct{})
	close(ch) // starts at zero
	return &Counter{zeroCh: ch}
}

// Increment bumps the counter and returns a Release that decrements it.
func (c *Counter) Increment() Release {
	c.mu.Lock()
	if c.n == 0 {
		c.zeroCh = make(chan struct{})
	}
	c.n++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.n--
			if c.n <= 0 {
				c.n = 0
				close(c.zeroCh)
			}
			c.mu.Unlock()
		})
	}
}

// Value returns the current count.
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// IsZero is a sampled predicate; the count may change immediately after
// it returns.
func (c *Counter) IsZero() bool {
	return c.Value() == 0
}

// WaitForZero blocks until the count is observed zero, or ctx is done.
// If the count is already zero it returns immediately.
func (c *Counter) WaitForZero(ctx context.Context) error {
	c.mu.Lock()
	if c.n == 0 {
		c.mu.Unlock()
		return nil
	}
	ch := c.zeroCh
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
