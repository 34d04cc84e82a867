package vcounter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"glint/internal/corelsp/vcounter"
)

func TestZeroValueIsZero(t *testing.T) {
	c := vcounter.New()
	if !c.IsZero() {
		t.Fatalf("expected fresh counter to be zero")
	}
	if err := c.WaitForZero(context.Background()); err != nil {
		t.Fatalf("WaitForZero on fresh counter: %v", err)
	}
}

func TestIncrementReleaseRoundTrip(t *testing.T) {
	c := vcounter.New()
	release := c.Increment()
	if c.IsZero() {
		t.Fatalf("expected non-zero after Increment")
	}
	release()
	if !c.IsZero() {
		t.Fatalf("expected zero after Release")
	}
	// Calling release twice must not go negative or panic.
	release()
	if c.Value() != 0 {
		t.Fatalf("expected value 0 after double release, got %d", c.Value())
	}
}

func TestWaitForZeroBlocksUntilReleased(t *testing.T) {
	c := vcounter.New()
	release := c.Increment()

	done := make(chan struct{})
	go func() {
		c.WaitForZero(context.Background())
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("WaitForZero returned before release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WaitForZero did not return after release")
	}
}

func TestWaitForZeroRespectsContext(t *testing.T) {
	c := vcounter.New()
	release := c.Increment()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := c.WaitForZero(ctx); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestConcurrentIncrementRelease(t *testing.T) {
	c := vcounter.New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := c.Increment()
			time.Sleep(time.Millisecond)
			r()
		}()
	}
	wg.Wait()
	if !c.IsZero() {
		t.Fatalf("expected zero after all goroutines released, got %d", c.Value())
	}
}
