package framework

import (
	"context"
	"fmt"
	"time"
)

// Waiter provides utilities for waiting on conditions with timeouts
type Waiter struct {
	timeout  time.Duration
	interval time.Duration
}

// NewWaiter creates a new Waiter with the given timeout and polling interval
func NewWaiter(timeout, interval time.Duration) *Waiter {
	return &Waiter{
		timeout:  timeout,
		interval: interval,
	}
}

// DefaultWaiter returns a waiter with a 5s timeout and 10ms interval
func DefaultWaiter() *Waiter {
	return NewWaiter(5*time.Second, 10*time.Millisecond)
}

// WaitFor waits for a condition to become true
func (w *Waiter) WaitFor(ctx context.Context, condition func() bool, description string) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := PollUntil(ctx, w.interval, condition); err != nil {
		return fmt.Errorf("timeout waiting for: %s (timeout: %v)", description, w.timeout)
	}
	return nil
}

// WaitForQueue waits until the fake server holds the named queue
func (w *Waiter) WaitForQueue(ctx context.Context, cups *FakeCUPS, name string) error {
	return w.WaitFor(ctx, func() bool {
		_, ok := cups.Queue(name)
		return ok
	}, fmt.Sprintf("queue %s to exist", name))
}

// WaitForCalls waits until at least n calls have been recorded
func (w *Waiter) WaitForCalls(ctx context.Context, cups *FakeCUPS, n int) error {
	return w.WaitFor(ctx, func() bool {
		return len(cups.Calls()) >= n
	}, fmt.Sprintf("%d recorded calls", n))
}

// PollUntil polls a condition until it returns true or context is cancelled
func PollUntil(ctx context.Context, interval time.Duration, condition func() bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Check immediately
	if condition() {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
