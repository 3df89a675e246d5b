package harness

import (
	"context"
	"sync/atomic"
	"time"
)

// Tracker is a countdown completion barrier.
//
// It starts at the number of scheduled invocations and each worker calls
// Done exactly once. The count never increases and never drops below zero.
//
// Thread-safety: all methods are safe for concurrent use.
type Tracker struct {
	total     int64
	remaining atomic.Int64
	done      chan struct{} // closed when remaining reaches zero
}

// NewTracker creates a tracker for n invocations.
// A tracker created with n <= 0 is already complete.
func NewTracker(n int) *Tracker {
	t := &Tracker{
		total: int64(n),
		done:  make(chan struct{}),
	}
	if n <= 0 {
		t.total = 0
		close(t.done)
		return t
	}
	t.remaining.Store(int64(n))
	return t
}

// Done records one finished invocation.
// Calls beyond the initial count are ignored so the counter never goes negative.
func (t *Tracker) Done() {
	for {
		cur := t.remaining.Load()
		if cur <= 0 {
			return
		}
		if t.remaining.CompareAndSwap(cur, cur-1) {
			if cur == 1 {
				close(t.done)
			}
			return
		}
	}
}

// Remaining returns the number of unfinished invocations without blocking.
func (t *Tracker) Remaining() int64 {
	return t.remaining.Load()
}

// Total returns the initial count.
func (t *Tracker) Total() int64 {
	return t.total
}

// Wait returns a channel closed once every invocation has finished.
func (t *Tracker) Wait() <-chan struct{} {
	return t.done
}

// Await blocks until the count reaches zero or timeout elapses, whichever
// comes first, and returns the remaining count at that moment.
func (t *Tracker) Await(timeout time.Duration) int64 {
	return t.AwaitContext(context.Background(), timeout)
}

// AwaitContext is Await that also returns early when ctx is cancelled.
func (t *Tracker) AwaitContext(ctx context.Context, timeout time.Duration) int64 {
	select {
	case <-t.done:
		return 0
	default:
	}

	if timeout <= 0 {
		return t.Remaining()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
	case <-timer.C:
	case <-ctx.Done():
	}
	return t.Remaining()
}
