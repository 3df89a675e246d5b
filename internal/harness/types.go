package harness

import (
	"context"
	"time"
)

// Action is a unit of work executed repeatedly and concurrently.
// A non-nil return value or a panic counts as a failed invocation.
type Action func() error

// ContextAction is an Action that receives a context cancelled once
// verification returns, so cooperative actions can stop after a timeout.
type ContextAction func(ctx context.Context) error

// Func adapts a function with no error result to an Action.
// Such an action can only fail by panicking.
func Func(f func()) Action {
	return func() error {
		f()
		return nil
	}
}

// State is the verifier state.
type State int

const (
	// StateConfigured is the initial state; builder calls are accepted.
	StateConfigured State = iota
	// StateRunning means invocations have been submitted and Verify is waiting.
	StateRunning
	// StateFailed means at least one invocation failed.
	StateFailed
	// StateTimedOut means invocations were still outstanding at the deadline
	// and full completion was required.
	StateTimedOut
	// StateCompleted means no invocation failed and completion requirements held.
	StateCompleted
)

// String returns the snake_case name of the state.
func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateTimedOut || s == StateCompleted
}

// Result is the outcome of one verification pass.
type Result struct {
	// State is the terminal verifier state.
	State State

	// Config is the configuration the pass ran with.
	Config Config

	// Remaining is the tracker count when the wait returned.
	Remaining int64

	// Completed is the number of invocations that had finished by then.
	Completed int64

	// Failures counts every failed invocation observed by then.
	// Only the first failure is kept in Err.
	Failures int64

	// Err is the error Verify returns. Nil when the pass succeeded.
	Err error

	// Started is when the first invocation was submitted.
	Started time.Time

	// Duration is the wall time from submission to evaluation.
	Duration time.Duration
}

// Passed reports whether the verification succeeded.
func (r *Result) Passed() bool {
	return r.Err == nil
}

// Outcome names the result for reports: the state name, or
// "custom_failed" when a completed run failed its post-condition.
func (r *Result) Outcome() string {
	if r.State == StateCompleted && IsCustomFailure(r.Err) {
		return "custom_failed"
	}
	return r.State.String()
}

// Recorder observes verification activity, typically for metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// RecordInvocation is called by a worker after each invocation returns.
	RecordInvocation(err error)

	// RecordResult is called once per verification pass.
	RecordResult(r *Result)
}
