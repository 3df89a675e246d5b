package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Harness runs an action concurrently and verifies the outcome.
//
// A Harness is single-use: configure it with the builder methods, then call
// one of the Verify methods exactly once. Builder calls made after
// verification has started are ignored.
//
//	err := harness.Execute(counter.Increment).
//		Repeat(500).
//		Timeout(time.Second).
//		Verify()
type Harness struct {
	mu       sync.Mutex
	action   ContextAction
	cfg      Config
	state    State
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
	result   *Result
}

// Execute creates a Harness for action with the default configuration.
func Execute(action Action) *Harness {
	var ca ContextAction
	if action != nil {
		ca = func(context.Context) error { return action() }
	}
	return ExecuteContext(ca)
}

// ExecuteContext creates a Harness for a context-aware action.
//
// Each invocation receives a context that is cancelled when verification
// returns. Invocations still running after a timeout can observe it and stop.
func ExecuteContext(action ContextAction) *Harness {
	return &Harness{
		action: action,
		cfg:    DefaultConfig(),
		state:  StateConfigured,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
}

// configure applies fn while the harness is still configurable.
func (h *Harness) configure(fn func()) *Harness {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateConfigured {
		fn()
	}
	return h
}

// Repeat sets how many times the action runs (default 1000).
func (h *Harness) Repeat(times int) *Harness {
	return h.configure(func() { h.cfg.Repeat = times })
}

// Timeout sets how long to wait for execution to complete (default 100ms).
func (h *Harness) Timeout(d time.Duration) *Harness {
	return h.configure(func() { h.cfg.Timeout = d })
}

// CompleteExecution sets whether every invocation must finish before the
// timeout (default true).
func (h *Harness) CompleteExecution(required bool) *Harness {
	return h.configure(func() { h.cfg.CompleteExecution = required })
}

// Workers sets the worker pool capacity (default 100).
func (h *Harness) Workers(n int) *Harness {
	return h.configure(func() { h.cfg.Workers = n })
}

// WithConfig replaces the whole configuration.
func (h *Harness) WithConfig(cfg Config) *Harness {
	return h.configure(func() { h.cfg = cfg })
}

// WithLogger sets the logger. Logs are discarded by default.
func (h *Harness) WithLogger(logger *slog.Logger) *Harness {
	return h.configure(func() {
		if logger != nil {
			h.logger = logger
		}
	})
}

// WithMetrics attaches a Recorder.
func (h *Harness) WithMetrics(r Recorder) *Harness {
	return h.configure(func() { h.recorder = r })
}

// WithClock overrides the wall clock used for Result timing.
func (h *Harness) WithClock(now func() time.Time) *Harness {
	return h.configure(func() {
		if now != nil {
			h.now = now
		}
	})
}

// Config returns the current configuration.
func (h *Harness) Config() Config {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg
}

// State returns the current verifier state.
func (h *Harness) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Result returns the verification result, or nil before verification finished.
func (h *Harness) Result() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Verify checks that every invocation completed without failing.
//
// It returns the first failure raised by the action, an
// *IncompleteExecutionError if invocations were outstanding at the deadline
// and completion was required, or nil.
func (h *Harness) Verify() error {
	return h.VerifyContext(context.Background())
}

// VerifyContext is Verify with a context bounding the wait.
func (h *Harness) VerifyContext(ctx context.Context) error {
	res, err := h.Run(ctx, nil)
	if err != nil {
		return err
	}
	return res.Err
}

// VerifyWith runs Verify and, if it passes, evaluates pred.
// A false predicate yields a *CustomVerificationError.
func (h *Harness) VerifyWith(pred func() bool) error {
	var check func() error
	if pred != nil {
		check = func() error {
			if !pred() {
				return &CustomVerificationError{}
			}
			return nil
		}
	}
	res, err := h.Run(context.Background(), check)
	if err != nil {
		return err
	}
	return res.Err
}

// VerifyFunc runs Verify and, if it passes, runs check.
// A non-nil error from check is wrapped in a *CustomVerificationError.
func (h *Harness) VerifyFunc(check func() error) error {
	res, err := h.Run(context.Background(), Custom(check))
	if err != nil {
		return err
	}
	return res.Err
}

// Custom adapts check for Run so that its failures are reported as
// *CustomVerificationError. Custom(nil) returns nil.
func Custom(check func() error) func() error {
	if check == nil {
		return nil
	}
	return func() error {
		if err := check(); err != nil {
			return &CustomVerificationError{Err: err}
		}
		return nil
	}
}

// Run performs the verification pass and returns its Result.
//
// The returned error is non-nil only when the pass could not start
// (invalid configuration, missing action, or a second call). Verification
// failures are reported in Result.Err. check, if non-nil, runs only when
// the pass completed and its error becomes Result.Err unchanged.
//
// Execution flow:
// 1. Submit Repeat invocations to a bounded pool
// 2. Wait on the completion tracker until done or Timeout
// 3. Failure beats timeout; timeout beats the post-condition
func (h *Harness) Run(ctx context.Context, check func() error) (*Result, error) {
	h.mu.Lock()
	if h.state != StateConfigured {
		h.mu.Unlock()
		return nil, ErrAlreadyVerified
	}
	if h.action == nil {
		h.mu.Unlock()
		return nil, &ConfigError{Field: "action", Message: "must not be nil"}
	}
	if err := h.cfg.Validate(); err != nil {
		h.mu.Unlock()
		return nil, err
	}
	h.state = StateRunning
	cfg := h.cfg
	logger := h.logger
	h.mu.Unlock()

	// Cancelled when Run returns, including on timeout.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := NewTracker(cfg.Repeat)
	slot := &Slot{}
	pool := NewPool(cfg.Workers, cfg.Repeat, logger)

	logger.Debug("verification started",
		"repeat", cfg.Repeat,
		"workers", cfg.Workers,
		"timeout", cfg.Timeout,
		"complete_execution", cfg.CompleteExecution,
	)

	started := h.now()
	for i := 0; i < cfg.Repeat; i++ {
		if err := pool.Submit(func() { h.invoke(runCtx, tracker, slot) }); err != nil {
			// Unreachable with a queue sized to Repeat; keep the tracker honest anyway.
			slot.Record(fmt.Errorf("submit invocation %d: %w", i, err))
			tracker.Done()
		}
	}
	pool.Close()

	remaining := tracker.AwaitContext(ctx, cfg.Timeout)

	res := &Result{
		Config:    cfg,
		Remaining: remaining,
		Completed: tracker.Total() - remaining,
		Failures:  slot.Count(),
		Started:   started,
	}

	switch {
	case slot.Err() != nil:
		res.State = StateFailed
		res.Err = slot.Err()
		logger.Warn("Thread-Alert failure: encountered at least one error in execution, showing first failure",
			"error", res.Err,
			"failures", res.Failures,
			"repeat", cfg.Repeat,
		)
	case remaining != 0 && cfg.CompleteExecution:
		res.State = StateTimedOut
		res.Err = &IncompleteExecutionError{
			Remaining: remaining,
			Total:     tracker.Total(),
			Timeout:   cfg.Timeout,
			Cause:     ctx.Err(),
		}
		logger.Warn("Thread-Alert failure: invocations did not complete execution",
			"remaining", remaining,
			"repeat", cfg.Repeat,
			"timeout", cfg.Timeout,
		)
	default:
		res.State = StateCompleted
		if check != nil {
			res.Err = check()
		}
	}

	res.Duration = h.now().Sub(started)

	logger.Info("verification finished",
		"state", res.State.String(),
		"outcome", res.Outcome(),
		"remaining", res.Remaining,
		"failures", res.Failures,
		"duration", res.Duration,
	)

	if h.recorder != nil {
		h.recorder.RecordResult(res)
	}

	h.mu.Lock()
	h.state = res.State
	h.result = res
	h.mu.Unlock()

	return res, nil
}

// invoke runs the action once. The tracker is decremented exactly once,
// after the failure (if any) has been recorded.
func (h *Harness) invoke(ctx context.Context, tracker *Tracker, slot *Slot) {
	defer tracker.Done()

	err := call(ctx, h.action)
	if err != nil {
		slot.Record(err)
	}
	if h.recorder != nil {
		h.recorder.RecordInvocation(err)
	}
}

// call runs action and converts a panic into a *PanicError.
func call(ctx context.Context, action ContextAction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return action(ctx)
}
