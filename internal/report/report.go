// Package report turns verification results into flat, serializable records
// shared by the CLI output, the run store and golden snapshots.
package report

import (
	"errors"
	"time"

	"github.com/roach88/threadalert/internal/harness"
)

// Error kinds.
const (
	KindNone       = ""
	KindAction     = "action"
	KindPanic      = "panic"
	KindIncomplete = "incomplete"
	KindCustom     = "custom"
)

// Report is the flat record of one verification pass.
type Report struct {
	ID                string        `json:"id,omitempty"`
	Scenario          string        `json:"scenario,omitempty"`
	Fixture           string        `json:"fixture"`
	Outcome           string        `json:"outcome"`
	Passed            bool          `json:"passed"`
	Repeat            int           `json:"repeat"`
	Workers           int           `json:"workers"`
	Timeout           time.Duration `json:"timeout"`
	CompleteExecution bool          `json:"complete_execution"`
	Remaining         int64         `json:"remaining"`
	Completed         int64         `json:"completed"`
	Failures          int64         `json:"failures"`
	Method            string        `json:"method,omitempty"`
	Calls             int64         `json:"calls"`
	ErrorKind         string        `json:"error_kind,omitempty"`
	Error             string        `json:"error,omitempty"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
}

// New builds a report for fixture from res.
func New(fixture string, res *harness.Result) *Report {
	r := &Report{
		Fixture:           fixture,
		Outcome:           res.Outcome(),
		Passed:            res.Passed(),
		Repeat:            res.Config.Repeat,
		Workers:           res.Config.Workers,
		Timeout:           res.Config.Timeout,
		CompleteExecution: res.Config.CompleteExecution,
		Remaining:         res.Remaining,
		Completed:         res.Completed,
		Failures:          res.Failures,
		ErrorKind:         ErrorKind(res.Err),
		StartedAt:         res.Started,
		Duration:          res.Duration,
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

// ErrorKind classifies a verification error.
func ErrorKind(err error) string {
	var panicErr *harness.PanicError
	switch {
	case err == nil:
		return KindNone
	case harness.IsIncomplete(err):
		return KindIncomplete
	case harness.IsCustomFailure(err):
		return KindCustom
	case errors.As(err, &panicErr):
		return KindPanic
	default:
		return KindAction
	}
}

// Snapshot returns the fields of r that do not vary between runs of the
// same deterministic scenario, as a map ready for MarshalCanonical.
// Timing, identity and contention-dependent counters are left out.
func (r *Report) Snapshot() map[string]any {
	m := map[string]any{
		"fixture":            r.Fixture,
		"outcome":            r.Outcome,
		"passed":             r.Passed,
		"repeat":             r.Repeat,
		"workers":            r.Workers,
		"timeout":            r.Timeout.String(),
		"complete_execution": r.CompleteExecution,
	}
	if r.Scenario != "" {
		m["scenario"] = r.Scenario
	}
	if r.ErrorKind != KindNone {
		m["error_kind"] = r.ErrorKind
	}
	if r.Method != "" {
		m["method"] = r.Method
	}
	return m
}
