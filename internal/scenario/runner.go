package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/harness"
	"github.com/roach88/threadalert/internal/report"
)

// Options configures Run. The zero value uses the default fixture
// registry and discards logs.
type Options struct {
	Registry *fixtures.Registry
	Logger   *slog.Logger
	Recorder harness.Recorder
	Clock    func() time.Time
}

// Result contains the outcome of running a scenario.
type Result struct {
	// Pass is true when the outcome and every assertion matched.
	Pass bool

	// Errors lists each failed expectation or assertion.
	Errors []error

	// Harness is the raw verification result.
	Harness *harness.Result

	// Report is the flat record of the run.
	Report *report.Report
}

// Run builds the scenario's fixture, verifies it and checks the
// expectations. The returned error is non-nil only when the scenario could
// not run at all (unknown fixture, invalid config).
func Run(ctx context.Context, sc *Scenario, opts Options) (*Result, error) {
	reg := opts.Registry
	if reg == nil {
		reg = fixtures.Default()
	}

	f, err := reg.Lookup(sc.Fixture)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	inst := f.Build(sc.FixtureOptions())

	h := harness.Execute(inst.Action).WithConfig(sc.Config(f))
	if opts.Logger != nil {
		h.WithLogger(opts.Logger.With("scenario", sc.Name, "fixture", f.Name))
	}
	if opts.Recorder != nil {
		h.WithMetrics(opts.Recorder)
	}
	if opts.Clock != nil {
		h.WithClock(opts.Clock)
	}

	res, err := h.Run(ctx, harness.Custom(inst.Check))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	calls := inst.Calls()
	rep := report.New(f.Name, res)
	rep.Scenario = sc.Name
	rep.Calls = calls
	if inst.Counter != nil {
		rep.Method = inst.Method.String()
	}

	errs := sc.Check(Observed{
		Outcome:   res.Outcome(),
		Err:       res.Err,
		Calls:     calls,
		Remaining: res.Remaining,
		Failures:  res.Failures,
	})

	return &Result{
		Pass:    len(errs) == 0,
		Errors:  errs,
		Harness: res,
		Report:  rep,
	}, nil
}
