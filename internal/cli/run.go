package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/harness"
	"github.com/roach88/threadalert/internal/output"
	"github.com/roach88/threadalert/internal/report"
	"github.com/roach88/threadalert/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Repeat      int
	Timeout     time.Duration
	Workers     int
	Complete    bool
	ExpectCalls int64
	Hold        time.Duration
	Database    string

	// Registry overrides the fixture registry (for testing).
	// If nil, defaults to fixtures.Default().
	Registry *fixtures.Registry

	// IDGenerator overrides the run ID generator when recording (for testing).
	IDGenerator store.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <fixture>",
		Short: "Stress a built-in fixture",
		Long: `Run a named fixture concurrently and report the outcome.

The harness settings start from the config file, are adjusted by the
fixture's own tuning, and are finally overridden by any flag given here.

Exit codes:
  0 - Verification passed
  1 - Verification failed (action error, timeout or failed check)
  2 - Command error (unknown fixture, invalid settings, store failure)

Examples:
  threadalert run deadlock-fail
  threadalert run semaphore-pass --timeout 200ms --workers 50
  threadalert run semaphore-fail --expect-calls 1 --format json
  threadalert run nil-race-fail --db ./threadalert.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixture(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Repeat, "repeat", harness.DefaultRepeat, "number of invocations")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", harness.DefaultTimeout, "completion deadline (0 = do not wait)")
	cmd.Flags().IntVar(&opts.Workers, "workers", harness.DefaultWorkers, "worker pool size")
	cmd.Flags().BoolVar(&opts.Complete, "complete", true, "require every invocation to finish before the timeout")
	cmd.Flags().Int64Var(&opts.ExpectCalls, "expect-calls", -1, "exact number of intercepted calls required (-1 = fixture default)")
	cmd.Flags().DurationVar(&opts.Hold, "hold", fixtures.DefaultHold, "how long semaphore fixtures hold the guarded call")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runFixture(opts *RunOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	reg := opts.Registry
	if reg == nil {
		reg = fixtures.Default()
	}

	f, err := reg.Lookup(name)
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownFixture, err.Error(), reg.Names())
		return WrapExitError(ExitCommandError, "unknown fixture", err)
	}

	cfg := runConfig(opts, f, cmd)
	inst := f.Build(fixtures.Options{Hold: opts.Hold})

	check := inst.Check
	if opts.ExpectCalls >= 0 {
		if inst.Counter == nil {
			msg := fmt.Sprintf("fixture %s has no intercepted method; --expect-calls does not apply", f.Name)
			_ = formatter.Error(ErrCodeInvalidConfig, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		check = expectCalls(inst, opts.ExpectCalls)
	}

	formatter.VerboseLog("Running %s: repeat=%d workers=%d timeout=%s complete=%t",
		f.Name, cfg.Repeat, cfg.Workers, cfg.Timeout, cfg.CompleteExecution)

	h := harness.Execute(inst.Action).
		WithConfig(cfg).
		WithLogger(logger.With("fixture", f.Name))

	res, err := h.Run(cmd.Context(), harness.Custom(check))
	if err != nil {
		var cfgErr *harness.ConfigError
		if errors.As(err, &cfgErr) {
			_ = formatter.Error(ErrCodeInvalidConfig, cfgErr.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid harness settings", err)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "verification could not run", err)
	}

	rep := report.New(f.Name, res)
	rep.Calls = inst.Calls()
	if inst.Counter != nil {
		rep.Method = inst.Method.String()
	}

	if db := opts.database(); db != "" {
		if err := recordRun(cmd, db, rep, opts.IDGenerator); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		logger.Debug("run recorded", "id", rep.ID, "db", db)
	}

	if err := outputRun(opts, cmd, rep); err != nil {
		return err
	}

	if !rep.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("verification failed: %s", rep.Outcome))
	}
	return nil
}

// runConfig layers config file, fixture tuning and explicit flags.
func runConfig(opts *RunOptions, f fixtures.Fixture, cmd *cobra.Command) harness.Config {
	cfg := opts.config().Harness()
	if f.Tune != nil {
		f.Tune(&cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("repeat") {
		cfg.Repeat = opts.Repeat
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.Timeout
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("complete") {
		cfg.CompleteExecution = opts.Complete
	}
	return cfg
}

func (o *RunOptions) database() string {
	if o.Database != "" {
		return o.Database
	}
	return o.config().Database
}

// expectCalls replaces a fixture's own check with an exact call count.
func expectCalls(inst fixtures.Instance, want int64) func() error {
	return func() error {
		if got := inst.Calls(); got != want {
			return fmt.Errorf("%s called %d times, want exactly %d", inst.Method, got, want)
		}
		return nil
	}
}

func recordRun(cmd *cobra.Command, path string, rep *report.Report, ids store.IDGenerator) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if ids != nil {
		st.SetIDGenerator(ids)
	}
	_, err = st.WriteRun(cmd.Context(), rep)
	return err
}

func outputRun(opts *RunOptions, cmd *cobra.Command, rep *report.Report) error {
	w := cmd.OutOrStdout()

	if opts.Format == "json" {
		resp := CLIResponse{
			Status: "ok",
			Data:   rep,
			RunID:  rep.ID,
		}
		if !rep.Passed {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeVerifyFailed,
				Message: fmt.Sprintf("verification failed: %s", rep.Outcome),
			}
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}

	colors := output.NewColorScheme(w, opts.NoColor)
	output.Report(w, rep, opts.NoColor)
	fmt.Fprintln(w)
	if rep.Passed {
		fmt.Fprintf(w, "%s %s passed\n", colors.Mark(true), rep.Fixture)
	} else {
		fmt.Fprintf(w, "%s %s failed: %s\n", colors.Mark(false), rep.Fixture, rep.Outcome)
	}
	return nil
}
