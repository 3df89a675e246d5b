package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/harness"
	"github.com/roach88/threadalert/internal/metric"
	"github.com/roach88/threadalert/internal/output"
	"github.com/roach88/threadalert/internal/report"
	"github.com/roach88/threadalert/internal/scenario"
	"github.com/roach88/threadalert/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update      bool   // regenerate golden files
	Filter      string // substring filter on scenario paths
	Parallel    int    // scenarios run at once
	Database    string
	MetricsAddr string

	// Registry overrides the fixture registry (for testing).
	Registry *fixtures.Registry

	// IDGenerator overrides the run ID generator when recording (for testing).
	IDGenerator store.IDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Pass    bool     `json:"pass"`
	Outcome string   `json:"outcome,omitempty"`
	Golden  string   `json:"golden,omitempty"` // "match", "updated", "mismatch" or empty when absent
	RunID   string   `json:"run_id,omitempty"`
	Errors  []string `json:"errors,omitempty"`

	report *report.Report
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// Golden comparison states.
const (
	goldenMatch    = "match"
	goldenUpdated  = "updated"
	goldenMismatch = "mismatch"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	return newTestCommand(&TestOptions{RootOptions: rootOpts})
}

func newTestCommand(opts *TestOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run stress scenarios",
		Long: `Run every YAML scenario under a directory and check its expectations.

Each scenario names a fixture, harness settings and the expected outcome.
When <dir>/golden/<name>.golden exists the canonical snapshot of the run
must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  threadalert test ./scenarios
  threadalert test ./scenarios --filter semaphore
  threadalert test ./scenarios --update
  threadalert test ./scenarios --parallel 4 --metrics-addr :9090
  threadalert test ./scenarios --format json --db ./threadalert.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose path contains this string")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "number of scenarios to run concurrently")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record every run in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()
	cfg := opts.config()

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := scenario.FindFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}
	formatter.VerboseLog("Found %d scenario file(s) in %s", len(files), scenariosDir)

	parallel := opts.Parallel
	if !cmd.Flags().Changed("parallel") {
		parallel = cfg.Parallel
	}
	if parallel < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--parallel must be positive, got %d", parallel))
	}

	runOpts := scenario.Options{
		Registry: opts.Registry,
		Logger:   logger,
	}

	metricsAddr := opts.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	if metricsAddr != "" {
		stop, err := startMetrics(cmd.Context(), metricsAddr, &runOpts, opts.RootOptions)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start metrics server", err)
		}
		defer stop()
	}

	results := make([]ScenarioResult, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(parallel)
	for i, file := range files {
		g.Go(func() error {
			results[i] = runScenario(ctx, file, cfg.Harness(), opts, runOpts)
			return nil
		})
	}
	_ = g.Wait()

	if db := opts.database(); db != "" {
		if err := recordScenarios(cmd, db, results, opts.IDGenerator); err != nil {
			return WrapExitError(ExitCommandError, "failed to record runs", err)
		}
	}

	result := TestResult{
		Scenarios: results,
		Total:     len(results),
	}
	for _, r := range results {
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(opts, cmd, result)
}

func (o *TestOptions) database() string {
	if o.Database != "" {
		return o.Database
	}
	return o.config().Database
}

// startMetrics registers a recorder on a fresh registry, attaches it to
// runOpts and serves it. The returned func stops the server.
func startMetrics(ctx context.Context, addr string, runOpts *scenario.Options, opts *RootOptions) (func(), error) {
	reg := prometheus.NewRegistry()
	rec, err := metric.NewRecorder(reg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	bound, done, err := metric.Serve(ctx, addr, reg, opts.logger())
	if err != nil {
		cancel()
		return nil, err
	}
	opts.logger().Debug("serving metrics", "addr", bound)
	runOpts.Recorder = rec

	return func() {
		cancel()
		if err := <-done; err != nil {
			opts.logger().Warn("metrics server stopped", "error", err)
		}
	}, nil
}

// runScenario loads, runs and golden-checks a single scenario file.
func runScenario(ctx context.Context, file string, defaults harness.Config, opts *TestOptions, runOpts scenario.Options) ScenarioResult {
	name := scenarioFileName(file)

	sc, err := scenario.LoadWithDefaults(file, defaults)
	if err != nil {
		return ScenarioResult{
			Name:   name,
			File:   file,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	res, err := scenario.Run(ctx, sc, runOpts)
	if err != nil {
		return ScenarioResult{
			Name:   sc.Name,
			File:   file,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	out := ScenarioResult{
		Name:    sc.Name,
		File:    file,
		Pass:    res.Pass,
		Outcome: res.Report.Outcome,
		report:  res.Report,
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, e.Error())
	}

	golden, err := checkGolden(file, res, opts.Update)
	if err != nil {
		out.Pass = false
		out.Errors = append(out.Errors, err.Error())
		return out
	}
	out.Golden = golden
	if golden == goldenMismatch {
		out.Pass = false
		out.Errors = append(out.Errors, "snapshot does not match golden file (run with --update to regenerate)")
	}
	return out
}

// checkGolden compares or rewrites the golden snapshot for file. It
// returns "" when there is no golden file and update is false.
func checkGolden(file string, res *scenario.Result, update bool) (string, error) {
	data, err := scenario.Snapshot(res)
	if err != nil {
		return "", fmt.Errorf("failed to build snapshot: %w", err)
	}

	path := goldenFilePath(file)
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return goldenUpdated, nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return goldenMismatch, nil
	}
	return goldenMatch, nil
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", scenarioFileName(scenarioFile)+".golden")
}

func scenarioFileName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// recordScenarios writes each executed scenario's report to the store.
func recordScenarios(cmd *cobra.Command, path string, results []ScenarioResult, ids store.IDGenerator) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if ids != nil {
		st.SetIDGenerator(ids)
	}
	for i := range results {
		if results[i].report == nil {
			continue
		}
		id, err := st.WriteRun(cmd.Context(), results[i].report)
		if err != nil {
			return err
		}
		results[i].RunID = id
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(opts *TestOptions, cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()
	colors := output.NewColorScheme(w, opts.NoColor)

	for _, r := range result.Scenarios {
		line := fmt.Sprintf("%s %s", colors.Mark(r.Pass), r.Name)
		if r.Outcome != "" {
			line += fmt.Sprintf(" (%s)", colors.Outcome(r.Outcome))
		}
		if r.Golden == goldenUpdated {
			line += " golden updated"
		}
		fmt.Fprintln(w, line)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintf(w, "%s All scenarios passed\n", colors.Mark(true))
	return nil
}
