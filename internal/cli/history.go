package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/threadalert/internal/output"
	"github.com/roach88/threadalert/internal/report"
	"github.com/roach88/threadalert/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string
	Fixture  string
	Outcome  string
	Limit    int
	Summary  bool
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs   []*report.Report `json:"runs"`
	Counts map[string]int64 `json:"counts,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Long: `List runs recorded by "run --db" and "test --db", newest first.

Examples:
  threadalert history --db ./threadalert.db
  threadalert history --db ./threadalert.db --scenario semaphore_guarded --limit 5
  threadalert history --db ./threadalert.db --outcome timed_out --summary`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "only runs of this scenario")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "only runs of this fixture")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only runs with this outcome")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs (0 = all)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "also show run counts per outcome")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	db := opts.Database
	if db == "" {
		db = opts.config().Database
	}
	if db == "" {
		_ = formatter.Error(ErrCodeStore, "no database: pass --db or set database in the config file", nil)
		return NewExitError(ExitCommandError, "no database configured")
	}
	if _, err := os.Stat(db); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeStore, fmt.Sprintf("database not found: %s", db), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", db))
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit))
	}

	st, err := store.Open(db)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	runs, err := st.ListRuns(ctx, store.ListFilter{
		Scenario: opts.Scenario,
		Fixture:  opts.Fixture,
		Outcome:  opts.Outcome,
		Limit:    opts.Limit,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	var counts map[string]int64
	if opts.Summary {
		counts, err = st.CountByOutcome(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to count runs", err)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(HistoryResult{Runs: runs, Counts: counts})
	}

	w := cmd.OutOrStdout()
	output.History(w, runs, opts.NoColor)
	if opts.Summary {
		fmt.Fprintln(w)
		writeCounts(opts, cmd, counts)
	}
	return nil
}

func writeCounts(opts *HistoryOptions, cmd *cobra.Command, counts map[string]int64) {
	w := cmd.OutOrStdout()
	colors := output.NewColorScheme(w, opts.NoColor)

	outcomes := make([]string, 0, len(counts))
	for o := range counts {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)

	fmt.Fprintln(w, "All recorded runs:")
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %s: %d\n", colors.Outcome(o), counts[o])
	}
}
