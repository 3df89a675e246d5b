package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/report"
)

// createTable returns a borderless, tab-padded table.
func createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

func setHeader(table *tablewriter.Table, colors *ColorScheme, headers []string) {
	if colors.Disabled {
		table.SetHeader(headers)
		return
	}
	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = colors.Header("%s", h)
	}
	table.SetHeader(colored)
}

// Fixtures writes the fixture listing.
func Fixtures(w io.Writer, list []fixtures.Fixture, noColor bool) {
	colors := NewColorScheme(w, noColor)
	table := createTable(w)
	setHeader(table, colors, []string{"NAME", "EXPECT", "REPEAT", "DESCRIPTION"})

	for _, f := range list {
		table.Append([]string{
			colors.Name("%s", f.Name),
			f.Expect,
			strconv.Itoa(f.Config().Repeat),
			f.Description,
		})
	}
	table.Render()
}

// History writes recorded runs, newest first, followed by a summary line.
func History(w io.Writer, runs []*report.Report, noColor bool) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}

	colors := NewColorScheme(w, noColor)
	table := createTable(w)
	setHeader(table, colors, []string{"ID", "STARTED", "SCENARIO", "FIXTURE", "OUTCOME", "REMAINING", "FAILURES", "DURATION"})

	passed := 0
	for _, r := range runs {
		if r.Passed {
			passed++
		}
		scenario := r.Scenario
		if scenario == "" {
			scenario = "-"
		}
		table.Append([]string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			scenario,
			colors.Name("%s", r.Fixture),
			colors.Outcome(r.Outcome),
			strconv.FormatInt(r.Remaining, 10),
			strconv.FormatInt(r.Failures, 10),
			colors.Duration("%s", r.Duration.Round(time.Millisecond)),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%d run(s): %s, %s\n",
		len(runs),
		colors.Success("%d passed", passed),
		colors.Error("%d failed", len(runs)-passed))
}

// Report writes a single run as a key/value block.
func Report(w io.Writer, r *report.Report, noColor bool) {
	colors := NewColorScheme(w, noColor)
	table := createTable(w)

	rows := [][]string{
		{"Fixture", colors.Name("%s", r.Fixture)},
		{"Outcome", colors.Outcome(r.Outcome)},
		{"Repeat", strconv.Itoa(r.Repeat)},
		{"Workers", strconv.Itoa(r.Workers)},
		{"Timeout", r.Timeout.String()},
		{"Completed", strconv.FormatInt(r.Completed, 10)},
		{"Remaining", strconv.FormatInt(r.Remaining, 10)},
		{"Failures", strconv.FormatInt(r.Failures, 10)},
	}
	if r.Scenario != "" {
		rows = append([][]string{{"Scenario", colors.Name("%s", r.Scenario)}}, rows...)
	}
	if r.Method != "" {
		rows = append(rows, []string{"Calls", fmt.Sprintf("%d (%s)", r.Calls, r.Method)})
	}
	rows = append(rows, []string{"Duration", colors.Duration("%s", r.Duration.Round(time.Millisecond))})
	if r.ID != "" {
		rows = append(rows, []string{"Run ID", r.ID})
	}

	table.AppendBulk(rows)
	table.Render()

	if r.Error != "" {
		fmt.Fprintf(w, "\n%s %s\n", colors.Error("Error (%s):", r.ErrorKind), r.Error)
	}
}
