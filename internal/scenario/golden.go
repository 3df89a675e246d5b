package scenario

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/threadalert/internal/report"
)

// Snapshot returns the canonical JSON golden form of a scenario result.
// Only fields that are stable across runs are included.
func Snapshot(res *Result) ([]byte, error) {
	snap := res.Report.Snapshot()

	checks := make([]any, 0, len(res.Errors))
	for _, err := range res.Errors {
		var ae *AssertionError
		if errors.As(err, &ae) {
			checks = append(checks, ae.Type)
			continue
		}
		checks = append(checks, err.Error())
	}
	snap["pass"] = res.Pass
	snap["failed_checks"] = checks

	return report.MarshalCanonical(snap)
}

// AssertGolden compares the result's snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func AssertGolden(t *testing.T, name string, res *Result) error {
	t.Helper()

	data, err := Snapshot(res)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// RunWithGolden runs sc and compares its snapshot against the golden file
// named after the scenario.
func RunWithGolden(t *testing.T, sc *Scenario, opts Options) (*Result, error) {
	t.Helper()

	res, err := Run(t.Context(), sc, opts)
	if err != nil {
		return nil, err
	}
	return res, AssertGolden(t, sc.Name, res)
}
