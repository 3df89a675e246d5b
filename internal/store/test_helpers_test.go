package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/threadalert/internal/report"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a report with minimal required fields.
func createTestRun(id, scenario, fixture, outcome string) *report.Report {
	return &report.Report{
		ID:                id,
		Scenario:          scenario,
		Fixture:           fixture,
		Outcome:           outcome,
		Passed:            outcome == "completed",
		Repeat:            100,
		Workers:           10,
		Timeout:           100 * time.Millisecond,
		CompleteExecution: true,
		Completed:         100,
		StartedAt:         time.Date(2026, 10, 1, 12, 0, 0, 123456789, time.UTC),
		Duration:          42 * time.Millisecond,
	}
}
