package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/threadalert/internal/report"
)

// WriteRun inserts r and returns its ID. An empty r.ID is filled from the
// store's ID generator. Duplicate IDs are rejected.
func (s *Store) WriteRun(ctx context.Context, r *report.Report) (string, error) {
	if r.ID == "" {
		r.ID = s.ids.Generate()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, fixture, outcome, passed, repeat_count, workers, timeout_ns,
		 complete_execution, remaining, completed, failures, method, calls,
		 error_kind, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.Scenario,
		r.Fixture,
		r.Outcome,
		boolToInt(r.Passed),
		r.Repeat,
		r.Workers,
		int64(r.Timeout),
		boolToInt(r.CompleteExecution),
		r.Remaining,
		r.Completed,
		r.Failures,
		r.Method,
		r.Calls,
		r.ErrorKind,
		r.Error,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(r.Duration),
	)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	return r.ID, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
