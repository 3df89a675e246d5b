package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/threadalert/internal/report"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

const runColumns = `id, scenario, fixture, outcome, passed, repeat_count, workers, timeout_ns,
	complete_execution, remaining, completed, failures, method, calls,
	error_kind, error, started_at, duration_ns`

// ListFilter narrows ListRuns. Zero fields match everything.
type ListFilter struct {
	Scenario string
	Fixture  string
	Outcome  string
	Limit    int
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns runs matching f, newest first.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListRuns(ctx context.Context, f ListFilter) ([]*report.Report, error) {
	var (
		where []string
		args  []any
	)
	if f.Scenario != "" {
		where = append(where, "scenario = ?")
		args = append(args, f.Scenario)
	}
	if f.Fixture != "" {
		where = append(where, "fixture = ?")
		args = append(args, f.Fixture)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, f.Outcome)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*report.Report{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CountByOutcome returns the number of recorded runs per outcome.
func (s *Store) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM runs GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			outcome string
			n       int64
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[outcome] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*report.Report, error) {
	var (
		r                report.Report
		passed, complete int
		timeoutNS, durNS int64
		startedAt        string
	)
	err := row.Scan(
		&r.ID,
		&r.Scenario,
		&r.Fixture,
		&r.Outcome,
		&passed,
		&r.Repeat,
		&r.Workers,
		&timeoutNS,
		&complete,
		&r.Remaining,
		&r.Completed,
		&r.Failures,
		&r.Method,
		&r.Calls,
		&r.ErrorKind,
		&r.Error,
		&startedAt,
		&durNS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	r.Passed = passed != 0
	r.CompleteExecution = complete != 0
	r.Timeout = time.Duration(timeoutNS)
	r.Duration = time.Duration(durNS)
	r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	return &r, nil
}
