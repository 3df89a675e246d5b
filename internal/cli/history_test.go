package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/threadalert/internal/report"
)

// seedHistory records three runs: two of noop and one of always-fail.
func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	_, _, err := executeRoot(t, "run", "noop", "--repeat", "5", "--db", dbPath)
	require.NoError(t, err)
	_, _, err = executeRoot(t, "run", "always-fail", "--repeat", "5", "--db", dbPath)
	require.Error(t, err)
	_, _, err = executeRoot(t, "run", "noop", "--repeat", "7", "--db", dbPath)
	require.NoError(t, err)

	return dbPath
}

func TestHistoryText(t *testing.T) {
	dbPath := seedHistory(t)

	out, _, err := executeRoot(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "noop")
	assert.Contains(t, out, "always-fail")
	assert.Contains(t, out, "3 run(s): 2 passed, 1 failed")
}

func TestHistoryJSONNewestFirst(t *testing.T) {
	dbPath := seedHistory(t)

	out, _, err := executeRoot(t, "--format", "json", "history", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 3)
	assert.Equal(t, 7, resp.Data.Runs[0].Repeat)
	assert.Equal(t, "always-fail", resp.Data.Runs[1].Fixture)
	assert.Nil(t, resp.Data.Counts)
}

func TestHistoryFilters(t *testing.T) {
	dbPath := seedHistory(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"by fixture", []string{"--fixture", "noop"}, []string{"noop", "noop"}},
		{"by outcome", []string{"--outcome", "failed"}, []string{"always-fail"}},
		{"limit", []string{"--limit", "1"}, []string{"noop"}},
		{"no match", []string{"--scenario", "absent"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "history", "--db", dbPath}, tt.args...)
			out, _, err := executeRoot(t, args...)
			require.NoError(t, err)

			var resp struct {
				Data struct {
					Runs []*report.Report `json:"runs"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))

			got := make([]string, 0, len(resp.Data.Runs))
			for _, r := range resp.Data.Runs {
				got = append(got, r.Fixture)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistorySummary(t *testing.T) {
	dbPath := seedHistory(t)

	out, _, err := executeRoot(t, "history", "--db", dbPath, "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "All recorded runs:")
	assert.Contains(t, out, "completed: 2")
	assert.Contains(t, out, "failed: 1")
}

func TestHistoryEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := executeRoot(t, "run", "noop", "--repeat", "1", "--db", dbPath)
	require.NoError(t, err)

	out, _, err := executeRoot(t, "history", "--db", dbPath, "--outcome", "timed_out")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestHistoryMissingDatabase(t *testing.T) {
	_, _, err := executeRoot(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestHistoryNoDatabaseConfigured(t *testing.T) {
	out, _, err := executeRoot(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no database")
}

func TestHistoryDatabaseFromConfig(t *testing.T) {
	dbPath := seedHistory(t)
	cfgPath := filepath.Join(t.TempDir(), "threadalert.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: "+dbPath+"\n"), 0644))

	out, _, err := executeRoot(t, "--config", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "3 run(s)")
}
