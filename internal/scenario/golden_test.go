package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"noop", "deadlock_detected", "semaphore_guarded", "semaphore_unguarded"} {
		t.Run(name, func(t *testing.T) {
			sc, err := Load(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			res, err := RunWithGolden(t, sc, Options{})
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestSnapshot_FailedChecksByType(t *testing.T) {
	sc := &Scenario{
		Name:    "mismatch",
		Fixture: "always-fail",
		Repeat:  3,
		Expect:  Expect{Outcome: OutcomeCompleted},
	}
	res, err := Run(t.Context(), sc, Options{})
	require.NoError(t, err)

	data, err := Snapshot(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"failed_checks":["outcome"]`)
	assert.Contains(t, string(data), `"error_kind":"action"`)
	assert.Contains(t, string(data), `"pass":false`)
}
