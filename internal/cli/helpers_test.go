package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeRoot runs the full command tree with HOME pointed at an empty
// directory so no user config is picked up.
func executeRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

// writeScenario writes a scenario file named name+".yaml" into dir.
func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

const noopScenario = `name: noop_quick
description: does nothing quickly
fixture: noop
repeat: 20
workers: 4
timeout: 1s
expect:
  outcome: completed
`

const alwaysFailScenario = `name: always_fails
description: expects success from a failing fixture
fixture: always-fail
repeat: 10
workers: 2
timeout: 1s
expect:
  outcome: completed
`

const expectedFailureScenario = `name: expected_failure
description: expects the failure
fixture: always-fail
repeat: 10
workers: 2
timeout: 1s
expect:
  outcome: failed
  error_contains: always fails
assertions:
  - type: failures
    min: 1
`
