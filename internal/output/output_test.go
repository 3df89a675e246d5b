package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/report"
)

func TestNewColorScheme_DisabledForNonTTY(t *testing.T) {
	var buf bytes.Buffer
	cs := NewColorScheme(&buf, false)

	assert.True(t, cs.Disabled)
	assert.Equal(t, "completed", cs.Outcome("completed"))
	assert.Equal(t, "x=1", cs.Name("x=%d", 1))
}

func TestNewColorScheme_NoColorFlag(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, NewColorScheme(&buf, true).Disabled)
}

func TestColorScheme_Mark(t *testing.T) {
	cs := NewColorScheme(&bytes.Buffer{}, true)
	assert.Equal(t, "✓", cs.Mark(true))
	assert.Equal(t, "✗", cs.Mark(false))
}

func TestFixtures(t *testing.T) {
	var buf bytes.Buffer
	Fixtures(&buf, fixtures.Default().List(), true)

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "deadlock-fail")
	assert.Contains(t, out, "timed_out")
	assert.Contains(t, out, "semaphore-pass")
	assert.Contains(t, out, "locks a mutex and never unlocks it")
}

func TestHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	History(&buf, nil, true)
	assert.Equal(t, "No runs recorded\n", buf.String())
}

func TestHistory(t *testing.T) {
	runs := []*report.Report{
		{ID: "r2", Fixture: "deadlock-fail", Outcome: "timed_out", Remaining: 99, Duration: 101 * time.Millisecond},
		{ID: "r1", Scenario: "guarded", Fixture: "semaphore-pass", Outcome: "completed", Passed: true, Duration: time.Second},
	}

	var buf bytes.Buffer
	History(&buf, runs, true)

	out := buf.String()
	assert.Contains(t, out, "r2")
	assert.Contains(t, out, "guarded")
	assert.Contains(t, out, "99")
	assert.Contains(t, out, "101ms")
	assert.Contains(t, out, "2 run(s): 1 passed, 1 failed")
}

func TestReport(t *testing.T) {
	r := &report.Report{
		ID:        "run-1",
		Scenario:  "guarded",
		Fixture:   "semaphore-fail",
		Outcome:   "custom_failed",
		Repeat:    100,
		Workers:   50,
		Timeout:   200 * time.Millisecond,
		Method:    "Performer.PerformFoo",
		Calls:     50,
		ErrorKind: report.KindCustom,
		Error:     "custom verification failed",
	}

	var buf bytes.Buffer
	Report(&buf, r, true)

	out := buf.String()
	assert.Contains(t, out, "guarded")
	assert.Contains(t, out, "custom_failed")
	assert.Contains(t, out, "50 (Performer.PerformFoo)")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "Error (custom): custom verification failed")
}
