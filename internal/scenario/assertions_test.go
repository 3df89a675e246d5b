package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(n int64) *int64 { return &n }

func TestCheck_OutcomeMatches(t *testing.T) {
	sc := &Scenario{Expect: Expect{Outcome: OutcomeCompleted}}
	assert.Empty(t, sc.Check(Observed{Outcome: OutcomeCompleted}))
}

func TestCheck_OutcomeMismatch(t *testing.T) {
	sc := &Scenario{Expect: Expect{Outcome: OutcomeCompleted}}
	errs := sc.Check(Observed{Outcome: OutcomeFailed, Err: errors.New("boom")})

	require.Len(t, errs, 1)
	var ae *AssertionError
	require.ErrorAs(t, errs[0], &ae)
	assert.Equal(t, "outcome", ae.Type)
	assert.Equal(t, "completed", ae.Expected)
	assert.Equal(t, "failed (boom)", ae.Actual)
}

func TestCheck_ErrorContains(t *testing.T) {
	sc := &Scenario{Expect: Expect{Outcome: OutcomeFailed, ErrorContains: "index"}}

	assert.Empty(t, sc.Check(Observed{Outcome: OutcomeFailed, Err: errors.New("bad index 3")}))

	errs := sc.Check(Observed{Outcome: OutcomeFailed, Err: errors.New("other")})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "error_contains")

	sc.Expect.Outcome = OutcomeCompleted
	errs = sc.Check(Observed{Outcome: OutcomeCompleted})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no error")
}

func TestCheck_Assertions(t *testing.T) {
	obs := Observed{Outcome: OutcomeCompleted, Calls: 1, Remaining: 3, Failures: 10}

	tests := []struct {
		name string
		a    Assertion
		ok   bool
	}{
		{"calls equal", Assertion{Type: AssertCallCount, Equals: ptr(1)}, true},
		{"calls not equal", Assertion{Type: AssertCallCount, Equals: ptr(2)}, false},
		{"remaining min ok", Assertion{Type: AssertRemaining, Min: ptr(3)}, true},
		{"remaining min fail", Assertion{Type: AssertRemaining, Min: ptr(4)}, false},
		{"failures max ok", Assertion{Type: AssertFailures, Max: ptr(10)}, true},
		{"failures max fail", Assertion{Type: AssertFailures, Max: ptr(9)}, false},
		{"range ok", Assertion{Type: AssertFailures, Min: ptr(5), Max: ptr(15)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkAssertion(tt.a, obs)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.a.Type, ae.Type)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "call_count", Expected: "call_count == 1", Actual: "4"}
	assert.Equal(t, "Assertion failed: call_count\n  Expected: call_count == 1\n  Actual: 4", err.Error())
}

func TestCheck_CollectsEveryFailure(t *testing.T) {
	sc := &Scenario{
		Expect: Expect{Outcome: OutcomeCompleted},
		Assertions: []Assertion{
			{Type: AssertCallCount, Equals: ptr(1)},
			{Type: AssertFailures, Equals: ptr(0)},
		},
	}
	errs := sc.Check(Observed{Outcome: OutcomeFailed, Calls: 2, Failures: 1, Err: errors.New("x")})
	assert.Len(t, errs, 3)
}
