package scenario

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an expectation or assertion fails.
type AssertionError struct {
	Type     string // outcome, error_contains, or an assertion type
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// Observed holds the counters assertions are evaluated against.
type Observed struct {
	Outcome   string
	Err       error
	Calls     int64
	Remaining int64
	Failures  int64
}

func (o Observed) counter(typ string) int64 {
	switch typ {
	case AssertCallCount:
		return o.Calls
	case AssertRemaining:
		return o.Remaining
	default:
		return o.Failures
	}
}

// checkExpect compares the observed outcome against e.
func checkExpect(e Expect, obs Observed) []error {
	var errs []error
	if obs.Outcome != e.Outcome {
		actual := obs.Outcome
		if obs.Err != nil {
			actual = fmt.Sprintf("%s (%v)", obs.Outcome, obs.Err)
		}
		errs = append(errs, &AssertionError{
			Type:     "outcome",
			Expected: e.Outcome,
			Actual:   actual,
		})
	}

	if e.ErrorContains != "" {
		switch {
		case obs.Err == nil:
			errs = append(errs, &AssertionError{
				Type:     "error_contains",
				Expected: fmt.Sprintf("error containing %q", e.ErrorContains),
				Actual:   "no error",
			})
		case !strings.Contains(obs.Err.Error(), e.ErrorContains):
			errs = append(errs, &AssertionError{
				Type:     "error_contains",
				Expected: fmt.Sprintf("error containing %q", e.ErrorContains),
				Actual:   obs.Err.Error(),
			})
		}
	}
	return errs
}

// checkAssertion evaluates a single counter assertion.
func checkAssertion(a Assertion, obs Observed) error {
	got := obs.counter(a.Type)

	switch {
	case a.Equals != nil && got != *a.Equals:
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s == %d", a.Type, *a.Equals),
			Actual:   fmt.Sprintf("%d", got),
		}
	case a.Min != nil && got < *a.Min:
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s >= %d", a.Type, *a.Min),
			Actual:   fmt.Sprintf("%d", got),
		}
	case a.Max != nil && got > *a.Max:
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s <= %d", a.Type, *a.Max),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

// Check evaluates the scenario's expectation and assertions against obs and
// returns every failure.
func (s *Scenario) Check(obs Observed) []error {
	errs := checkExpect(s.Expect, obs)
	for _, a := range s.Assertions {
		if err := checkAssertion(a, obs); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
