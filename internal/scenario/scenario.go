// Package scenario loads, validates and runs YAML stress scenarios.
//
// A scenario names a fixture, overrides the harness configuration and
// states the expected outcome:
//
//	name: semaphore_guarded
//	description: "the guarded section runs exactly once"
//	fixture: semaphore-pass
//	repeat: 100
//	timeout: 200ms
//	complete_execution: false
//	expect:
//	  outcome: completed
//	assertions:
//	  - type: call_count
//	    equals: 1
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/threadalert/internal/fixtures"
	"github.com/roach88/threadalert/internal/harness"
)

// validName matches scenario names usable as golden file names.
var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Outcomes a scenario may expect.
const (
	OutcomeCompleted    = "completed"
	OutcomeFailed       = "failed"
	OutcomeTimedOut     = "timed_out"
	OutcomeCustomFailed = "custom_failed"
)

var validOutcomes = map[string]bool{
	OutcomeCompleted:    true,
	OutcomeFailed:       true,
	OutcomeTimedOut:     true,
	OutcomeCustomFailed: true,
}

// Scenario is one stress scenario.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Fixture is the registered fixture to run.
	Fixture string `yaml:"fixture"`

	// Repeat, Timeout, CompleteExecution and Workers override the
	// fixture's tuned configuration when set.
	Repeat            int           `yaml:"repeat,omitempty"`
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	CompleteExecution *bool         `yaml:"complete_execution,omitempty"`
	Workers           int           `yaml:"workers,omitempty"`

	// Hold and Intercept are passed to the fixture builder.
	Hold      time.Duration `yaml:"hold,omitempty"`
	Intercept string        `yaml:"intercept,omitempty"`

	// Expect is the expected verification outcome.
	Expect Expect `yaml:"expect"`

	// Assertions check counters after verification.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// defaults is the base config for Config; nil means harness defaults.
	defaults *harness.Config
}

// Expect states the expected outcome.
type Expect struct {
	// Outcome is one of completed, failed, timed_out, custom_failed.
	Outcome string `yaml:"outcome"`

	// ErrorContains, if set, must be a substring of the verification error.
	ErrorContains string `yaml:"error_contains,omitempty"`
}

// Assertion checks one counter against bounds.
type Assertion struct {
	// Type is call_count, remaining or failures.
	Type string `yaml:"type"`

	Equals *int64 `yaml:"equals,omitempty"`
	Min    *int64 `yaml:"min,omitempty"`
	Max    *int64 `yaml:"max,omitempty"`
}

// Assertion type constants.
const (
	AssertCallCount = "call_count"
	AssertRemaining = "remaining"
	AssertFailures  = "failures"
)

// Load reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// LoadWithDefaults is Load with a base configuration that replaces the
// harness defaults when the scenario's config is resolved.
func LoadWithDefaults(path string, defaults harness.Config) (*Scenario, error) {
	sc, err := Load(path)
	if err != nil {
		return nil, err
	}
	sc.defaults = &defaults
	return sc, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// Config resolves the harness configuration for f.
// Precedence: scenario fields, then the fixture's tuning, then the
// defaults given to LoadWithDefaults (or the harness defaults).
func (s *Scenario) Config(f fixtures.Fixture) harness.Config {
	cfg := harness.DefaultConfig()
	if s.defaults != nil {
		cfg = *s.defaults
	}
	if f.Tune != nil {
		f.Tune(&cfg)
	}
	if s.Repeat > 0 {
		cfg.Repeat = s.Repeat
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	if s.CompleteExecution != nil {
		cfg.CompleteExecution = *s.CompleteExecution
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	return cfg
}

// FixtureOptions returns the options passed to the fixture builder.
func (s *Scenario) FixtureOptions() fixtures.Options {
	return fixtures.Options{Hold: s.Hold, Intercept: s.Intercept}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validName.MatchString(s.Name) {
		return fmt.Errorf("name %q must match %s", s.Name, validName.String())
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Fixture == "" {
		return fmt.Errorf("fixture is required")
	}
	if s.Repeat < 0 {
		return fmt.Errorf("repeat must be positive, got %d", s.Repeat)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", s.Workers)
	}
	if s.Hold < 0 {
		return fmt.Errorf("hold must not be negative, got %s", s.Hold)
	}
	if s.Expect.Outcome == "" {
		return fmt.Errorf("expect.outcome is required")
	}
	if !validOutcomes[s.Expect.Outcome] {
		return fmt.Errorf("expect.outcome: unknown outcome %q", s.Expect.Outcome)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertCallCount, AssertRemaining, AssertFailures:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Equals == nil && a.Min == nil && a.Max == nil {
		return fmt.Errorf("assertions[%d]: one of equals, min or max is required", index)
	}
	if a.Equals != nil && (a.Min != nil || a.Max != nil) {
		return fmt.Errorf("assertions[%d]: equals cannot be combined with min or max", index)
	}
	for _, bound := range []*int64{a.Equals, a.Min, a.Max} {
		if bound != nil && *bound < 0 {
			return fmt.Errorf("assertions[%d]: bounds must be non-negative", index)
		}
	}
	if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
		return fmt.Errorf("assertions[%d]: min %d is greater than max %d", index, *a.Min, *a.Max)
	}
	return nil
}
