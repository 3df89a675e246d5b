package harness

import (
	"fmt"
	"time"
)

// Harness defaults.
const (
	// DefaultRepeat is the number of times the action runs per verification.
	DefaultRepeat = 1000

	// DefaultTimeout is how long Verify waits for all invocations to finish.
	DefaultTimeout = 100 * time.Millisecond

	// DefaultWorkers bounds the number of goroutines executing the action.
	// Large enough to provoke contention, small enough not to exhaust the host.
	DefaultWorkers = 100
)

// Config is the verification configuration.
//
// A Config is only mutated through Harness builder calls made before the
// first Verify. Each call overwrites the previous value for its field.
type Config struct {
	// Repeat is the number of independent invocations of the action.
	Repeat int `json:"repeat" yaml:"repeat"`

	// Timeout is the completion deadline. Zero means "do not wait".
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// CompleteExecution requires every invocation to finish before Timeout.
	// When false, unfinished invocations are tolerated.
	CompleteExecution bool `json:"complete_execution" yaml:"complete_execution"`

	// Workers is the worker pool capacity.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Repeat:            DefaultRepeat,
		Timeout:           DefaultTimeout,
		CompleteExecution: true,
		Workers:           DefaultWorkers,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Repeat <= 0 {
		return &ConfigError{Field: "repeat", Message: fmt.Sprintf("must be positive, got %d", c.Repeat)}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "timeout", Message: fmt.Sprintf("must be non-negative, got %s", c.Timeout)}
	}
	if c.Workers <= 0 {
		return &ConfigError{Field: "workers", Message: fmt.Sprintf("must be positive, got %d", c.Workers)}
	}
	return nil
}
