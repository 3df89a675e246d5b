package fixtures

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roach88/threadalert/internal/harness"
	"github.com/roach88/threadalert/internal/intercept"
)

// DefaultHold is how long a Sleeper holds the critical section by default.
const DefaultHold = 1500 * time.Millisecond

// ErrAlwaysFail is returned by the always-fail fixture.
var ErrAlwaysFail = errors.New("always fails")

// Options tune how a fixture instance is built.
type Options struct {
	// Hold is how long the semaphore fixtures sleep inside PerformFoo.
	// Zero means DefaultHold.
	Hold time.Duration

	// Intercept names the Performer method whose calls are counted.
	// Empty means "PerformFoo".
	Intercept string
}

func (o Options) withDefaults() Options {
	if o.Hold <= 0 {
		o.Hold = DefaultHold
	}
	if o.Intercept == "" {
		o.Intercept = MethodPerformFoo.Name
	}
	return o
}

// Instance is one freshly built fixture, ready to hand to the harness.
type Instance struct {
	// Action is run by every invocation.
	Action harness.Action

	// Counter counts intercepted calls. Nil when the fixture intercepts nothing.
	Counter *intercept.Counter

	// Method is the intercepted method, zero when Counter is nil.
	Method intercept.Method

	// Check is the fixture's own post-condition, or nil.
	Check func() error
}

// Calls returns the intercepted call count, or 0 without a counter.
func (i Instance) Calls() int64 {
	if i.Counter == nil {
		return 0
	}
	return i.Counter.Value()
}

// Fixture describes a named, buildable fixture.
type Fixture struct {
	Name        string
	Description string

	// Expect is the outcome the fixture produces under its tuned config.
	Expect string

	// Tune adjusts a config to the values the fixture is meant to run with.
	// Nil leaves the config untouched.
	Tune func(*harness.Config)

	Build func(Options) Instance
}

// Config returns the default harness config with the fixture's tuning applied.
func (f Fixture) Config() harness.Config {
	cfg := harness.DefaultConfig()
	if f.Tune != nil {
		f.Tune(&cfg)
	}
	return cfg
}

// Registry maps fixture names to fixtures.
//
// Thread-safety: a Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	fixtures map[string]Fixture
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fixtures: make(map[string]Fixture)}
}

// Register adds f. Names must be unique and non-empty.
func (r *Registry) Register(f Fixture) error {
	if f.Name == "" {
		return errors.New("fixture name is required")
	}
	if f.Build == nil {
		return fmt.Errorf("fixture %q: build function is required", f.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fixtures[f.Name]; exists {
		return fmt.Errorf("fixture %q already registered", f.Name)
	}
	r.fixtures[f.Name] = f
	return nil
}

// Get returns the fixture registered under name.
func (r *Registry) Get(name string) (Fixture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fixtures[name]
	return f, ok
}

// Lookup is Get with a descriptive error for unknown names.
func (r *Registry) Lookup(name string) (Fixture, error) {
	f, ok := r.Get(name)
	if !ok {
		return Fixture{}, fmt.Errorf("unknown fixture %q (available: %v)", name, r.Names())
	}
	return f, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fixtures))
	for name := range r.fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered fixtures sorted by name.
func (r *Registry) List() []Fixture {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Fixture, 0, len(names))
	for _, name := range names {
		out = append(out, r.fixtures[name])
	}
	return out
}

// Default returns a registry holding every built-in fixture.
func Default() *Registry {
	r := NewRegistry()
	for _, f := range builtins() {
		if err := r.Register(f); err != nil {
			panic(err)
		}
	}
	return r
}

func builtins() []Fixture {
	fewer := func(cfg *harness.Config) {
		// blocked goroutines are never reclaimed
		cfg.Repeat = 100
	}
	relaxed := func(cfg *harness.Config) {
		cfg.CompleteExecution = false
	}

	return []Fixture{
		{
			Name:        "noop",
			Description: "does nothing",
			Expect:      "completed",
			Build: func(Options) Instance {
				return Instance{Action: func() error { return nil }}
			},
		},
		{
			Name:        "always-fail",
			Description: "every invocation returns an error",
			Expect:      "failed",
			Build: func(Options) Instance {
				return Instance{Action: func() error { return ErrAlwaysFail }}
			},
		},
		{
			Name:        "deadlock-fail",
			Description: "locks a mutex and never unlocks it",
			Expect:      "timed_out",
			Tune:        fewer,
			Build: func(Options) Instance {
				d := &DeadlockFail{}
				return Instance{Action: harness.Func(d.HangForever)}
			},
		},
		{
			Name:        "deadlock-pass",
			Description: "locks a mutex and unlocks it with defer",
			Expect:      "completed",
			Tune:        fewer,
			Build: func(Options) Instance {
				d := &DeadlockPass{}
				return Instance{Action: harness.Func(d.HangForever)}
			},
		},
		{
			Name:        "concurrent-modification-fail",
			Description: "appends to a list while other goroutines iterate it",
			Expect:      "failed",
			Build: func(Options) Instance {
				l := NewUnsafeList("a", "b", "c")
				return Instance{Action: func() error {
					l.Add("test")
					return l.Iterate(nil)
				}}
			},
		},
		{
			Name:        "concurrent-modification-pass",
			Description: "appends to a list while other goroutines iterate snapshots",
			Expect:      "completed",
			Build: func(Options) Instance {
				l := NewSafeList("a", "b", "c")
				return Instance{Action: func() error {
					l.Add("test")
					return l.Iterate(nil)
				}}
			},
		},
		{
			Name:        "nil-race-fail",
			Description: "clears and reassigns a shared value without a guard",
			Expect:      "failed",
			Build: func(Options) Instance {
				h := &RacyHolder{}
				return Instance{Action: func() error {
					for i := 0; i < 10; i++ {
						h.Set("test")
						if _, err := h.Use(); err != nil {
							return err
						}
					}
					return nil
				}}
			},
		},
		{
			Name:        "nil-race-pass",
			Description: "clears and reassigns a shared value under a mutex",
			Expect:      "completed",
			Build: func(Options) Instance {
				h := &GuardedHolder{}
				return Instance{Action: func() error {
					for i := 0; i < 10; i++ {
						h.Set("test")
						if _, err := h.Use(); err != nil {
							return err
						}
					}
					return nil
				}}
			},
		},
		{
			Name:        "semaphore-fail",
			Description: "calls PerformFoo without taking the permit",
			Expect:      "custom_failed",
			Tune:        relaxed,
			Build: func(opts Options) Instance {
				return buildSemaphore(opts, func(p Performer) func() bool {
					return NewUnguarded(p).DoSomething
				})
			},
		},
		{
			Name:        "semaphore-pass",
			Description: "calls PerformFoo only while holding the single permit",
			Expect:      "completed",
			Tune:        relaxed,
			Build: func(opts Options) Instance {
				return buildSemaphore(opts, func(p Performer) func() bool {
					return NewSemaphoreGuard(p).DoSomething
				})
			},
		},
	}
}

func buildSemaphore(opts Options, section func(Performer) func() bool) Instance {
	opts = opts.withDefaults()
	perf, calls := intercept.Wrap[Performer](
		NewSleeper(opts.Hold),
		intercept.ByName(opts.Intercept),
		InterceptPerformer,
	)
	do := section(perf)
	method := MethodPerformFoo
	if opts.Intercept != method.Name {
		method = intercept.Method{Type: "Performer", Name: opts.Intercept}
	}
	return Instance{
		Action:  harness.Func(func() { do() }),
		Counter: calls,
		Method:  method,
		Check: func() error {
			if n := calls.Value(); n != 1 {
				return fmt.Errorf("%s called %d times, want exactly 1", method, n)
			}
			return nil
		},
	}
}
