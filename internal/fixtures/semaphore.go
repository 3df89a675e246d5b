package fixtures

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/roach88/threadalert/internal/intercept"
)

// Performer is the collaborator a guarded section calls into.
type Performer interface {
	PerformFoo() string
	Name() string
}

// Methods of Performer, as seen by an interceptor.
var (
	MethodPerformFoo = intercept.Method{Type: "Performer", Name: "PerformFoo"}
	MethodName       = intercept.Method{Type: "Performer", Name: "Name"}
)

// Sleeper is a Performer whose PerformFoo holds the caller for a fixed time.
type Sleeper struct {
	hold  time.Duration
	calls atomic.Int64
}

// NewSleeper creates a Sleeper that sleeps for hold on each PerformFoo.
func NewSleeper(hold time.Duration) *Sleeper {
	return &Sleeper{hold: hold}
}

// PerformFoo sleeps and returns a marker string.
func (s *Sleeper) PerformFoo() string {
	s.calls.Add(1)
	if s.hold > 0 {
		time.Sleep(s.hold)
	}
	return "s"
}

// Name returns "sleeper".
func (s *Sleeper) Name() string { return "sleeper" }

// Calls returns how many times PerformFoo started.
func (s *Sleeper) Calls() int64 { return s.calls.Load() }

type interceptedPerformer struct {
	next Performer
	ic   *intercept.Interceptor
}

// InterceptPerformer is an intercept.Decorator for Performer.
func InterceptPerformer(p Performer, ic *intercept.Interceptor) Performer {
	return &interceptedPerformer{next: p, ic: ic}
}

func (p *interceptedPerformer) PerformFoo() string {
	return intercept.Call(p.ic, MethodPerformFoo, p.next.PerformFoo)
}

func (p *interceptedPerformer) Name() string {
	return intercept.Call(p.ic, MethodName, p.next.Name)
}

// SemaphoreGuard admits at most one caller into its critical section.
// Callers that find the permit taken return immediately.
type SemaphoreGuard struct {
	sem  *semaphore.Weighted
	perf Performer
}

// NewSemaphoreGuard creates a guard with a single permit around perf.
func NewSemaphoreGuard(perf Performer) *SemaphoreGuard {
	return &SemaphoreGuard{
		sem:  semaphore.NewWeighted(1),
		perf: perf,
	}
}

// DoSomething calls PerformFoo if the permit is free and reports whether it did.
func (g *SemaphoreGuard) DoSomething() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	defer g.sem.Release(1)
	g.perf.PerformFoo()
	return true
}

// Unguarded is SemaphoreGuard with the permit check left out.
type Unguarded struct {
	perf Performer
}

// NewUnguarded creates an Unguarded section around perf.
func NewUnguarded(perf Performer) *Unguarded {
	return &Unguarded{perf: perf}
}

// DoSomething always calls PerformFoo.
func (u *Unguarded) DoSomething() bool {
	u.perf.PerformFoo()
	return true
}
