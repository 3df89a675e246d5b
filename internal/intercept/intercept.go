// Package intercept counts calls to selected methods of a wrapped target.
//
// Go has no runtime subclassing, so interception is done with compile-time
// decorators: a type that implements the same interface as the target,
// holds the original, and routes each method through Call, CallErr or Do.
// Those helpers increment the counter before delegating when the selector
// matches, and return whatever the original returns (or panics with)
// unchanged.
//
//	perf, calls := intercept.Wrap[fixtures.Performer](
//	    fixtures.NewSleeper(time.Second),
//	    intercept.ByName("PerformFoo"),
//	    fixtures.InterceptPerformer,
//	)
//	guard := fixtures.NewSemaphoreGuard(perf)
//	// ... run guard.DoSomething concurrently ...
//	calls.Value() // 1
//
// This is call counting only: no argument capture, stubbing, or ordering.
package intercept

import (
	"sync/atomic"
)

// Method identifies a method on a wrapped target.
type Method struct {
	// Type is the target type name, e.g. "Performer".
	Type string
	// Name is the method name, e.g. "PerformFoo".
	Name string
}

// String returns "Type.Name", or just Name when Type is empty.
func (m Method) String() string {
	if m.Type == "" {
		return m.Name
	}
	return m.Type + "." + m.Name
}

// Counter is an atomic invocation counter scoped to one wrapped target.
// It is never reset.
type Counter struct {
	n atomic.Int64
}

// Value returns the number of counted calls.
func (c *Counter) Value() int64 {
	return c.n.Load()
}

func (c *Counter) inc() {
	c.n.Add(1)
}

// Interceptor decides whether a call is counted and counts it.
//
// Thread-safety: an Interceptor is safe for concurrent use.
type Interceptor struct {
	selector Selector
	counter  *Counter
	hook     func(Method)
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithHook registers fn to run on every selected call, after the counter
// is incremented and before the original method runs.
func WithHook(fn func(Method)) Option {
	return func(ic *Interceptor) {
		ic.hook = fn
	}
}

// New creates an Interceptor. A nil selector selects nothing.
func New(sel Selector, opts ...Option) *Interceptor {
	if sel == nil {
		sel = None
	}
	ic := &Interceptor{
		selector: sel,
		counter:  &Counter{},
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// Counter returns the interceptor's counter handle.
func (ic *Interceptor) Counter() *Counter {
	return ic.counter
}

// Before records a call to m if it is selected and reports whether it was.
// Decorators that cannot use Call/CallErr/Do call this first.
func (ic *Interceptor) Before(m Method) bool {
	if ic == nil || !ic.selector(m) {
		return false
	}
	ic.counter.inc()
	if ic.hook != nil {
		ic.hook(m)
	}
	return true
}

// Decorator builds a wrapper around target that routes its methods through ic.
type Decorator[T any] func(target T, ic *Interceptor) T

// Wrap decorates target so that calls matched by sel are counted.
// It returns the wrapper and the counter handle.
func Wrap[T any](target T, sel Selector, decorate Decorator[T], opts ...Option) (T, *Counter) {
	ic := New(sel, opts...)
	return decorate(target, ic), ic.counter
}

// Call counts m if selected, then returns fn's result unchanged.
func Call[R any](ic *Interceptor, m Method, fn func() R) R {
	ic.Before(m)
	return fn()
}

// CallErr counts m if selected, then returns fn's results unchanged.
func CallErr[R any](ic *Interceptor, m Method, fn func() (R, error)) (R, error) {
	ic.Before(m)
	return fn()
}

// Do counts m if selected, then runs fn.
func Do(ic *Interceptor, m Method, fn func()) {
	ic.Before(m)
	fn()
}
