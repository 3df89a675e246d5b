package fixtures

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrNilValue is returned when a holder is read while empty.
var ErrNilValue = errors.New("value is nil")

// RacyHolder holds a value that other goroutines may clear at any time.
//
// Set clears and then assigns without a guard, and Use checks for a value
// before dereferencing it in a separate step, so a concurrent Set can empty
// the holder between the check and the use.
type RacyHolder struct {
	data atomic.Pointer[string]
}

// Set replaces the value.
func (h *RacyHolder) Set(v string) {
	h.data.Store(nil)
	runtime.Gosched()
	h.data.Store(&v)
}

// Use returns the length of the current value.
func (h *RacyHolder) Use() (int, error) {
	if h.data.Load() == nil {
		return 0, ErrNilValue
	}
	runtime.Gosched()
	p := h.data.Load()
	if p == nil {
		return 0, ErrNilValue
	}
	return len(*p), nil
}

// GuardedHolder is RacyHolder with both steps under one mutex.
type GuardedHolder struct {
	mu   sync.Mutex
	data *string
}

// Set replaces the value.
func (h *GuardedHolder) Set(v string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = nil
	h.data = &v
}

// Use returns the length of the current value.
func (h *GuardedHolder) Use() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.data == nil {
		return 0, ErrNilValue
	}
	return len(*h.data), nil
}
