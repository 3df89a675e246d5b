package fixtures

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrConcurrentModification is returned when a list changes while it is
// being iterated.
var ErrConcurrentModification = errors.New("concurrent modification")

// UnsafeList is a list whose iteration is not isolated from writers.
//
// Each single operation is atomic, but Iterate walks the live backing slice
// and fails fast with ErrConcurrentModification if an Add happened since the
// iteration began, like a fail-fast iterator over an unsynchronized list.
type UnsafeList struct {
	mu       sync.Mutex
	items    []string
	modCount int64
}

// NewUnsafeList creates a list holding values.
func NewUnsafeList(values ...string) *UnsafeList {
	return &UnsafeList{items: append([]string(nil), values...)}
}

// Add appends v.
func (l *UnsafeList) Add(v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, v)
	l.modCount++
}

// Len returns the number of items.
func (l *UnsafeList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Iterate calls fn for each item. fn may be nil.
// Between items the goroutine yields, as a real consumer doing I/O would.
func (l *UnsafeList) Iterate(fn func(string)) error {
	l.mu.Lock()
	expected := l.modCount
	n := len(l.items)
	l.mu.Unlock()

	for i := 0; i < n; i++ {
		l.mu.Lock()
		if l.modCount != expected {
			actual := l.modCount
			l.mu.Unlock()
			return fmt.Errorf("%w: list modified during iteration at index %d (mod count %d, expected %d)",
				ErrConcurrentModification, i, actual, expected)
		}
		v := l.items[i]
		l.mu.Unlock()

		if fn != nil {
			fn(v)
		}
		runtime.Gosched()
	}
	return nil
}

// SafeList is a list safe for concurrent iteration and mutation.
// Iterate walks a snapshot taken under a read lock, so writers never
// invalidate an iteration in progress.
type SafeList struct {
	mu    sync.RWMutex
	items []string
}

// NewSafeList creates a list holding values.
func NewSafeList(values ...string) *SafeList {
	return &SafeList{items: append([]string(nil), values...)}
}

// Add appends v.
func (l *SafeList) Add(v string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, v)
}

// Len returns the number of items.
func (l *SafeList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Iterate calls fn for each item of a snapshot. It never fails.
func (l *SafeList) Iterate(fn func(string)) error {
	l.mu.RLock()
	snapshot := make([]string, len(l.items))
	copy(snapshot, l.items)
	l.mu.RUnlock()

	for _, v := range snapshot {
		if fn != nil {
			fn(v)
		}
		runtime.Gosched()
	}
	return nil
}
