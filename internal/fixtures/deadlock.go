package fixtures

import (
	"strconv"
	"sync"
)

// DeadlockFail acquires a lock and never releases it.
// The first caller returns; every later caller blocks forever.
type DeadlockFail struct {
	mu    sync.Mutex
	owner string
}

// HangForever locks and returns without unlocking.
func (d *DeadlockFail) HangForever() {
	d.mu.Lock()
	d.owner = strconv.Itoa(len(d.owner) + 1)
}

// DeadlockPass acquires a lock and releases it.
type DeadlockPass struct {
	mu    sync.Mutex
	count int
}

// HangForever locks, does its work, and unlocks.
func (d *DeadlockPass) HangForever() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
}

// Count returns how many times HangForever completed.
func (d *DeadlockPass) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}
