package harness

import "sync/atomic"

// Slot captures the error raised by concurrent invocations.
//
// Policy: first failure wins. The first Record call stores its error via
// compare-and-swap; later errors are counted but discarded. This keeps the
// surfaced error stable for a given interleaving rather than depending on
// which worker wrote last.
//
// Thread-safety: all methods are safe for concurrent use.
type Slot struct {
	first atomic.Pointer[captured]
	count atomic.Int64
}

type captured struct {
	err error
}

// Record stores err if no error has been captured yet.
// It reports whether err became the captured error. Nil errors are ignored.
func (s *Slot) Record(err error) bool {
	if err == nil {
		return false
	}
	s.count.Add(1)
	return s.first.CompareAndSwap(nil, &captured{err: err})
}

// Err returns the captured error, or nil.
func (s *Slot) Err() error {
	c := s.first.Load()
	if c == nil {
		return nil
	}
	return c.err
}

// Count returns how many failures were recorded, including discarded ones.
func (s *Slot) Count() int64 {
	return s.count.Load()
}
