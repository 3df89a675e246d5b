package harness

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrPoolClosed is returned when submitting to a closed pool.
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrQueueFull is returned when the pool queue has no free slot.
	ErrQueueFull = errors.New("worker pool queue is full")
)

// Pool is a bounded worker pool.
//
// Workers are started lazily, one per submission, until capacity is reached,
// so a pool never runs more goroutines than it has tasks. Submissions never
// block: work waits in a buffered queue until a worker is free. Tasks run in
// no particular order.
//
// Close stops intake. Idle workers exit once the queue drains; a worker stuck
// inside a task is never interrupted and stays alive until the task returns.
type Pool struct {
	capacity int
	queue    chan func()
	logger   *slog.Logger

	mu      sync.Mutex // guards closed and worker start
	closed  bool
	workers int

	active atomic.Int64
	ran    atomic.Int64
}

// NewPool creates a pool with the given worker capacity and queue size.
// Non-positive values fall back to DefaultWorkers and the capacity respectively.
func NewPool(capacity, queueSize int, logger *slog.Logger) *Pool {
	if capacity <= 0 {
		capacity = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = capacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		capacity: capacity,
		queue:    make(chan func(), queueSize),
		logger:   logger,
	}
}

// Submit enqueues fn without blocking.
func (p *Pool) Submit(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- fn:
	default:
		return ErrQueueFull
	}

	if p.workers < p.capacity {
		p.workers++
		go p.worker(p.workers)
	}
	return nil
}

// Close stops accepting work. Queued tasks still run.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// Workers returns the number of workers started so far.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

// Capacity returns the maximum number of workers.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Active returns the number of tasks currently executing.
func (p *Pool) Active() int64 {
	return p.active.Load()
}

// Ran returns the number of tasks that have returned.
func (p *Pool) Ran() int64 {
	return p.ran.Load()
}

func (p *Pool) worker(id int) {
	p.logger.Debug("worker started", "worker_id", id)
	for fn := range p.queue {
		p.run(id, fn)
	}
	p.logger.Debug("worker finished (no more tasks)", "worker_id", id)
}

// run executes one task. A panicking task must not take the worker down.
func (p *Pool) run(id int, fn func()) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.ran.Add(1)
		if r := recover(); r != nil {
			p.logger.Error("task panicked outside invocation guard", "worker_id", id, "panic", r)
		}
	}()
	fn()
}
