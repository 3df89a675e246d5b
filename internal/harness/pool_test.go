package harness

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPool_RunsEverySubmission(t *testing.T) {
	p := NewPool(4, 100, discardLogger())

	var (
		wg    sync.WaitGroup
		count atomic.Int64
	)
	wg.Add(100)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	p.Close()
	wg.Wait()

	assert.Equal(t, int64(100), count.Load())
	assert.Equal(t, 4, p.Workers())
	assert.Equal(t, 4, p.Capacity())
}

func TestPool_WorkersNeverExceedTasks(t *testing.T) {
	p := NewPool(100, 3, discardLogger())
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Submit(func() {}))
	}
	p.Close()

	assert.Equal(t, 3, p.Workers())
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool(2, 2, discardLogger())
	p.Close()
	p.Close() // idempotent

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestPool_QueueFull(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)

	p := NewPool(1, 1, discardLogger())
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-gate
	}))
	<-started

	require.NoError(t, p.Submit(func() {}))
	assert.ErrorIs(t, p.Submit(func() {}), ErrQueueFull)
}

func TestPool_SubmitDoesNotBlockWhileWorkersBusy(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)

	p := NewPool(2, 50, discardLogger())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			_ = p.Submit(func() { <-gate })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked while workers were busy")
	}
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	p := NewPool(1, 2, discardLogger())

	ran := make(chan struct{})
	require.NoError(t, p.Submit(func() { panic("bad task") }))
	require.NoError(t, p.Submit(func() { close(ran) }))
	p.Close()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("worker died after a panicking task")
	}
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(0, 0, nil)
	assert.Equal(t, DefaultWorkers, p.Capacity())
}
