// Package parallel runs independent jobs, such as separate unification
// problems, on a bounded set of goroutines.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a fixed set of goroutines pulling tasks from a shared
// channel. Submit blocks once every worker is busy and the buffer is full.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool starts maxWorkers workers. A non-positive maxWorkers means
// one per CPU core.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}
	return pool
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.maxWorkers }

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()
	for {
		select {
		case task := <-wp.taskChan:
			task()
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit hands task to the pool. It fails with ErrPoolShutdown once
// Shutdown was called and with ctx.Err() if ctx ends while waiting.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	select {
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown stops the workers after their current task. Queued tasks that
// no worker picked up are dropped.
func (wp *WorkerPool) Shutdown() {
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.workerWg.Wait()
	})
}

// ErrPoolShutdown is returned when submitting to a pool that was shut down.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// Task states used by Map to tell queued calls from running ones.
const (
	taskQueued int32 = iota
	taskRunning
	taskDropped
)

// Map calls fn for every index in [0, n) on the pool and returns the
// results in index order. It waits for every call that started. When ctx
// ends or the pool shuts down before all calls ran, the remaining results
// are left zero and the error is returned.
func Map[T any](ctx context.Context, wp *WorkerPool, n int, fn func(ctx context.Context, i int) T) ([]T, error) {
	out := make([]T, n)
	states := make([]atomic.Int32, n)
	var wg sync.WaitGroup
	var err error
	submitted := 0
	for ; submitted < n; submitted++ {
		if err = ctx.Err(); err != nil {
			break
		}
		i := submitted
		wg.Add(1)
		err = wp.Submit(ctx, func() {
			if !states[i].CompareAndSwap(taskQueued, taskRunning) {
				return
			}
			defer wg.Done()
			out[i] = fn(ctx, i)
		})
		if err != nil {
			wg.Done()
			break
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-wp.shutdownChan:
		// Tasks still sitting in the channel will never run.
		for i := 0; i < submitted; i++ {
			if states[i].CompareAndSwap(taskQueued, taskDropped) {
				wg.Done()
				if err == nil {
					err = ErrPoolShutdown
				}
			}
		}
		<-done
	}
	return out, err
}
