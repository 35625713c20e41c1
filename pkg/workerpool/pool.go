// Package workerpool provides a supervised fixed-size goroutine pool.
//
// All workers start in New and drain a FIFO task queue. Close is the drain
// barrier: it stops intake, lets every queued task run to completion and
// returns once all workers have exited. In-flight tasks are never aborted by
// the pool; they finish or hit their own timeout.
package workerpool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// PanicHandler receives the recovered value of a task that panicked.
type PanicHandler func(recovered any)

// Option configures a Pool.
type Option func(*Pool)

// WithQueueSize sets the task buffer. Submit blocks while the buffer is full.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithPanicHandler installs a callback for recovered task panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(p *Pool) { p.onPanic = h }
}

// Pool runs submitted tasks on a fixed set of worker goroutines.
type Pool struct {
	workers   int
	queueSize int
	onPanic   PanicHandler

	tasks chan func()

	// mu guards closed against concurrent Submit/Close so no task is
	// ever sent on a closed channel.
	mu     sync.RWMutex
	closed bool

	active    atomic.Int32
	completed atomic.Int64
	panics    atomic.Int64

	wg sync.WaitGroup
}

// New starts a pool with the given number of workers.
// workers <= 0 falls back to GOMAXPROCS.
func New(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers:   workers,
		queueSize: workers * 16,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.tasks = make(chan func(), p.queueSize)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues a task. It blocks while the queue is full and returns
// false if the pool is closed.
func (p *Pool) Submit(task func()) bool {
	if task == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.tasks <- task
	return true
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

// run executes one task and keeps the worker alive if it panics.
func (p *Pool) run(task func()) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.completed.Add(1)
		if r := recover(); r != nil {
			p.panics.Add(1)
			if p.onPanic != nil {
				p.onPanic(r)
			}
		}
	}()
	task()
}

// Close stops intake and waits for every queued task to finish.
// Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// IsClosed reports whether Close has been called.
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Cap returns the number of workers.
func (p *Pool) Cap() int { return p.workers }

// Active returns the number of tasks currently executing.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Waiting returns the number of queued tasks not yet picked up.
func (p *Pool) Waiting() int { return len(p.tasks) }

// Stats is a point-in-time snapshot of pool counters.
type Stats struct {
	Workers   int
	Completed int64
	Panics    int64
}

func (s Stats) String() string {
	return fmt.Sprintf("workers=%d completed=%d panics=%d", s.Workers, s.Completed, s.Panics)
}

// Stats returns the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.workers,
		Completed: p.completed.Load(),
		Panics:    p.panics.Load(),
	}
}

// Map applies fn to each item on the pool and returns results in input
// order. Items that could not be submitted (pool closed) keep the zero value.
func Map[T, R any](p *Pool, items []T, fn func(T) R) []R {
	results := make([]R, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))

	for i, item := range items {
		i, item := i, item
		if !p.Submit(func() {
			defer wg.Done()
			results[i] = fn(item)
		}) {
			wg.Done()
		}
	}

	wg.Wait()
	return results
}
