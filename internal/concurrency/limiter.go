// Package concurrency implements the bounded-concurrency FIFO task
// primitive the orchestrator uses to cap fan-out against upstream
// providers and against pair-level computation, grounded in the teacher's
// AdaptiveWorkerPool but trimmed to a single fixed-size pool with no
// Lambda/ECS environment detection (the spec names fixed concurrency
// values directly).
package concurrency

import (
	"context"
	"sync"
	"time"
)

// Task is a unit of work submitted to a Limiter.
type Task func(ctx context.Context)

// Limiter bounds concurrent execution of submitted tasks to N, admitting
// queued tasks in FIFO order. Completion order is not guaranteed to match
// submission order.
type Limiter struct {
	name    string
	sem     chan struct{}
	queue   chan func()
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	metrics *Metrics
}

// New creates a Limiter allowing at most n concurrently-running tasks.
// name identifies the limiter in exported metrics (e.g. "upstream", "pair").
func New(ctx context.Context, name string, n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	lctx, cancel := context.WithCancel(ctx)
	l := &Limiter{
		name:    name,
		sem:     make(chan struct{}, n),
		queue:   make(chan func(), 4096),
		ctx:     lctx,
		cancel:  cancel,
		metrics: newMetrics(name),
	}
	go l.dispatch()
	return l
}

// dispatch admits queued tasks in FIFO order, blocking on the semaphore
// until a slot is free.
func (l *Limiter) dispatch() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case fn, ok := <-l.queue:
			if !ok {
				return
			}
			select {
			case l.sem <- struct{}{}:
			case <-l.ctx.Done():
				return
			}
			l.metrics.inFlight.Inc()
			go func() {
				defer func() {
					<-l.sem
					l.metrics.inFlight.Dec()
					l.wg.Done()
					if r := recover(); r != nil {
						l.metrics.panics.Inc()
					}
				}()
				fn()
			}()
		}
	}
}

// Run submits a task and blocks until it has completed or ctx is done,
// whichever comes first. If ctx is done before the task could be queued,
// the task is never run; if ctx is done after it was queued, Run returns
// at once and the task still runs (with the canceled ctx) when admitted.
// The limiter applies no deadline of its own.
func (l *Limiter) Run(ctx context.Context, fn Task) {
	done := make(chan struct{})
	l.wg.Add(1)
	start := time.Now()
	select {
	case l.queue <- func() {
		fn(ctx)
		close(done)
	}:
	case <-ctx.Done():
		l.wg.Done()
		return
	}
	select {
	case <-done:
		l.metrics.taskDuration.Observe(time.Since(start).Seconds())
	case <-ctx.Done():
	}
}

// Wait blocks until every submitted task has completed.
func (l *Limiter) Wait() {
	l.wg.Wait()
}

// Close shuts the limiter down; queued-but-not-yet-admitted tasks are
// dropped.
func (l *Limiter) Close() {
	l.once.Do(func() {
		l.cancel()
	})
}
