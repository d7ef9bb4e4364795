// Package workers runs blocking engine calls on a fixed number of goroutines so
// an external binary never sees more concurrent invocations than it can handle.
package workers

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Submit once the pool has been stopped.
var ErrStopped = errors.New("worker pool stopped")

// Task is one unit of work. It receives the submitter's context.
type Task func(ctx context.Context) error

type job struct {
	ctx    context.Context
	task   Task
	result chan error
}

type WorkerPool struct {
	jobs    chan job
	workers int
	wg      sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		jobs:    make(chan job, workers*4),
		workers: workers,
	}
}

// Size is the number of worker goroutines.
func (p *WorkerPool) Size() int {
	return p.workers
}

// Start launches the workers. They exit when ctx is done or Stop is called.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-p.jobs:
					if !ok {
						return
					}
					j.result <- run(j)
				}
			}
		}()
	}
}

func run(j job) error {
	// The submitter may have given up while the job sat in the queue.
	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.task(j.ctx)
}

// Submit queues task and waits for it to finish or for ctx to end.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	if p.stopped || !p.started {
		p.mu.RUnlock()
		return ErrStopped
	}
	j := job{ctx: ctx, task: task, result: make(chan error, 1)}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for running tasks to return.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
