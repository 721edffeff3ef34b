package keygen

import (
	"context"
	"sync"
)

// job is one unit of key generation work.
type job func(ctx context.Context) error

// workerPool runs jobs on a fixed set of goroutines. The first failure cancels
// the pool context, so queued and future jobs are skipped.
type workerPool struct {
	workers int
	jobs    chan job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

func newWorkerPool(ctx context.Context, workers int) *workerPool {
	if workers <= 0 {
		workers = 4
	}
	ctx, cancel := context.WithCancel(ctx)
	return &workerPool{
		workers: workers,
		jobs:    make(chan job, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the worker goroutines.
func (p *workerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if p.ctx.Err() != nil {
			continue
		}
		if err := j(p.ctx); err != nil {
			p.fail(err)
		}
	}
}

func (p *workerPool) fail(err error) {
	p.errOnce.Do(func() {
		p.err = err
		p.cancel()
	})
}

// Submit queues a job. It returns the context error once the pool has failed or been cancelled.
func (p *workerPool) Submit(j job) error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
	}
	select {
	case p.jobs <- j:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Wait closes the queue, waits for the workers and returns the first job error,
// or the parent context's error if it was cancelled.
func (p *workerPool) Wait() error {
	close(p.jobs)
	p.wg.Wait()
	defer p.cancel()
	if p.err != nil {
		return p.err
	}
	return p.ctx.Err()
}
