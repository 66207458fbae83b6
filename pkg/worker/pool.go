package worker

import (
	"context"
	"sync"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

type Job func(ctx context.Context)

// Pool runs jobs on a fixed number of goroutines. Submit blocks while all
// workers are busy and the queue is full.
type Pool struct {
	ctx     context.Context
	jobs    chan Job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewPool starts maxWorkers goroutines. Jobs receive ctx.
func NewPool(ctx context.Context, maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	p := &Pool{
		ctx:  ctx,
		jobs: make(chan Job, maxWorkers),
	}
	for i := 0; i < maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(id, job)
	}
}

func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker job panicked", "worker", id, "panic", r)
		}
	}()
	job(p.ctx)
}

// Submit queues job. It reports false once the pool is stopped or its
// context is done.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Stop rejects new jobs and waits for queued ones to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		close(p.jobs)
		p.stopped = true
	}
	p.mu.Unlock()

	p.wg.Wait()
}
