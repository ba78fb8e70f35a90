package workerpool

import (
	"sync"
)

// Job is a unit of work to be run by the pool.
type Job func() error

// Pool runs jobs on a bounded number of worker goroutines.
// Jobs may be added in batches; Wait blocks until all added jobs have finished.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Job
	pending int
	stopped bool
	err     error
}

// New creates a pool backed by numWorkers goroutines.
func New(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < numWorkers; i++ {
		go p.work()
	}
	return p
}

// Add enqueues jobs for execution.
func (p *Pool) Add(jobs []Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.queue = append(p.queue, jobs...)
	p.pending += len(jobs)
	p.cond.Broadcast()
}

// Wait blocks until every added job has completed and returns the first
// error encountered by any job, if any.
func (p *Pool) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending > 0 && !p.stopped {
		p.cond.Wait()
	}
	return p.err
}

// Stop discards queued jobs and shuts the workers down.
// Jobs already running are allowed to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending -= len(p.queue)
	p.queue = nil
	p.stopped = true
	p.cond.Broadcast()
}

func (p *Pool) work() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped && len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		err := job()

		p.mu.Lock()
		if err != nil && p.err == nil {
			p.err = err
		}
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
		p.mu.Unlock()
	}
}
