// Package sched executes recompute batches: a bounded worker pool plus a
// runner that walks dependency levels in order, with a hard barrier between
// levels and an inline fast path for small levels.
package sched

import "sync"

// Pool is a fixed-size worker pool. It is owned by the engine, which is
// responsible for calling Shutdown exactly once; submitting after Shutdown
// is a caller error.
type Pool struct {
	tasks chan func()
	done  sync.WaitGroup
}

// NewPool starts workers goroutines ready to run submitted tasks.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{tasks: make(chan func())}
	p.done.Add(workers)
	for w := 0; w < workers; w++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.done.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit blocks until a worker accepts the task.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Shutdown stops accepting tasks and waits for the workers to drain.
func (p *Pool) Shutdown() {
	close(p.tasks)
	p.done.Wait()
}
