package worker

import (
	"context"
	"sync"
)

// Job is one independent unit of work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job reports back
type Result interface {
	Err() error
}

// Pool runs jobs on a fixed number of goroutines. Results arrive in
// completion order; jobs that need ordering carry their own index.
type Pool struct {
	workers int
	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	closeJobs    sync.Once
	closeResults sync.Once
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the workers.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// submit queues a job. It returns false if the pool was stopped first.
func (p *Pool) submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// stop stops accepting jobs. The result channel is closed once the
// queued jobs have finished.
func (p *Pool) stop() {
	p.closeJobs.Do(func() {
		close(p.jobs)
		go func() {
			p.wg.Wait()
			p.finish()
			p.cancel()
		}()
	})
}

// Run starts the pool, feeds it jobs and collects every result
func (p *Pool) Run(jobs []Job) []Result {
	p.start()

	go func() {
		defer p.stop()
		for _, job := range jobs {
			if !p.submit(job) {
				return
			}
		}
	}()

	results := make([]Result, 0, len(jobs))
	for result := range p.results {
		results = append(results, result)
	}
	return results
}

func (p *Pool) finish() {
	p.closeResults.Do(func() {
		close(p.results)
	})
}
