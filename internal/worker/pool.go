package worker

import (
	"context"
	"fmt"
	"sync"
)

// Job is one unit of work run by a Pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job hands back.
type Result interface {
	GetError() error
}

// PanicError is the result error of a job that panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

type failed struct{ err error }

func (f failed) GetError() error { return f.err }

// Pool runs submitted jobs on a fixed set of goroutines. A collector drains
// results while jobs are still being submitted, so the queue never backs up
// behind unread results.
type Pool struct {
	size int

	queue chan Job
	out   chan Result

	running sync.WaitGroup
	drained chan struct{}
	results []Result

	stop    context.CancelFunc
	ctx     context.Context
	started sync.Once
	closed  sync.Once
}

// NewPool returns a pool with size workers; sizes below one mean one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Pool{
		size:    size,
		queue:   make(chan Job, size*2),
		out:     make(chan Result, size*2),
		drained: make(chan struct{}),
		ctx:     ctx,
		stop:    stop,
	}
}

// Start launches the collector and the workers. Calling it again is a no-op.
func (p *Pool) Start() {
	p.started.Do(func() {
		go p.collect()
		p.running.Add(p.size)
		for range p.size {
			go p.run()
		}
	})
}

func (p *Pool) collect() {
	defer close(p.drained)
	for r := range p.out {
		p.results = append(p.results, r)
	}
}

func (p *Pool) run() {
	defer p.running.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok {
				return
			}
			p.out <- p.safely(job)
		}
	}
}

func (p *Pool) safely(job Job) (res Result) {
	defer func() {
		if v := recover(); v != nil {
			res = failed{err: &PanicError{Value: v}}
		}
	}()
	return job.Execute(p.ctx)
}

// Submit queues a job, blocking while the queue is full. Jobs submitted
// after Shutdown are dropped.
func (p *Pool) Submit(job Job) {
	select {
	case p.queue <- job:
	case <-p.ctx.Done():
	}
}

// Wait closes the queue, lets every queued job finish and returns the
// results in completion order. Submit must not be called afterwards.
func (p *Pool) Wait() []Result {
	close(p.queue)
	p.finish()
	p.stop()
	return p.results
}

// Shutdown stops the workers once their current job returns; anything still
// queued is discarded.
func (p *Pool) Shutdown() {
	p.stop()
	p.finish()
}

func (p *Pool) finish() {
	p.Start()
	p.running.Wait()
	p.closed.Do(func() { close(p.out) })
	<-p.drained
}
