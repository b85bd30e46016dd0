package worker

import (
	"context"
	"errors"
)

// ErrSkipped marks a task that was never started because the run context
// ended first.
var ErrSkipped = errors.New("skipped: run deadline reached before start")

// Task computes one value. The context it receives is never cancelled by the
// run deadline; tasks bound their own external calls.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the result of one task, at the task's input position.
type Outcome[T any] struct {
	Index   int
	Value   T
	Err     error
	Skipped bool
}

// GetError implements Result.
func (o *Outcome[T]) GetError() error {
	return o.Err
}

type taskJob[T any] struct {
	index int
	run   context.Context
	task  Task[T]
}

func (j *taskJob[T]) Execute(_ context.Context) (res Result) {
	if j.run.Err() != nil {
		return &Outcome[T]{Index: j.index, Err: ErrSkipped, Skipped: true}
	}
	defer func() {
		if r := recover(); r != nil {
			res = &Outcome[T]{Index: j.index, Err: &PanicError{Value: r}}
		}
	}()
	value, err := j.task(context.WithoutCancel(j.run))
	return &Outcome[T]{Index: j.index, Value: value, Err: err}
}

// BatchProcessor runs tasks on a bounded pool and returns outcomes in input order.
type BatchProcessor[T any] struct {
	concurrency int
}

// NewBatchProcessor creates a batch processor running at most concurrency tasks at once.
func NewBatchProcessor[T any](concurrency int) *BatchProcessor[T] {
	return &BatchProcessor[T]{concurrency: concurrency}
}

// Process runs every task. Tasks not yet started when ctx ends come back
// Skipped; tasks already running finish. A panicking task yields an Outcome
// whose Err is a *PanicError.
func (b *BatchProcessor[T]) Process(ctx context.Context, tasks []Task[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	pool := NewPool(b.concurrency)
	pool.Start()
	for i, task := range tasks {
		pool.Submit(&taskJob[T]{index: i, run: ctx, task: task})
	}

	for _, r := range pool.Wait() {
		if o, ok := r.(*Outcome[T]); ok {
			outcomes[o.Index] = *o
		}
	}
	return outcomes
}
