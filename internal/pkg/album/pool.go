package album

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/internetarchive/Ripley/internal/pkg/fetch"
	"github.com/remeh/sizedwaitgroup"
)

// WorkerPool runs fetch tasks on at most size goroutines. Enqueue blocks
// while the pool is saturated, and every task posts exactly one result on
// the Results channel.
type WorkerPool struct {
	swg     sizedwaitgroup.SizedWaitGroup
	fetcher fetch.Fetcher
	results chan *fetch.Result
	active  atomic.Int64
	stopped atomic.Bool

	// admission is cancelled by Stop, in-flight tasks keep running on ctx
	ctx       context.Context
	admission context.Context
	stop      context.CancelFunc
}

// NewWorkerPool returns a pool bounded to size concurrent tasks
func NewWorkerPool(ctx context.Context, size int, fetcher fetch.Fetcher) *WorkerPool {
	if size < 1 {
		size = 1
	}

	admission, stop := context.WithCancel(ctx)

	return &WorkerPool{
		swg:       sizedwaitgroup.New(size),
		fetcher:   fetcher,
		results:   make(chan *fetch.Result, size),
		ctx:       context.WithoutCancel(ctx),
		admission: admission,
		stop:      stop,
	}
}

// Enqueue hands task to a worker, waiting for a free slot if needed.
// It returns once the task is scheduled, not once it is done.
func (wp *WorkerPool) Enqueue(task *fetch.Task) error {
	if wp.stopped.Load() {
		return ErrStopped
	}

	if err := wp.swg.AddWithContext(wp.admission); err != nil {
		return ErrStopped
	}

	// A free slot and Stop may race in AddWithContext
	if wp.stopped.Load() || wp.admission.Err() != nil {
		wp.swg.Done()
		return ErrStopped
	}

	wp.active.Add(1)

	go func() {
		defer wp.swg.Done()
		defer wp.active.Add(-1)

		wp.results <- wp.run(task)
	}()

	return nil
}

func (wp *WorkerPool) run(task *fetch.Task) (result *fetch.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &fetch.Result{Task: task, Outcome: fetch.Failed, Reason: fmt.Sprintf("worker panic: %v", r)}
		}
	}()

	result = wp.fetcher.Fetch(wp.ctx, task)
	if result == nil {
		result = &fetch.Result{Task: task, Outcome: fetch.Failed, Reason: "no result"}
	}
	result.Task = task

	return result
}

// Results is the channel workers post to. It is closed by Close.
func (wp *WorkerPool) Results() <-chan *fetch.Result {
	return wp.results
}

// Active returns the number of tasks currently running
func (wp *WorkerPool) Active() int64 {
	return wp.active.Load()
}

// Stop makes the pool refuse new tasks, running ones finish normally
func (wp *WorkerPool) Stop() {
	wp.stopped.Store(true)
	wp.stop()
}

// Close waits for running tasks and closes the results channel. Nothing
// may be enqueued once Close was called.
func (wp *WorkerPool) Close() {
	wp.swg.Wait()
	wp.stop()
	close(wp.results)
}
