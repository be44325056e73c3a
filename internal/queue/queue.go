// Package queue implements the deferred work queue of the cache engine: an unbounded
// FIFO drained by exactly one worker goroutine. Tasks never run concurrently with each
// other, and a task may enqueue further tasks without blocking.
package queue

import (
	"context"
	"sync"

	"github.com/hyp3rd/purgecache/internal/sentinel"
)

// Task is a unit of deferred work.
type Task func()

// PanicHandler receives the value recovered from a panicking task.
type PanicHandler func(recovered any)

// Queue is a single-worker FIFO of deferred tasks.
type Queue struct {
	mu      sync.Mutex
	tasks   []Task
	closed  bool
	wake    chan struct{} // signals the worker that tasks are pending or the queue closed
	done    chan struct{} // closed when the worker exits
	onPanic PanicHandler
}

// New creates a queue and starts its worker.
func New(onPanic PanicHandler) *Queue {
	q := &Queue{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}

	go q.worker()

	return q
}

// Enqueue appends a task. It fails with sentinel.ErrQueueClosed after Shutdown.
func (q *Queue) Enqueue(task Task) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return sentinel.ErrQueueClosed
	}

	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	q.signal()

	return nil
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Closed reports whether Shutdown has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

// Sync blocks until every task enqueued before the call, and every task those tasks
// enqueued, has run. A task calling Sync waits on itself: only ctx ends the call.
func (q *Queue) Sync(ctx context.Context) error {
	for {
		remaining := make(chan int, 1)

		err := q.Enqueue(func() { remaining <- q.Len() })
		if err != nil {
			// closed: the worker still drains what was queued before Shutdown
			return q.wait(ctx)
		}

		select {
		case n := <-remaining:
			if n == 0 {
				return nil
			}
		case <-ctx.Done():
			return sentinel.ErrTimeoutOrCanceled
		}
	}
}

// Shutdown stops accepting tasks and waits for the worker to drain the queue.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.signal()

	return q.wait(ctx)
}

func (q *Queue) wait(ctx context.Context) error {
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return sentinel.ErrTimeoutOrCanceled
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// worker runs tasks in FIFO order until the queue is closed and empty.
func (q *Queue) worker() {
	defer close(q.done)

	for {
		task, ok := q.next()
		if !ok {
			return
		}

		q.run(task)
	}
}

// next pops the head of the queue, waiting for work. It returns false once the
// queue is closed and empty.
func (q *Queue) next() (Task, bool) {
	for {
		q.mu.Lock()

		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks[0] = nil
			q.tasks = q.tasks[1:]
			q.mu.Unlock()

			return task, true
		}

		if q.closed {
			q.mu.Unlock()

			return nil, false
		}

		q.mu.Unlock()

		<-q.wake
	}
}

func (q *Queue) run(task Task) {
	defer func() {
		recovered := recover()
		if recovered != nil && q.onPanic != nil {
			q.onPanic(recovered)
		}
	}()

	task()
}
