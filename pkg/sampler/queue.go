package sampler

import (
	"context"
	"sync"
)

// TaskQueue accepts render tasks for the current frame
type TaskQueue interface {
	// Put enqueues a task, blocking while the queue is full. It returns the
	// context error if ctx is cancelled first.
	Put(ctx context.Context, task RenderTask) error
}

// JobQueue is a bounded task queue shared by the render loop and workers.
// It also counts outstanding tasks so the producer can wait for a frame to
// be fully consumed: every task taken from the queue must be released with
// Done once its samples are ingested or abandoned.
type JobQueue struct {
	tasks chan RenderTask

	mu          sync.Mutex
	outstanding int
	idle        chan struct{} // closed while outstanding == 0
}

// NewJobQueue creates a queue holding at most capacity pending tasks
func NewJobQueue(capacity int) *JobQueue {
	if capacity <= 0 {
		capacity = 1
	}
	idle := make(chan struct{})
	close(idle)
	return &JobQueue{
		tasks: make(chan RenderTask, capacity),
		idle:  idle,
	}
}

func (q *JobQueue) acquire() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.outstanding == 0 {
		q.idle = make(chan struct{})
	}
	q.outstanding++
}

// Put enqueues a task for the workers
func (q *JobQueue) Put(ctx context.Context, task RenderTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.acquire()
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		q.Done()
		return ctx.Err()
	}
}

// Take dequeues the next task, blocking until one is available or ctx is
// cancelled.
func (q *JobQueue) Take(ctx context.Context) (RenderTask, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	case <-ctx.Done():
		return RenderTask{}, ctx.Err()
	}
}

// Done releases one outstanding task
func (q *JobQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.outstanding <= 0 {
		panic("sampler: JobQueue.Done called with no outstanding task")
	}
	q.outstanding--
	if q.outstanding == 0 {
		close(q.idle)
	}
}

// Wait blocks until every task put on the queue has been released
func (q *JobQueue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain discards all pending tasks and returns how many were dropped
func (q *JobQueue) Drain() int {
	dropped := 0
	for {
		select {
		case <-q.tasks:
			q.Done()
			dropped++
		default:
			return dropped
		}
	}
}

// Outstanding returns the number of tasks not yet released
func (q *JobQueue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.outstanding
}
