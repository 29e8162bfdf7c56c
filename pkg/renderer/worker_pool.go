package renderer

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

// frameTarget is what the workers render into. It only changes between
// frames, while no task is outstanding.
type frameTarget struct {
	scene   *scene.Scene
	sampler sampler.FrameSampler
}

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	queue      *sampler.JobQueue
	kernel     Kernel
	target     *atomic.Pointer[frameTarget]
	cpuLoad    *atomic.Int32
	workers    []*Worker
	numWorkers int
	samples    atomic.Int64 // Elementary samples committed
}

// Worker handles individual tile rendering tasks
type Worker struct {
	ID     int
	pool   *WorkerPool
	buffer []core.RGB // Task-local radiance, committed once the tile is done
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(queue *sampler.JobQueue, kernel Kernel, target *atomic.Pointer[frameTarget], cpuLoad *atomic.Int32, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		queue:      queue,
		kernel:     kernel,
		target:     target,
		cpuLoad:    cpuLoad,
		numWorkers: numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{ID: i, pool: wp})
	}

	return wp
}

// Start runs every worker in g until ctx is cancelled
func (wp *WorkerPool) Start(ctx context.Context, g *errgroup.Group) {
	for _, worker := range wp.workers {
		g.Go(func() error {
			return worker.run(ctx)
		})
	}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Samples returns the number of elementary samples committed so far
func (wp *WorkerPool) Samples() int64 {
	return wp.samples.Load()
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context) error {
	for {
		task, err := w.pool.queue.Take(ctx)
		if err != nil {
			return nil
		}

		start := time.Now()
		w.render(ctx, task)
		w.pool.queue.Done()

		if !w.throttle(ctx, time.Since(start)) {
			return nil
		}
	}
}

// render samples every pixel of the task and commits the results unless
// ctx was cancelled in the meantime.
func (w *Worker) render(ctx context.Context, task sampler.RenderTask) {
	target := w.pool.target.Load()
	if target == nil {
		return
	}

	n := task.PixelCount()
	if cap(w.buffer) < n {
		w.buffer = make([]core.RGB, n)
	}
	buffer := w.buffer[:n]

	random := task.Random()
	b := task.Bounds
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if ctx.Err() != nil {
			return
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			buffer[i] = w.pool.kernel.Sample(target.scene, x, y, task.Samples, random)
			i++
		}
	}
	if ctx.Err() != nil {
		return
	}

	i = 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := buffer[i]
			target.sampler.AddSample(x, y, c.R, c.G, c.B, task.Samples)
			i++
		}
	}
	w.pool.samples.Add(int64(n * task.Samples))
}

// throttle idles after a task that took busy so that the worker samples for
// about cpuLoad percent of the time. It returns false if ctx was cancelled.
func (w *Worker) throttle(ctx context.Context, busy time.Duration) bool {
	load := time.Duration(clampLoad(int(w.pool.cpuLoad.Load())))
	if load >= 100 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(busy * (100 - load) / load)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
