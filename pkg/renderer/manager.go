package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-progressive-sampler/pkg/bitmap"
	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/progress"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

// RenderManager runs progressive render sessions. The render loop owns the
// frame mutex while a frame is in flight; everything that reads or replaces
// the accumulation state takes it too, so it only ever observes the state
// between frames.
type RenderManager struct {
	config Config
	kernel Kernel
	logger core.Logger

	mu       sync.Mutex // Guards the fields below
	state    State
	provider scene.Provider
	canvas   Repaintable
	control  SnapshotControl
	task     progress.Task
	cancel   context.CancelFunc
	done     chan struct{}
	err      error

	frameMu    sync.Mutex // Held while a frame is in flight
	scene      *scene.Scene
	sampler    sampler.FrameSampler
	renderTime time.Duration // Accumulated, including restored dumps
	frames     int           // Frames completed in this session
	completed  bool          // Target reached and reported

	bufferMu sync.RWMutex
	buffer   *bitmap.Bitmap

	statusMu sync.Mutex
	status   RenderStatus

	queue   *sampler.JobQueue
	target  atomic.Pointer[frameTarget]
	cpuLoad atomic.Int32
	pool    *WorkerPool

	wake         chan struct{}
	resetPending atomic.Bool

	listeners listeners
}

var _ Renderer = (*RenderManager)(nil)

// NewRenderManager creates a renderer that computes radiance with kernel
func NewRenderManager(kernel Kernel, config Config) *RenderManager {
	logger := config.Logger
	if logger == nil {
		logger = core.DiscardLogger()
	}

	rm := &RenderManager{
		config: config,
		kernel: kernel,
		logger: logger,
		state:  Constructed,
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	rm.cpuLoad.Store(int32(clampLoad(config.CPULoad)))

	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	capacity := config.QueueCapacity
	if capacity <= 0 {
		capacity = 2 * numWorkers
	}
	rm.queue = sampler.NewJobQueue(capacity)
	rm.pool = NewWorkerPool(rm.queue, kernel, &rm.target, &rm.cpuLoad, numWorkers)
	return rm
}

func (rm *RenderManager) SetSceneProvider(provider scene.Provider) {
	rm.mu.Lock()
	rm.provider = provider
	changed := rm.state == Constructed && provider != nil
	if changed {
		rm.state = Configured
	}
	rm.mu.Unlock()

	if changed {
		rm.listeners.fireStateChanged(Configured)
	}
}

func (rm *RenderManager) SetCanvas(canvas Repaintable) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.canvas = canvas
}

func (rm *RenderManager) SetSnapshotControl(control SnapshotControl) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.control = control
}

func (rm *RenderManager) SetRenderTask(task progress.Task) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.task = task
}

func (rm *RenderManager) renderTask() progress.Task {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.task == nil {
		return progress.Nop.Task("", 0)
	}
	return rm.task
}

func (rm *RenderManager) SetCPULoad(loadPercent int) {
	rm.cpuLoad.Store(int32(clampLoad(loadPercent)))
}

// NumWorkers returns the size of the worker pool
func (rm *RenderManager) NumWorkers() int {
	return rm.pool.GetNumWorkers()
}

// CPULoad returns the current worker load percentage
func (rm *RenderManager) CPULoad() int {
	return int(rm.cpuLoad.Load())
}

func (rm *RenderManager) AddRenderCompletedListener(listener func(renderTime time.Duration, samplesPerSecond int)) ListenerHandle {
	return rm.listeners.addRenderCompleted(listener)
}

func (rm *RenderManager) AddFrameCompletedListener(listener func(sc *scene.Scene, spp int)) ListenerHandle {
	return rm.listeners.addFrameCompleted(listener)
}

func (rm *RenderManager) AddRenderStatusListener(listener RenderStatusListener) ListenerHandle {
	return rm.listeners.addRenderStatus(listener)
}

func (rm *RenderManager) AddSceneStatusListener(listener SceneStatusListener) ListenerHandle {
	return rm.listeners.addSceneStatus(listener)
}

func (rm *RenderManager) RemoveListener(handle ListenerHandle) {
	rm.listeners.remove(handle)
}

func (rm *RenderManager) WithBufferedImage(fn func(img *bitmap.Bitmap)) {
	rm.bufferMu.RLock()
	defer rm.bufferMu.RUnlock()
	if rm.buffer != nil {
		fn(rm.buffer)
	}
}

func (rm *RenderManager) WithSampleBuffer(fn func(samples []float64, width, height int)) {
	rm.frameMu.Lock()
	s := rm.sampler
	var samples []float64
	if s != nil {
		samples = s.SampleBuffer()
	}
	rm.frameMu.Unlock()

	if s != nil {
		fn(samples, s.Width(), s.Height())
	}
}

func (rm *RenderManager) RenderStatus() RenderStatus {
	rm.mu.Lock()
	state := rm.state
	rm.mu.Unlock()

	rm.statusMu.Lock()
	defer rm.statusMu.Unlock()
	status := rm.status
	status.State = state
	return status
}

// State returns the lifecycle state
func (rm *RenderManager) State() State {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.state
}

// currentScene asks the provider for a scene and validates it
func (rm *RenderManager) currentScene() (*scene.Scene, error) {
	rm.mu.Lock()
	provider := rm.provider
	rm.mu.Unlock()
	if provider == nil {
		return nil, ErrNotConfigured
	}

	sc := provider.Scene()
	if sc == nil {
		return nil, ErrNoScene
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene %q: %w", sc.Name, err)
	}
	return sc, nil
}

// Start runs the render loop and the workers. Accumulation state restored
// with LoadDump before Start is kept when it matches the scene.
func (rm *RenderManager) Start() error {
	rm.mu.Lock()
	switch rm.state {
	case Constructed:
		rm.mu.Unlock()
		return ErrNotConfigured
	case Configured:
	default:
		rm.mu.Unlock()
		return ErrAlreadyStarted
	}
	rm.mu.Unlock()

	if rm.kernel == nil {
		return ErrNoKernel
	}
	sc, err := rm.currentScene()
	if err != nil {
		return err
	}

	rm.frameMu.Lock()
	if rm.sampler == nil || rm.sampler.Width() != sc.Width() || rm.sampler.Height() != sc.Height() {
		if rm.sampler != nil {
			rm.logger.Printf("Discarding %dx%d render state for %dx%d scene\n",
				rm.sampler.Width(), rm.sampler.Height(), sc.Width(), sc.Height())
		}
		if err := rm.resetLocked(sc); err != nil {
			rm.frameMu.Unlock()
			return err
		}
	} else {
		rm.scene = sc
		rm.target.Store(&frameTarget{scene: sc, sampler: rm.sampler})
		if err := rm.refreshBufferLocked(); err != nil {
			rm.frameMu.Unlock()
			return err
		}
	}
	rm.frameMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	rm.mu.Lock()
	if rm.state != Configured {
		// Shut down while preparing
		rm.mu.Unlock()
		cancel()
		return ErrAlreadyStarted
	}
	rm.cancel = cancel
	rm.state = Running
	rm.mu.Unlock()
	rm.listeners.fireStateChanged(Running)

	rm.logger.Printf("Starting render of %q (%dx%d, target %d spp, %d workers)\n",
		sc.Name, sc.Width(), sc.Height(), sc.TargetSPP(), rm.pool.GetNumWorkers())
	rm.listeners.fireSceneStatus(fmt.Sprintf("Rendering %s", sc.Name))

	rm.pool.Start(gctx, g)
	g.Go(func() error {
		return rm.renderLoop(gctx)
	})

	go func() {
		err := g.Wait()
		cancel()
		rm.terminate(err)
	}()
	return nil
}

func (rm *RenderManager) terminate(err error) {
	rm.mu.Lock()
	rm.err = err
	rm.state = Terminated
	rm.mu.Unlock()

	if err != nil {
		rm.logger.Printf("Render stopped with error: %v\n", err)
	}
	rm.listeners.fireStateChanged(Terminated)
	close(rm.done)
}

// Shutdown stops the render loop and the workers. In-flight tasks are
// abandoned without committing. Shutdown of a renderer that was never
// started terminates it immediately.
func (rm *RenderManager) Shutdown() {
	rm.mu.Lock()
	switch rm.state {
	case Constructed, Configured:
		rm.state = Terminated
		rm.mu.Unlock()
		rm.listeners.fireStateChanged(Terminated)
		close(rm.done)
	case Running:
		rm.state = ShuttingDown
		cancel := rm.cancel
		rm.mu.Unlock()
		rm.listeners.fireStateChanged(ShuttingDown)
		cancel()
	default:
		rm.mu.Unlock()
	}
}

// Join blocks until the renderer terminated and returns the error that
// stopped it, if any. Cancellation is not an error.
func (rm *RenderManager) Join() error {
	rm.mu.Lock()
	state := rm.state
	rm.mu.Unlock()
	if state == Constructed || state == Configured {
		return ErrNotStarted
	}

	<-rm.done
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.err
}

// ResetScene discards the accumulated samples and restarts from the
// provider's current scene. A running renderer applies the reset before its
// next frame.
func (rm *RenderManager) ResetScene() error {
	if rm.State() == Running {
		rm.resetPending.Store(true)
		rm.notify()
		return nil
	}

	sc, err := rm.currentScene()
	if err != nil {
		return err
	}
	rm.frameMu.Lock()
	err = rm.resetLocked(sc)
	rm.frameMu.Unlock()
	if err == nil {
		rm.listeners.fireSceneStatus(fmt.Sprintf("Reset %s", sc.Name))
	}
	return err
}

// notify wakes the render loop if it is idle
func (rm *RenderManager) notify() {
	select {
	case rm.wake <- struct{}{}:
	default:
	}
}

// resetLocked replaces the accumulation state with an empty one for sc
func (rm *RenderManager) resetLocked(sc *scene.Scene) error {
	s, err := sampler.New(sc.SamplingConfig.Sampler, sc.Width(), sc.Height(), rm.config.Sampler)
	if err != nil {
		return err
	}
	rm.scene = sc
	rm.sampler = s
	rm.renderTime = 0
	rm.frames = 0
	rm.completed = false
	rm.target.Store(&frameTarget{scene: sc, sampler: s})
	return rm.refreshBufferLocked()
}

// refreshBufferLocked reconstructs the buffered image from the current
// accumulation state and publishes the status.
func (rm *RenderManager) refreshBufferLocked() error {
	rm.bufferMu.Lock()
	if rm.buffer == nil || rm.buffer.Width != rm.sampler.Width() || rm.buffer.Height != rm.sampler.Height() {
		rm.buffer = bitmap.New(rm.sampler.Width(), rm.sampler.Height())
	}
	c := rm.scene.SamplingConfig
	err := sampler.Finalize(rm.sampler, c.Exposure, c.Postprocess, rm.buffer)
	rm.bufferMu.Unlock()

	rm.statusMu.Lock()
	rm.status = RenderStatus{
		SamplesPerPixel:  rm.sampler.SamplesPerPixel(),
		TargetSPP:        rm.scene.TargetSPP(),
		Frames:           rm.frames,
		RenderTime:       rm.renderTime,
		SamplesPerSecond: samplesPerSecond(rm.sampler.SamplesPerPixel(), rm.sampler.Width(), rm.sampler.Height(), rm.renderTime),
	}
	rm.statusMu.Unlock()
	return err
}

func (rm *RenderManager) applyReset() {
	if !rm.resetPending.Swap(false) {
		return
	}
	sc, err := rm.currentScene()
	if err != nil {
		rm.logger.Printf("Ignoring scene reset: %v\n", err)
		return
	}

	rm.frameMu.Lock()
	err = rm.resetLocked(sc)
	rm.frameMu.Unlock()
	if err != nil {
		rm.logger.Printf("Scene reset failed: %v\n", err)
		return
	}
	rm.logger.Printf("Scene reset: %q (%dx%d)\n", sc.Name, sc.Width(), sc.Height())
	rm.listeners.fireSceneStatus(fmt.Sprintf("Reset %s", sc.Name))
	rm.renderTask().Update(0)
	rm.repaint()
}

// renderLoop renders frames until the target is reached or ctx is done
func (rm *RenderManager) renderLoop(ctx context.Context) error {
	for {
		rm.applyReset()

		finished, err := rm.renderFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				rm.logger.Printf("Render loop cancelled\n")
				return nil
			}
			return err
		}
		if !finished {
			continue
		}

		if rm.config.Headless {
			rm.Shutdown()
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-rm.wake:
		}
	}
}

// renderFrame runs one frame under the frame mutex. It reports finished
// once the target samples per pixel is reached instead of starting another
// frame.
func (rm *RenderManager) renderFrame(ctx context.Context) (bool, error) {
	rm.frameMu.Lock()

	sc, s := rm.scene, rm.sampler
	target := sc.TargetSPP()
	if target > 0 && s.SamplesPerPixel() >= target {
		first := !rm.completed
		rm.completed = true
		renderTime := rm.renderTime
		sps := samplesPerSecond(s.SamplesPerPixel(), s.Width(), s.Height(), renderTime)
		rm.frameMu.Unlock()

		if first {
			rm.logger.Printf("Reached target of %d samples per pixel in %v\n", target, renderTime.Round(time.Millisecond))
			rm.renderTask().Done()
			rm.listeners.fireRenderCompleted(renderTime, sps)
		}
		return true, nil
	}

	start := time.Now()
	err := s.SampleFrame(ctx, rm.queue)
	if err == nil {
		err = rm.queue.Wait(ctx)
	}
	if err != nil {
		// Abandon queued tasks and let in-flight ones drain so nothing is
		// committed once the frame mutex is released.
		rm.queue.Drain()
		rm.queue.Wait(context.Background())
		rm.frameMu.Unlock()
		return false, err
	}

	s.OnFrameFinish()
	rm.renderTime += time.Since(start)
	rm.frames++
	spp := s.SamplesPerPixel()
	err = rm.refreshBufferLocked()
	rm.frameMu.Unlock()
	if err != nil {
		return false, err
	}

	rm.repaint()
	rm.renderTask().Update(int64(spp))
	rm.autoSave(sc, spp)
	rm.listeners.fireFrameCompleted(sc, spp)
	rm.listeners.fireStatusUpdated(rm.RenderStatus())
	return false, nil
}

func (rm *RenderManager) repaint() {
	rm.mu.Lock()
	canvas := rm.canvas
	rm.mu.Unlock()
	if canvas != nil {
		canvas.Repaint()
	}
}
