// Package renderer drives progressive render sessions: it runs the frame
// loop, feeds render tasks to a pool of workers and keeps the displayable
// image and the persisted accumulation state up to date.
package renderer

import (
	"math/rand"
	"time"

	"github.com/df07/go-progressive-sampler/pkg/bitmap"
	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/progress"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

// Kernel computes pixel radiance
type Kernel interface {
	// Sample returns the mean radiance of samples elementary samples
	// through pixel (x, y). It must only use random for random numbers.
	Sample(sc *scene.Scene, x, y, samples int, random *rand.Rand) core.RGB
}

// Repaintable is notified whenever a new frame is available
type Repaintable interface {
	Repaint()
}

// RenderStatusListener observes the renderer lifecycle and progress
type RenderStatusListener interface {
	RenderStateChanged(state State)
	RenderStatusUpdated(status RenderStatus)
}

// SceneStatusListener receives human readable scene status messages
type SceneStatusListener interface {
	SceneStatus(message string)
}

// Renderer is a progressive renderer
type Renderer interface {
	SetSceneProvider(provider scene.Provider)
	SetCanvas(canvas Repaintable)

	// SetCPULoad sets the percentage of time workers spend sampling. Values
	// are clamped to [1, 100].
	SetCPULoad(loadPercent int)

	AddRenderCompletedListener(listener func(renderTime time.Duration, samplesPerSecond int)) ListenerHandle
	AddFrameCompletedListener(listener func(sc *scene.Scene, spp int)) ListenerHandle
	AddRenderStatusListener(listener RenderStatusListener) ListenerHandle
	AddSceneStatusListener(listener SceneStatusListener) ListenerHandle
	RemoveListener(handle ListenerHandle)

	// SetSnapshotControl sets the policy consulted after every frame
	SetSnapshotControl(control SnapshotControl)
	// SetRenderTask sets the task that receives the samples per pixel
	// after every frame. It is marked done once the target is reached.
	SetRenderTask(task progress.Task)

	// WithBufferedImage calls fn with the most recently finished frame. The
	// image must not be retained after fn returns.
	WithBufferedImage(fn func(img *bitmap.Bitmap))

	// WithSampleBuffer calls fn with a copy of the accumulated radiance as
	// row-major RGB triples.
	WithSampleBuffer(fn func(samples []float64, width, height int))

	RenderStatus() RenderStatus

	SaveDump(path string, tracker progress.Tracker) error
	LoadDump(path string, tracker progress.Tracker) error
	SaveSnapshot(path string, tracker progress.Tracker) error

	// Start runs the render loop and the workers
	Start() error
	// Join blocks until the renderer terminated
	Join() error
	// Shutdown asks the render loop and the workers to stop
	Shutdown()
}

// State is a lifecycle stage of a renderer
type State int

const (
	Constructed State = iota
	Configured
	Running
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Configured:
		return "configured"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
