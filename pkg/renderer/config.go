package renderer

import (
	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
)

// Config contains configuration for a render manager
type Config struct {
	NumWorkers    int            // Number of parallel workers (0 = use CPU count)
	QueueCapacity int            // Pending task capacity (0 = two per worker)
	CPULoad       int            // Percentage of time workers spend sampling
	Headless      bool           // Stop once the scene's target samples per pixel is reached
	Sampler       sampler.Config // Frame scheduling
	Logger        core.Logger    // Logger for rendering output (nil = discard)

	// Destinations for automatic snapshots and dumps, see SnapshotControl
	OutputDir string // Directory for <scene>-<spp>.png and <scene>.dump ("" = working directory)
	DumpPath  string // Overrides the automatic dump file
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		NumWorkers:    0, // Auto-detect CPU count
		QueueCapacity: 0,
		CPULoad:       100,
		Headless:      false,
		Sampler:       sampler.DefaultConfig(),
	}
}

func clampLoad(load int) int {
	return max(1, min(100, load))
}
