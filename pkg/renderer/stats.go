package renderer

import "time"

// RenderStatus contains statistics about the rendering process
type RenderStatus struct {
	State            State
	SamplesPerPixel  int           // Samples per pixel of completed frames
	TargetSPP        int           // Samples per pixel at which the render completes (0 = none)
	Frames           int           // Frames completed in this session
	RenderTime       time.Duration // Accumulated render time, including resumed dumps
	SamplesPerSecond int           // Throughput over the accumulated render time
}

// Done reports whether the target samples per pixel was reached
func (s RenderStatus) Done() bool {
	return s.TargetSPP > 0 && s.SamplesPerPixel >= s.TargetSPP
}

// samplesPerSecond computes throughput for a width x height canvas
func samplesPerSecond(spp, width, height int, renderTime time.Duration) int {
	if renderTime <= 0 {
		return 0
	}
	return int(float64(spp) * float64(width*height) / renderTime.Seconds())
}
