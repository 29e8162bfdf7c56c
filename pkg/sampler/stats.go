package sampler

import "github.com/df07/go-progressive-sampler/pkg/core"

// PixelStats tracks the accumulated radiance of a single pixel
type PixelStats struct {
	Mean   core.RGB // Weighted mean radiance
	Weight int64    // Total number of elementary samples
}

// AddSample folds n samples with mean radiance c into the running mean
func (ps *PixelStats) AddSample(c core.RGB, n int64) {
	if n <= 0 {
		return
	}
	w := ps.Weight + n
	k := float64(n) / float64(w)
	ps.Mean.R += (c.R - ps.Mean.R) * k
	ps.Mean.G += (c.G - ps.Mean.G) * k
	ps.Mean.B += (c.B - ps.Mean.B) * k
	ps.Weight = w
}

// Merge combines another pixel's statistics into this one
func (ps *PixelStats) Merge(other PixelStats) {
	ps.AddSample(other.Mean, other.Weight)
}

// GetColor returns the current mean radiance for this pixel
func (ps *PixelStats) GetColor() core.RGB {
	if ps.Weight == 0 {
		return core.RGB{}
	}
	return ps.Mean
}
