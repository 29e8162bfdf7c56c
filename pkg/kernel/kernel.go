// Package kernel provides tracing kernels that compute pixel radiance for
// the renderer.
package kernel

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

// Func adapts a plain function to the renderer's kernel interface
type Func func(sc *scene.Scene, x, y, samples int, random *rand.Rand) core.RGB

func (f Func) Sample(sc *scene.Scene, x, y, samples int, random *rand.Rand) core.RGB {
	return f(sc, x, y, samples, random)
}

// Constant returns a kernel that yields c for every pixel
func Constant(c core.RGB) Func {
	return func(*scene.Scene, int, int, int, *rand.Rand) core.RGB { return c }
}

// Preview renders a gradient sky over a strip of ground blocks. Ground
// pixels gather sky light over random directions so the estimate converges
// as samples accumulate.
type Preview struct {
	SkyTop    core.RGB
	SkyBottom core.RGB
	Horizon   float64 // Fraction of the image height covered by sky
}

// NewPreview creates a preview kernel with a daylight sky
func NewPreview() *Preview {
	return &Preview{
		SkyTop:    core.NewRGB(0.5, 0.7, 1.0),
		SkyBottom: core.NewRGB(1.0, 1.0, 1.0),
		Horizon:   0.6,
	}
}

// Sample returns the mean radiance of samples jittered rays through pixel (x, y)
func (k *Preview) Sample(sc *scene.Scene, x, y, samples int, random *rand.Rand) core.RGB {
	if samples <= 0 {
		return core.RGB{}
	}
	width, height := float64(sc.Width()), float64(sc.Height())

	var sum core.RGB
	for i := 0; i < samples; i++ {
		u := (float64(x) + random.Float64()) / width
		v := (float64(y) + random.Float64()) / height
		if v < k.Horizon || len(sc.Ground) == 0 {
			sum = sum.Add(k.sky(1 - v/k.Horizon))
			continue
		}
		sum = sum.Add(k.ground(sc, u, random))
	}
	return sum.Multiply(1 / float64(samples))
}

// sky returns the background gradient at elevation t in [0, 1]
func (k *Preview) sky(t float64) core.RGB {
	t = math.Max(0, math.Min(1, t))
	return k.SkyBottom.Multiply(1.0 - t).Add(k.SkyTop.Multiply(t))
}

func (k *Preview) ground(sc *scene.Scene, u float64, random *rand.Rand) core.RGB {
	column := min(int(u*float64(len(sc.Ground))), len(sc.Ground)-1)
	block := sc.Palette.Get(sc.Ground[column])
	if block == nil {
		return core.RGB{}
	}
	albedo := blockColor(block.Name)

	if block.Emittance > 0 {
		return albedo.Multiply(float64(block.Emittance))
	}

	// Cosine-weighted elevation of the bounce direction
	elevation := math.Sqrt(random.Float64())
	if block.Specular > 0 && random.Float64() < float64(block.Specular) {
		return k.sky(elevation)
	}
	if block.Refractive {
		albedo = albedo.Multiply(1 / float64(block.IOR))
	}
	return albedo.MultiplyRGB(k.sky(elevation))
}

// blockColor derives a stable albedo from the block name
func blockColor(name string) core.RGB {
	h := fnv.New32a()
	h.Write([]byte(name))
	sum := h.Sum32()
	channel := func(shift uint) float64 {
		return 0.25 + 0.5*float64((sum>>shift)&0xFF)/255
	}
	return core.NewRGB(channel(16), channel(8), channel(0))
}
