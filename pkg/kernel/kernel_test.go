package kernel

import (
	"math/rand"
	"testing"

	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

func testScene(width, height int) *scene.Scene {
	config := scene.DefaultSamplingConfig()
	config.Width = width
	config.Height = height
	return scene.NewPreviewScene(config)
}

func TestPreviewDeterministic(t *testing.T) {
	sc := testScene(32, 32)
	k := NewPreview()

	for _, y := range []int{0, 16, 31} {
		a := k.Sample(sc, 5, y, 4, rand.New(rand.NewSource(7)))
		b := k.Sample(sc, 5, y, 4, rand.New(rand.NewSource(7)))
		if a != b {
			t.Errorf("row %d: same seed gave %v and %v", y, a, b)
		}
	}
}

func TestPreviewSkyGradient(t *testing.T) {
	sc := testScene(10, 100)
	k := NewPreview()
	rng := rand.New(rand.NewSource(1))

	top := k.Sample(sc, 0, 0, 16, rng)
	low := k.Sample(sc, 0, 58, 16, rng)
	if top.B <= 0 || top.R >= low.R {
		t.Errorf("expected bluer sky at the top: top %v, near horizon %v", top, low)
	}
}

func TestPreviewGroundIsFinite(t *testing.T) {
	sc := testScene(16, 16)
	k := NewPreview()
	rng := rand.New(rand.NewSource(3))

	for x := 0; x < 16; x++ {
		c := k.Sample(sc, x, 15, 8, rng)
		if c.R < 0 || c.G < 0 || c.B < 0 {
			t.Errorf("pixel %d: negative radiance %v", x, c)
		}
	}
}

func TestPreviewZeroSamples(t *testing.T) {
	sc := testScene(4, 4)
	if got := NewPreview().Sample(sc, 0, 0, 0, rand.New(rand.NewSource(1))); got != (core.RGB{}) {
		t.Errorf("zero samples = %v, want black", got)
	}
}

func TestConstant(t *testing.T) {
	c := core.NewRGB(0.25, 0.5, 1)
	if got := Constant(c).Sample(nil, 3, 4, 1, nil); got != c {
		t.Errorf("Constant = %v, want %v", got, c)
	}
}
