package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-progressive-sampler/pkg/palette"
	"github.com/df07/go-progressive-sampler/pkg/postprocess"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
)

var (
	ErrInvalidSize     = errors.New("scene: invalid canvas size")
	ErrInvalidExposure = errors.New("scene: exposure must be positive")
	ErrNoPalette       = errors.New("scene: missing block palette")
)

// Scene contains everything the renderer needs to produce an image
type Scene struct {
	Name           string
	Palette        *palette.Palette // Block materials referenced by Ground
	Ground         []int            // Palette ids laid out along the ground strip
	SamplingConfig SamplingConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int              // Image width
	Height          int              // Image height
	SamplesPerPixel int              // Target samples per pixel (0 = render until stopped)
	Exposure        float64          // Radiance scale applied before tone mapping
	Postprocess     postprocess.Mode // Tone mapping operator
	Sampler         sampler.Type     // Frame sampler variant
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		Exposure:        1.0,
		Postprocess:     postprocess.Default,
		Sampler:         sampler.Uniform,
	}
}

// Width returns the canvas width
func (s *Scene) Width() int { return s.SamplingConfig.Width }

// Height returns the canvas height
func (s *Scene) Height() int { return s.SamplingConfig.Height }

// TargetSPP returns the samples per pixel at which the render is complete
func (s *Scene) TargetSPP() int { return s.SamplingConfig.SamplesPerPixel }

// Validate checks that the scene can be rendered. Every problem here is a
// configuration error reported before a render starts.
func (s *Scene) Validate() error {
	c := s.SamplingConfig
	if c.Width < 1 || c.Height < 1 || c.Width > sampler.MaxDimension || c.Height > sampler.MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Width, c.Height)
	}
	if c.SamplesPerPixel < 0 {
		return fmt.Errorf("scene: negative target samples per pixel %d", c.SamplesPerPixel)
	}
	if !(c.Exposure > 0) {
		return fmt.Errorf("%w: %v", ErrInvalidExposure, c.Exposure)
	}
	if !c.Postprocess.Valid() {
		return fmt.Errorf("%w: %d", postprocess.ErrUnknownMode, int(c.Postprocess))
	}
	switch c.Sampler {
	case sampler.Uniform:
	case sampler.Adaptive:
		return sampler.ErrAdaptiveNotImplemented
	default:
		return fmt.Errorf("%w: %v", sampler.ErrUnknownType, c.Sampler)
	}
	if len(s.Ground) > 0 {
		if s.Palette == nil {
			return ErrNoPalette
		}
		for _, id := range s.Ground {
			if s.Palette.Get(id) == nil {
				return fmt.Errorf("scene: ground references unknown block id %d", id)
			}
		}
	}
	return nil
}

// Copy returns a shallow copy of the scene; the palette is shared.
func (s *Scene) Copy() *Scene {
	c := *s
	c.Ground = append([]int(nil), s.Ground...)
	return &c
}
