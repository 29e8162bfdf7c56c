// Package sampler accumulates per-pixel radiance samples and reconstructs
// display images from them.
//
// A FrameSampler decides how the work of a frame is split into render
// tasks, ingests the samples workers produce and serializes its state so a
// render can be resumed or merged with another process's progress.
package sampler

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-progressive-sampler/pkg/bitmap"
	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/postprocess"
)

// MaxDimension bounds the width and height accepted from serialized state
const MaxDimension = 1 << 14

// FrameSampler decides how samples are taken and reconstructs the image
// from them.
type FrameSampler interface {
	Type() Type
	Width() int
	Height() int

	// SamplesPerPixel returns the number of samples each pixel received in
	// completed frames.
	SamplesPerPixel() int

	// SampleFrame feeds the render tasks of the next frame to queue. It
	// returns once every task is enqueued, or with the context error if ctx
	// is cancelled first; the remaining tasks are then abandoned.
	SampleFrame(ctx context.Context, queue TaskQueue) error

	// OnFrameFinish is called once every task of the frame was ingested.
	OnFrameFinish()

	// AddSample adds sampleCount samples with mean radiance (r, g, b) to
	// pixel (x, y). Safe for concurrent use.
	AddSample(x, y int, r, g, b float64, sampleCount int)

	// GatherRadiance returns the reconstructed radiance of pixel (x, y).
	GatherRadiance(x, y int) core.RGB

	// SampleBuffer returns a copy of the accumulated radiance as row-major
	// RGB triples.
	SampleBuffer() []float64

	// Write serializes the sampler, prefixed by its type tag.
	Write(w io.Writer) error

	// EncodedLen returns the number of bytes Write produces.
	EncodedLen() int64

	// MergeWith adds the samples of other to this sampler. Samplers of a
	// different type or size are rejected and neither sampler changes.
	MergeWith(other FrameSampler) error

	// Clone returns an independent copy of the accumulated state. It must
	// not run concurrently with AddSample.
	Clone() FrameSampler
}

// Config contains frame scheduling configuration
type Config struct {
	TileSize        int // Size of each tile (64x64 recommended)
	SamplesPerFrame int // Samples per pixel taken in each frame
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		TileSize:        64,
		SamplesPerFrame: 1,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.TileSize <= 0 {
		c.TileSize = d.TileSize
	}
	if c.SamplesPerFrame <= 0 {
		c.SamplesPerFrame = d.SamplesPerFrame
	}
	return c
}

// New creates an empty sampler of the given type
func New(t Type, width, height int, config Config) (FrameSampler, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	switch t {
	case Uniform:
		return NewUniformSampler(width, height, config), nil
	case Adaptive:
		return nil, ErrAdaptiveNotImplemented
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, t)
	}
}

func checkDimensions(width, height int) error {
	if width < 1 || height < 1 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

// Read restores a sampler written by FrameSampler.Write using the default
// configuration.
func Read(r io.Reader) (FrameSampler, error) {
	return ReadWithConfig(r, DefaultConfig())
}

// ReadWithConfig restores a sampler written by FrameSampler.Write
func ReadWithConfig(r io.Reader, config Config) (FrameSampler, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, fmt.Errorf("%w: missing sampler tag: %w", ErrFormat, err)
	}

	t, err := ParseType(tag[0])
	if err != nil {
		return nil, err
	}

	switch t {
	case Uniform:
		s, err := readUniform(r, config)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrAdaptiveNotImplemented
	}
}

// FinalizePixel reconstructs pixel (x, y) and writes it to output. The
// radiance is exposed, tone-mapped, clamped to [0, 1] and packed.
func FinalizePixel(s FrameSampler, x, y int, exposure float64, mode postprocess.Mode, output *bitmap.Bitmap) {
	c := postprocess.Apply(s.GatherRadiance(x, y), exposure, mode)
	output.SetPixel(x, y, bitmap.PackRGB(
		postprocess.Clamp01(c.R),
		postprocess.Clamp01(c.G),
		postprocess.Clamp01(c.B),
	))
}

// Finalize reconstructs every pixel of the sampler into output, processing
// bands of rows in parallel. It must not run concurrently with AddSample.
func Finalize(s FrameSampler, exposure float64, mode postprocess.Mode, output *bitmap.Bitmap) error {
	if output.Width != s.Width() || output.Height != s.Height() {
		return fmt.Errorf("%w: sampler %dx%d, image %dx%d",
			ErrDimensionMismatch, s.Width(), s.Height(), output.Width, output.Height)
	}

	bands := min(runtime.NumCPU(), s.Height())
	rowsPerBand := (s.Height() + bands - 1) / bands

	var g errgroup.Group
	for y0 := 0; y0 < s.Height(); y0 += rowsPerBand {
		y1 := min(y0+rowsPerBand, s.Height())
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				for x := 0; x < s.Width(); x++ {
					FinalizePixel(s, x, y, exposure, mode, output)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
