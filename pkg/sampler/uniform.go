package sampler

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"sync"

	"github.com/df07/go-progressive-sampler/pkg/core"
)

const (
	uniformHeaderLen = 12 // width, height, samples per pixel
	pixelRecordLen   = 32 // r, g, b, weight

	// Pixel updates are serialized through a fixed set of striped locks.
	lockStripes = 1024

	initialPixelCap = 1 << 16 // pixels reserved before any payload is read
)

// UniformSampler gives every pixel the same number of samples per frame
type UniformSampler struct {
	width, height int
	config        Config
	tiles         []image.Rectangle
	pixels        []PixelStats
	locks         [lockStripes]sync.Mutex
	spp           int // samples per pixel of completed frames
	frame         int // frames sampled in this session
}

// NewUniformSampler creates an empty uniform sampler
func NewUniformSampler(width, height int, config Config) *UniformSampler {
	return newUniformSampler(width, height, config, make([]PixelStats, width*height))
}

func newUniformSampler(width, height int, config Config, pixels []PixelStats) *UniformSampler {
	config = config.normalized()
	return &UniformSampler{
		width:  width,
		height: height,
		config: config,
		tiles:  NewTileGrid(width, height, config.TileSize),
		pixels: pixels,
	}
}

func (s *UniformSampler) Type() Type           { return Uniform }
func (s *UniformSampler) Width() int           { return s.width }
func (s *UniformSampler) Height() int          { return s.height }
func (s *UniformSampler) SamplesPerPixel() int { return s.spp }

// Tiles returns the tile bounds used for each frame
func (s *UniformSampler) Tiles() []image.Rectangle {
	return s.tiles
}

func (s *UniformSampler) SampleFrame(ctx context.Context, queue TaskQueue) error {
	s.frame++
	for id, bounds := range s.tiles {
		task := RenderTask{
			Frame:   s.frame,
			ID:      id,
			Bounds:  bounds,
			Samples: s.config.SamplesPerFrame,
			Seed:    taskSeed(s.spp, id),
		}
		if err := queue.Put(ctx, task); err != nil {
			return fmt.Errorf("frame %d abandoned after %d of %d tasks: %w", s.frame, id, len(s.tiles), err)
		}
	}
	return nil
}

func (s *UniformSampler) OnFrameFinish() {
	s.spp += s.config.SamplesPerFrame
}

func (s *UniformSampler) AddSample(x, y int, r, g, b float64, sampleCount int) {
	if sampleCount <= 0 || x < 0 || y < 0 || x >= s.width || y >= s.height {
		return
	}
	idx := y*s.width + x
	lock := &s.locks[idx%lockStripes]
	lock.Lock()
	s.pixels[idx].AddSample(core.RGB{R: r, G: g, B: b}, int64(sampleCount))
	lock.Unlock()
}

func (s *UniformSampler) GatherRadiance(x, y int) core.RGB {
	return s.pixels[y*s.width+x].GetColor()
}

// Weight returns the total number of samples accumulated for pixel (x, y)
func (s *UniformSampler) Weight(x, y int) int64 {
	return s.pixels[y*s.width+x].Weight
}

func (s *UniformSampler) SampleBuffer() []float64 {
	buf := make([]float64, 0, 3*len(s.pixels))
	for i := range s.pixels {
		c := s.pixels[i].Mean
		buf = append(buf, c.R, c.G, c.B)
	}
	return buf
}

func (s *UniformSampler) MergeWith(other FrameSampler) error {
	if other == nil {
		return fmt.Errorf("%w: nil sampler", ErrSamplerMismatch)
	}
	o, ok := other.(*UniformSampler)
	if !ok {
		return fmt.Errorf("%w: cannot merge %v into %v", ErrSamplerMismatch, other.Type(), Uniform)
	}
	if o.width != s.width || o.height != s.height {
		return fmt.Errorf("%w: %dx%d into %dx%d", ErrDimensionMismatch, o.width, o.height, s.width, s.height)
	}
	if s.spp > math.MaxInt32-o.spp {
		return fmt.Errorf("%w: %d + %d", ErrSPPOverflow, s.spp, o.spp)
	}

	for i := range s.pixels {
		s.pixels[i].Merge(o.pixels[i])
	}
	s.spp += o.spp
	return nil
}

func (s *UniformSampler) Clone() FrameSampler {
	c := NewUniformSampler(s.width, s.height, s.config)
	copy(c.pixels, s.pixels)
	c.spp = s.spp
	c.frame = s.frame
	return c
}

func (s *UniformSampler) EncodedLen() int64 {
	return 1 + uniformHeaderLen + int64(len(s.pixels))*pixelRecordLen
}

func (s *UniformSampler) Write(w io.Writer) error {
	if s.spp > math.MaxInt32 {
		return fmt.Errorf("%w: %d", ErrSPPOverflow, s.spp)
	}
	var header [1 + uniformHeaderLen]byte
	header[0] = byte(Uniform)
	binary.BigEndian.PutUint32(header[1:], uint32(s.width))
	binary.BigEndian.PutUint32(header[5:], uint32(s.height))
	binary.BigEndian.PutUint32(header[9:], uint32(s.spp))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	row := make([]byte, s.width*pixelRecordLen)
	for y := 0; y < s.height; y++ {
		for x, ps := range s.pixels[y*s.width : (y+1)*s.width] {
			rec := row[x*pixelRecordLen:]
			binary.BigEndian.PutUint64(rec[0:], math.Float64bits(ps.Mean.R))
			binary.BigEndian.PutUint64(rec[8:], math.Float64bits(ps.Mean.G))
			binary.BigEndian.PutUint64(rec[16:], math.Float64bits(ps.Mean.B))
			binary.BigEndian.PutUint64(rec[24:], uint64(ps.Weight))
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// readUniform reads the uniform payload that follows the type tag
func readUniform(r io.Reader, config Config) (*UniformSampler, error) {
	var header [uniformHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated uniform header: %w", ErrFormat, err)
	}
	width := int(int32(binary.BigEndian.Uint32(header[0:])))
	height := int(int32(binary.BigEndian.Uint32(header[4:])))
	spp := int(int32(binary.BigEndian.Uint32(header[8:])))

	if err := checkDimensions(width, height); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if spp < 0 {
		return nil, fmt.Errorf("%w: negative samples per pixel %d", ErrFormat, spp)
	}

	// Pixels are allocated as rows arrive so that a corrupt header cannot
	// force a huge allocation before the payload runs out.
	pixels := make([]PixelStats, 0, min(width*height, initialPixelCap))
	row := make([]byte, width*pixelRecordLen)
	for y := 0; y < height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, fmt.Errorf("%w: truncated pixel data at row %d: %w", ErrFormat, y, err)
		}
		for x := 0; x < width; x++ {
			rec := row[x*pixelRecordLen:]
			ps := PixelStats{
				Mean: core.RGB{
					R: math.Float64frombits(binary.BigEndian.Uint64(rec[0:])),
					G: math.Float64frombits(binary.BigEndian.Uint64(rec[8:])),
					B: math.Float64frombits(binary.BigEndian.Uint64(rec[16:])),
				},
				Weight: int64(binary.BigEndian.Uint64(rec[24:])),
			}
			if ps.Weight < 0 {
				return nil, fmt.Errorf("%w: negative weight at pixel (%d,%d)", ErrFormat, x, y)
			}
			pixels = append(pixels, ps)
		}
	}

	s := newUniformSampler(width, height, config, pixels)
	s.spp = spp
	return s, nil
}
