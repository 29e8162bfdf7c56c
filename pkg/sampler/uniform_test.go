package sampler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"

	"github.com/df07/go-progressive-sampler/pkg/bitmap"
	"github.com/df07/go-progressive-sampler/pkg/core"
	"github.com/df07/go-progressive-sampler/pkg/postprocess"
)

type testSample struct {
	x, y    int
	r, g, b float64
	count   int
}

func randomSamples(rng *rand.Rand, width, height, n int) []testSample {
	samples := make([]testSample, n)
	for i := range samples {
		samples[i] = testSample{
			x:     rng.Intn(width),
			y:     rng.Intn(height),
			r:     rng.Float64() * 4,
			g:     rng.Float64(),
			b:     rng.ExpFloat64(),
			count: 1 + rng.Intn(8),
		}
	}
	return samples
}

func applySamples(s FrameSampler, samples []testSample) {
	for _, smp := range samples {
		s.AddSample(smp.x, smp.y, smp.r, smp.g, smp.b, smp.count)
	}
}

func assertSameRadiance(t *testing.T, a, b FrameSampler, tolerance float64) {
	t.Helper()
	for y := 0; y < a.Height(); y++ {
		for x := 0; x < a.Width(); x++ {
			ca, cb := a.GatherRadiance(x, y), b.GatherRadiance(x, y)
			if math.Abs(ca.R-cb.R) > tolerance || math.Abs(ca.G-cb.G) > tolerance || math.Abs(ca.B-cb.B) > tolerance {
				t.Fatalf("Pixel (%d,%d): %v != %v", x, y, ca, cb)
			}
		}
	}
}

func TestTwoSampleAverage(t *testing.T) {
	s := NewUniformSampler(2, 1, DefaultConfig())
	s.AddSample(0, 0, 1, 1, 1, 1)
	s.AddSample(0, 0, 0, 0, 0, 1)

	c := s.GatherRadiance(0, 0)
	if c != core.NewRGB(0.5, 0.5, 0.5) {
		t.Errorf("Expected mean radiance (0.5, 0.5, 0.5), got %v", c)
	}
	if s.Weight(0, 0) != 2 {
		t.Errorf("Expected weight 2, got %d", s.Weight(0, 0))
	}

	out := bitmap.New(2, 1)
	FinalizePixel(s, 0, 0, 1, postprocess.None, out)
	_, r, g, b := bitmap.Unpack(out.Pixel(0, 0))
	if r != 128 || g != 128 || b != 128 {
		t.Errorf("Expected packed channels 128, got (%d, %d, %d)", r, g, b)
	}

	// The untouched pixel reconstructs as black.
	FinalizePixel(s, 1, 0, 1, postprocess.None, out)
	if out.Pixel(1, 0) != 0xFF000000 {
		t.Errorf("Expected opaque black, got %#08x", out.Pixel(1, 0))
	}
}

func TestWeightedMean(t *testing.T) {
	s := NewUniformSampler(1, 1, DefaultConfig())
	s.AddSample(0, 0, 2, 0, 0, 3)
	s.AddSample(0, 0, 6, 0, 0, 1)

	// (2*3 + 6*1) / 4 = 3
	if got := s.GatherRadiance(0, 0).R; math.Abs(got-3) > 1e-12 {
		t.Errorf("Expected weighted mean 3, got %g", got)
	}
}

func TestAddSampleIgnoresInvalidInput(t *testing.T) {
	s := NewUniformSampler(2, 2, DefaultConfig())
	s.AddSample(-1, 0, 1, 1, 1, 1)
	s.AddSample(2, 0, 1, 1, 1, 1)
	s.AddSample(0, 5, 1, 1, 1, 1)
	s.AddSample(0, 0, 1, 1, 1, 0)
	s.AddSample(0, 0, 1, 1, 1, -3)

	for _, v := range s.SampleBuffer() {
		if v != 0 {
			t.Fatalf("Expected untouched buffer, found %g", v)
		}
	}
}

func TestAccumulationOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := randomSamples(rng, 3, 2, 500)

	forward := NewUniformSampler(3, 2, DefaultConfig())
	applySamples(forward, samples)

	for trial := 0; trial < 5; trial++ {
		shuffled := append([]testSample(nil), samples...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		s := NewUniformSampler(3, 2, DefaultConfig())
		applySamples(s, shuffled)
		assertSameRadiance(t, forward, s, 1e-9)

		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				if s.Weight(x, y) != forward.Weight(x, y) {
					t.Fatalf("Pixel (%d,%d): weight %d != %d", x, y, s.Weight(x, y), forward.Weight(x, y))
				}
			}
		}
	}
}

func TestConcurrentSamePixel(t *testing.T) {
	s := NewUniformSampler(4, 4, DefaultConfig())

	const goroutines = 16
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				s.AddSample(1, 2, 1, 2, 3, 1)
				s.AddSample(j%4, 0, 0.5, 0.5, 0.5, 2)
			}
		}()
	}
	wg.Wait()

	if w := s.Weight(1, 2); w != goroutines*perGoroutine {
		t.Errorf("Lost updates: expected weight %d, got %d", goroutines*perGoroutine, w)
	}
	c := s.GatherRadiance(1, 2)
	if math.Abs(c.R-1) > 1e-9 || math.Abs(c.G-2) > 1e-9 || math.Abs(c.B-3) > 1e-9 {
		t.Errorf("Expected mean (1, 2, 3), got %v", c)
	}

	var row int64
	for x := 0; x < 4; x++ {
		row += s.Weight(x, 0)
	}
	if row != goroutines*perGoroutine*2 {
		t.Errorf("Expected row weight %d, got %d", goroutines*perGoroutine*2, row)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := NewUniformSampler(5, 3, DefaultConfig())
	applySamples(s, randomSamples(rng, 5, 3, 200))
	s.OnFrameFinish()
	s.OnFrameFinish()

	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if int64(buf.Len()) != s.EncodedLen() {
		t.Errorf("EncodedLen %d does not match written length %d", s.EncodedLen(), buf.Len())
	}

	restored, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if restored.Type() != Uniform {
		t.Fatalf("Expected uniform sampler, got %v", restored.Type())
	}
	if restored.Width() != 5 || restored.Height() != 3 {
		t.Fatalf("Unexpected dimensions %dx%d", restored.Width(), restored.Height())
	}
	if restored.SamplesPerPixel() != 2 {
		t.Errorf("Expected 2 samples per pixel, got %d", restored.SamplesPerPixel())
	}

	// Bit-identical state means bit-identical output.
	assertSameRadiance(t, s, restored, 0)
	for _, mode := range postprocess.Modes() {
		a, b := bitmap.New(5, 3), bitmap.New(5, 3)
		if err := Finalize(s, 1.3, mode, a); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		if err := Finalize(restored, 1.3, mode, b); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		for i := range a.Data {
			if a.Data[i] != b.Data[i] {
				t.Fatalf("%v: pixel %d differs after round trip", mode, i)
			}
		}
	}

	us := restored.(*UniformSampler)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if us.Weight(x, y) != s.Weight(x, y) {
				t.Fatalf("Pixel (%d,%d): weight %d != %d", x, y, us.Weight(x, y), s.Weight(x, y))
			}
		}
	}
}

func TestReadErrors(t *testing.T) {
	valid := func() []byte {
		var buf bytes.Buffer
		s := NewUniformSampler(2, 2, DefaultConfig())
		s.AddSample(0, 0, 1, 1, 1, 1)
		if err := s.Write(&buf); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		return buf.Bytes()
	}

	tests := []struct {
		name    string
		data    func() []byte
		wantErr error
	}{
		{"empty stream", func() []byte { return nil }, ErrFormat},
		{"unknown tag", func() []byte { return []byte{9, 0, 0, 0} }, ErrUnknownType},
		{"zero tag", func() []byte { return []byte{0} }, ErrUnknownType},
		{"adaptive tag", func() []byte {
			d := valid()
			d[0] = byte(Adaptive)
			return d
		}, ErrAdaptiveNotImplemented},
		{"truncated header", func() []byte { return valid()[:6] }, ErrFormat},
		{"truncated pixels", func() []byte { d := valid(); return d[:len(d)-5] }, ErrFormat},
		{"zero width", func() []byte {
			d := valid()
			copy(d[1:5], []byte{0, 0, 0, 0})
			return d
		}, ErrFormat},
		{"huge height", func() []byte {
			d := valid()
			copy(d[5:9], []byte{0x7f, 0xff, 0xff, 0xff})
			return d
		}, ErrFormat},
		{"negative spp", func() []byte {
			d := valid()
			copy(d[9:13], []byte{0xff, 0xff, 0xff, 0xff})
			return d
		}, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Read(bytes.NewReader(tt.data()))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if s != nil {
				t.Errorf("Expected no sampler on error, got %T", s)
			}
		})
	}
}

func TestMergeMatchesDirectAccumulation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	tests := []struct {
		name   string
		s1, s2 []testSample
	}{
		{"overlapping pixels", randomSamples(rng, 4, 4, 300), randomSamples(rng, 4, 4, 300)},
		{"disjoint pixels", randomSamples(rng, 4, 2, 100), shiftRows(randomSamples(rng, 4, 2, 100), 2)},
		{"empty other", randomSamples(rng, 4, 4, 50), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewUniformSampler(4, 4, DefaultConfig())
			b := NewUniformSampler(4, 4, DefaultConfig())
			direct := NewUniformSampler(4, 4, DefaultConfig())

			applySamples(a, tt.s1)
			applySamples(b, tt.s2)
			applySamples(direct, tt.s1)
			applySamples(direct, tt.s2)

			if err := a.MergeWith(b); err != nil {
				t.Fatalf("MergeWith failed: %v", err)
			}
			assertSameRadiance(t, a, direct, 1e-9)
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					if a.Weight(x, y) != direct.Weight(x, y) {
						t.Fatalf("Pixel (%d,%d): weight %d != %d", x, y, a.Weight(x, y), direct.Weight(x, y))
					}
				}
			}
		})
	}
}

func shiftRows(samples []testSample, dy int) []testSample {
	for i := range samples {
		samples[i].y += dy
	}
	return samples
}

func TestMergeAccumulatesSamplesPerPixel(t *testing.T) {
	a := NewUniformSampler(2, 2, DefaultConfig())
	b := NewUniformSampler(2, 2, DefaultConfig())
	a.OnFrameFinish()
	b.OnFrameFinish()
	b.OnFrameFinish()

	if err := a.MergeWith(b); err != nil {
		t.Fatalf("MergeWith failed: %v", err)
	}
	if a.SamplesPerPixel() != 3 {
		t.Errorf("Expected 3 samples per pixel, got %d", a.SamplesPerPixel())
	}
}

// foreignSampler is a FrameSampler of another variant
type foreignSampler struct {
	*UniformSampler
}

func (f foreignSampler) Type() Type { return Adaptive }

func TestMergeGuards(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	tests := []struct {
		name    string
		other   FrameSampler
		wantErr error
	}{
		{"different width", NewUniformSampler(3, 2, DefaultConfig()), ErrDimensionMismatch},
		{"different height", NewUniformSampler(2, 3, DefaultConfig()), ErrDimensionMismatch},
		{"different variant", foreignSampler{NewUniformSampler(2, 2, DefaultConfig())}, ErrSamplerMismatch},
		{"nil sampler", nil, ErrSamplerMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUniformSampler(2, 2, DefaultConfig())
			applySamples(s, randomSamples(rng, 2, 2, 20))
			before := s.SampleBuffer()

			var otherBefore []float64
			if tt.other != nil {
				applySamples(tt.other, randomSamples(rng, 2, 2, 20))
				otherBefore = tt.other.SampleBuffer()
			}

			err := s.MergeWith(tt.other)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}

			after := s.SampleBuffer()
			for i := range before {
				if before[i] != after[i] {
					t.Fatalf("Sampler changed by failed merge at %d", i)
				}
			}
			if tt.other != nil {
				otherAfter := tt.other.SampleBuffer()
				for i := range otherBefore {
					if otherBefore[i] != otherAfter[i] {
						t.Fatalf("Other sampler changed by failed merge at %d", i)
					}
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	s, err := New(Uniform, 8, 4, DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.Type() != Uniform || s.Width() != 8 || s.Height() != 4 {
		t.Errorf("Unexpected sampler %v %dx%d", s.Type(), s.Width(), s.Height())
	}

	if s, err := New(Adaptive, 8, 4, DefaultConfig()); !errors.Is(err, ErrAdaptiveNotImplemented) || s != nil {
		t.Errorf("Expected ErrAdaptiveNotImplemented, got %v (%v)", err, s)
	}
	if _, err := New(Type(7), 8, 4, DefaultConfig()); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
	if _, err := New(Uniform, 0, 4, DefaultConfig()); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Expected ErrInvalidDimensions, got %v", err)
	}
}

// recordingQueue accepts a fixed number of tasks, then blocks until the
// context is cancelled.
type recordingQueue struct {
	accept int
	tasks  []RenderTask
}

func (q *recordingQueue) Put(ctx context.Context, task RenderTask) error {
	if len(q.tasks) < q.accept {
		q.tasks = append(q.tasks, task)
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestSampleFrameEnqueuesEveryTile(t *testing.T) {
	config := Config{TileSize: 4, SamplesPerFrame: 2}
	s := NewUniformSampler(10, 6, config)
	q := &recordingQueue{accept: 1000}

	if err := s.SampleFrame(context.Background(), q); err != nil {
		t.Fatalf("SampleFrame failed: %v", err)
	}
	if len(q.tasks) != 6 { // 3 x 2 tiles
		t.Fatalf("Expected 6 tasks, got %d", len(q.tasks))
	}

	pixels := 0
	for i, task := range q.tasks {
		if task.ID != i || task.Frame != 1 || task.Samples != 2 {
			t.Errorf("Unexpected task %+v", task)
		}
		pixels += task.PixelCount()
	}
	if pixels != 60 {
		t.Errorf("Tasks cover %d pixels, expected 60", pixels)
	}

	// Seeds change once the frame has been ingested.
	s.OnFrameFinish()
	if s.SamplesPerPixel() != 2 {
		t.Errorf("Expected 2 samples per pixel, got %d", s.SamplesPerPixel())
	}
	q2 := &recordingQueue{accept: 1000}
	if err := s.SampleFrame(context.Background(), q2); err != nil {
		t.Fatalf("SampleFrame failed: %v", err)
	}
	if q2.tasks[0].Seed == q.tasks[0].Seed {
		t.Error("Expected a fresh seed for the next frame")
	}
	if q2.tasks[0].Frame != 2 {
		t.Errorf("Expected frame 2, got %d", q2.tasks[0].Frame)
	}
}

func TestSampleFrameCancelled(t *testing.T) {
	s := NewUniformSampler(8, 8, Config{TileSize: 2})
	q := &recordingQueue{accept: 3}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.SampleFrame(ctx, q) }()

	cancel()
	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancellation, got %v", err)
	}
	if len(q.tasks) != 3 {
		t.Errorf("Expected 3 enqueued tasks before cancellation, got %d", len(q.tasks))
	}
}

func TestFinalizeDimensionCheck(t *testing.T) {
	s := NewUniformSampler(4, 4, DefaultConfig())
	if err := Finalize(s, 1, postprocess.None, bitmap.New(4, 3)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFinalizeClampsAndMatchesPixelwise(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	s := NewUniformSampler(7, 5, DefaultConfig())
	applySamples(s, randomSamples(rng, 7, 5, 300))
	s.AddSample(0, 0, 1e6, 1e6, 1e6, 1)

	for _, mode := range postprocess.Modes() {
		whole := bitmap.New(7, 5)
		if err := Finalize(s, 1, mode, whole); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		single := bitmap.New(7, 5)
		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				FinalizePixel(s, x, y, 1, mode, single)
			}
		}
		for i := range whole.Data {
			if whole.Data[i] != single.Data[i] {
				t.Fatalf("%v: pixel %d differs between Finalize and FinalizePixel", mode, i)
			}
			if whole.Data[i]>>24 != 0xFF {
				t.Fatalf("%v: pixel %d is not opaque", mode, i)
			}
		}
	}
}

func TestFinalizeDoesNotMutate(t *testing.T) {
	s := NewUniformSampler(3, 3, DefaultConfig())
	s.AddSample(1, 1, 5, 0.2, 0.1, 4)
	before := s.SampleBuffer()

	if err := Finalize(s, 4, postprocess.Tonemap2, bitmap.New(3, 3)); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	after := s.SampleBuffer()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Finalize changed accumulation at %d", i)
		}
	}
}

func TestWritePropagatesErrors(t *testing.T) {
	s := NewUniformSampler(2, 2, DefaultConfig())
	if err := s.Write(failingWriter{}); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("Expected write error, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, io.ErrShortWrite }

func TestCloneIsIndependent(t *testing.T) {
	s := NewUniformSampler(2, 2, DefaultConfig())
	s.AddSample(0, 0, 1, 1, 1, 1)
	s.OnFrameFinish()

	c := s.Clone()
	s.AddSample(0, 0, 0, 0, 0, 3)
	s.OnFrameFinish()

	if got := c.GatherRadiance(0, 0); got != core.NewRGB(1, 1, 1) {
		t.Errorf("clone radiance = %v, want (1,1,1)", got)
	}
	if c.SamplesPerPixel() != 1 {
		t.Errorf("clone spp = %d, want 1", c.SamplesPerPixel())
	}
	if got := c.(*UniformSampler).Weight(0, 0); got != 1 {
		t.Errorf("clone weight = %d, want 1", got)
	}
}

func TestMergeRejectsSPPOverflow(t *testing.T) {
	a := NewUniformSampler(2, 2, DefaultConfig())
	b := NewUniformSampler(2, 2, DefaultConfig())
	a.AddSample(1, 1, 1, 0, 0, 1)
	b.AddSample(1, 1, 0, 1, 0, 1)
	a.spp = math.MaxInt32 - 1
	b.spp = 2

	if err := a.MergeWith(b); !errors.Is(err, ErrSPPOverflow) {
		t.Fatalf("Expected ErrSPPOverflow, got %v", err)
	}
	if a.SamplesPerPixel() != math.MaxInt32-1 {
		t.Errorf("spp changed by failed merge: %d", a.SamplesPerPixel())
	}
	if got := a.Weight(1, 1); got != 1 {
		t.Errorf("weight changed by failed merge: %d", got)
	}
}

func TestWriteRejectsSPPOverflow(t *testing.T) {
	if strconv.IntSize == 32 {
		t.Skip("int cannot exceed the dump limit")
	}
	s := NewUniformSampler(2, 2, DefaultConfig())
	s.spp = math.MaxInt32
	s.spp++

	var buf bytes.Buffer
	if err := s.Write(&buf); !errors.Is(err, ErrSPPOverflow) {
		t.Fatalf("Expected ErrSPPOverflow, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing written, got %d bytes", buf.Len())
	}
}

func TestReadLargeHeaderWithoutPixels(t *testing.T) {
	header := []byte{byte(Uniform),
		0, 0, 0x40, 0, // width 16384
		0, 0, 0x40, 0, // height 16384
		0, 0, 0, 1,
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	s, err := Read(bytes.NewReader(header))
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Expected ErrFormat, got %v", err)
	}
	if s != nil {
		t.Errorf("Expected no sampler on error, got %T", s)
	}
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 64<<20 {
		t.Errorf("Read allocated %d bytes for a payload-less header", allocated)
	}
}
