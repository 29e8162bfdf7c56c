// Package dump persists the exact accumulation state of a render so it can
// be resumed or merged with the progress of another render.
//
// A dump file is a gzip stream holding, big endian: the int32 format
// version, the sampler (type tag and payload) and the int64 accumulated
// render time in milliseconds.
package dump

import (
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/df07/go-progressive-sampler/pkg/progress"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
)

// Version is the dump format version written by this package
const Version = 1

var (
	ErrVersionMismatch = errors.New("dump: unsupported dump version")
	ErrFormat          = errors.New("dump: malformed dump")
)

// Dump is the persisted state of a render
type Dump struct {
	Sampler    sampler.FrameSampler
	RenderTime time.Duration
}

// SamplesPerPixel returns the samples per pixel stored in the dump
func (d *Dump) SamplesPerPixel() int { return d.Sampler.SamplesPerPixel() }

// encodedLen returns the uncompressed size of the dump
func (d *Dump) encodedLen() int64 {
	return 4 + d.Sampler.EncodedLen() + 8
}

// Write compresses the dump to w, reporting uncompressed bytes to task
func Write(w io.Writer, d *Dump, task progress.Task) error {
	zw := gzip.NewWriter(w)
	pw := progress.NewWriter(zw, task)

	var version [4]byte
	binary.BigEndian.PutUint32(version[:], Version)
	if _, err := pw.Write(version[:]); err != nil {
		return err
	}
	if err := d.Sampler.Write(pw); err != nil {
		return err
	}
	var renderTime [8]byte
	binary.BigEndian.PutUint64(renderTime[:], uint64(d.RenderTime.Milliseconds()))
	if _, err := pw.Write(renderTime[:]); err != nil {
		return err
	}
	return zw.Close()
}

// Read decompresses a dump from r. The version is checked before any
// sampler state is read.
func Read(r io.Reader, config sampler.Config) (*Dump, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	defer zr.Close()

	var version [4]byte
	if _, err := io.ReadFull(zr, version[:]); err != nil {
		return nil, fmt.Errorf("%w: missing version: %w", ErrFormat, err)
	}
	if v := int32(binary.BigEndian.Uint32(version[:])); v != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, v, Version)
	}

	s, err := sampler.ReadWithConfig(zr, config)
	if err != nil {
		return nil, err
	}

	var renderTime [8]byte
	if _, err := io.ReadFull(zr, renderTime[:]); err != nil {
		return nil, fmt.Errorf("%w: missing render time: %w", ErrFormat, err)
	}
	ms := int64(binary.BigEndian.Uint64(renderTime[:]))
	if ms < 0 {
		return nil, fmt.Errorf("%w: negative render time %d", ErrFormat, ms)
	}

	return &Dump{
		Sampler:    s,
		RenderTime: time.Duration(ms) * time.Millisecond,
	}, nil
}

// Save writes the dump to path. The file is written next to its
// destination and renamed into place, so an interrupted save never
// truncates an existing dump.
func Save(path string, d *Dump, tracker progress.Tracker) (err error) {
	task := progress.OrNop(tracker).Task("Writing dump", d.encodedLen())
	defer task.Done()

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = Write(f, d, task); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads the dump stored at path, reporting file bytes read to tracker
func Load(path string, config sampler.Config, tracker progress.Tracker) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	task := progress.OrNop(tracker).Task("Reading dump", info.Size())
	defer task.Done()

	return Read(progress.NewReader(f, task), config)
}

// Merge adds the samples and render time of src to dst. On error dst is
// unchanged.
func Merge(dst, src *Dump) error {
	if err := dst.Sampler.MergeWith(src.Sampler); err != nil {
		return err
	}
	dst.RenderTime += src.RenderTime
	return nil
}
