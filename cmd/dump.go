package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/df07/go-progressive-sampler/pkg/bitmap"
	"github.com/df07/go-progressive-sampler/pkg/dump"
	"github.com/df07/go-progressive-sampler/pkg/log"
	"github.com/df07/go-progressive-sampler/pkg/postprocess"
	"github.com/df07/go-progressive-sampler/pkg/progress"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
)

func newTracker() progress.Tracker {
	return progress.NewLogTracker(log.NewPrintf("progress"), time.Second)
}

// Merge two or more render dumps into a single dump.
func MergeDumps(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() < 2 {
		return errors.New("merge needs at least two dump files")
	}
	out := ctx.String("out")
	if out == "" {
		return errors.New("missing --out dump file")
	}

	tracker := newTracker()
	merged, err := dump.Load(ctx.Args().First(), sampler.DefaultConfig(), tracker)
	if err != nil {
		return fmt.Errorf("%s: %w", ctx.Args().First(), err)
	}
	for _, path := range ctx.Args().Tail() {
		d, err := dump.Load(path, sampler.DefaultConfig(), tracker)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := dump.Merge(merged, d); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Infof("merged %s (%d spp)", path, d.SamplesPerPixel())
	}

	if err := dump.Save(out, merged, tracker); err != nil {
		return err
	}
	logger.Noticef("wrote %s: %d spp, render time %v", out, merged.SamplesPerPixel(), merged.RenderTime)
	return nil
}

// Reconstruct the image stored in a render dump.
func Snapshot(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing dump file argument")
	}
	mode, err := postprocess.Parse(ctx.String("postprocess"))
	if err != nil {
		return err
	}
	exposure := ctx.Float64("exposure")
	if !(exposure > 0) {
		return fmt.Errorf("exposure must be positive, got %v", exposure)
	}

	d, err := dump.Load(ctx.Args().First(), sampler.DefaultConfig(), newTracker())
	if err != nil {
		return err
	}

	img := bitmap.New(d.Sampler.Width(), d.Sampler.Height())
	if err := sampler.Finalize(d.Sampler, exposure, mode, img); err != nil {
		return err
	}

	out := ctx.String("out")
	if out == "" {
		return errors.New("missing --out image file")
	}
	if err := bitmap.WriteFile(out, img); err != nil {
		return err
	}
	logger.Noticef("wrote %s (%v, %d spp)", out, mode, d.SamplesPerPixel())
	return nil
}

// Display the contents of one or more render dumps.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing dump file argument")
	}

	var dumps []dumpInfo
	for _, path := range ctx.Args() {
		d, err := dump.Load(path, sampler.DefaultConfig(), nil)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		dumps = append(dumps, dumpInfo{path: path, dump: d})
	}

	fmt.Fprint(ctx.App.Writer, displayDumpInfo(dumps))
	return nil
}
