package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/df07/go-progressive-sampler/pkg/kernel"
	"github.com/df07/go-progressive-sampler/pkg/log"
	"github.com/df07/go-progressive-sampler/pkg/postprocess"
	"github.com/df07/go-progressive-sampler/pkg/progress"
	"github.com/df07/go-progressive-sampler/pkg/renderer"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

// Render the preview scene until the target samples per pixel is reached.
func Render(ctx *cli.Context) error {
	setupLogging(ctx)

	mode, err := postprocess.Parse(ctx.String("postprocess"))
	if err != nil {
		return err
	}

	samplerType, err := sampler.ParseTypeName(ctx.String("sampler"))
	if err != nil {
		return err
	}

	config := scene.DefaultSamplingConfig()
	config.Width = ctx.Int("width")
	config.Height = ctx.Int("height")
	config.SamplesPerPixel = ctx.Int("spp")
	config.Exposure = ctx.Float64("exposure")
	config.Postprocess = mode
	config.Sampler = samplerType

	sc := scene.NewPreviewScene(config)
	if err := sc.Validate(); err != nil {
		return err
	}

	opts := renderer.DefaultConfig()
	opts.NumWorkers = ctx.Int("threads")
	opts.CPULoad = ctx.Int("cpu-load")
	opts.Headless = true
	opts.Sampler.TileSize = ctx.Int("tile-size")
	opts.Logger = log.NewPrintf("renderer")

	dumpPath := ctx.String("dump")
	control := renderer.SnapshotEvery{Snapshots: ctx.Int("snapshot-every")}
	if dumpPath != "" {
		control.Dumps = ctx.Int("dump-every")
		opts.DumpPath = dumpPath
	}
	if control.Snapshots > 0 {
		if opts.OutputDir, err = createOutputDir(sc.Name); err != nil {
			return err
		}
	}

	rm := renderer.NewRenderManager(kernel.NewPreview(), opts)
	rm.SetSceneProvider(scene.NewStaticProvider(sc))
	rm.SetSnapshotControl(control)
	tracker := progress.NewLogTracker(log.NewPrintf("progress"), time.Second)

	if resume := ctx.String("resume"); resume != "" {
		if err := rm.LoadDump(resume, tracker); err != nil {
			logger.Warningf("could not resume from %s, starting a fresh render: %v", resume, err)
		}
	}

	rm.SetRenderTask(tracker.Task("Rendering", int64(sc.TargetSPP())))
	rm.AddFrameCompletedListener(func(sc *scene.Scene, spp int) {
		logger.Debugf("frame complete: %d/%d spp", spp, sc.TargetSPP())
	})

	if err := rm.Start(); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		select {
		case <-signals:
			logger.Notice("interrupted, stopping render")
			rm.Shutdown()
		case <-stop:
		}
	}()

	if err := rm.Join(); err != nil {
		return err
	}

	if dumpPath != "" {
		if err := rm.SaveDump(dumpPath, tracker); err != nil {
			return err
		}
	}

	out := ctx.String("out")
	if out == "" {
		if out, err = defaultSnapshotPath(sc.Name, time.Now()); err != nil {
			return err
		}
	}
	if err := rm.SaveSnapshot(out, tracker); err != nil {
		return err
	}
	logger.Noticef("wrote %s", out)

	displayRenderStats(sc, rm.RenderStatus(), rm.NumWorkers())
	return nil
}
