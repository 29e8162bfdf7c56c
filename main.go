package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/df07/go-progressive-sampler/cmd"
	"github.com/df07/go-progressive-sampler/pkg/postprocess"
)

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "progressive-sampler"
	app.Usage = "progressively render, resume and merge sample buffers"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}

	imageFlags := []cli.Flag{
		cli.Float64Flag{
			Name:  "exposure",
			Value: 1.0,
			Usage: "radiance scale applied before tone-mapping",
		},
		cli.StringFlag{
			Name:  "postprocess",
			Value: postprocess.Default.String(),
			Usage: "tone-mapping operator: NONE, TONEMAP1, TONEMAP2, TONEMAP3 or GAMMA",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the preview scene",
			Description: `
Render the preview scene in frames of one sample per pixel until the target
samples per pixel is reached, then write a snapshot of the result.

With --dump the accumulated samples are saved so the render can be resumed
later with --resume, or merged with renders made on other machines.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 400,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 225,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 100,
					Usage: "target samples per pixel",
				},
				cli.IntFlag{
					Name:  "threads",
					Value: 0,
					Usage: "number of render workers (0 = one per CPU)",
				},
				cli.IntFlag{
					Name:  "cpu-load",
					Value: 100,
					Usage: "percentage of time workers spend rendering",
				},
				cli.StringFlag{
					Name:  "sampler",
					Value: "uniform",
					Usage: "frame sampler: uniform (adaptive is reserved)",
				},
				cli.IntFlag{
					Name:  "tile-size",
					Value: 64,
					Usage: "size of the square tiles each task renders",
				},
				cli.StringFlag{
					Name:  "dump",
					Usage: "save the render dump to this file when done",
				},
				cli.IntFlag{
					Name:  "dump-every",
					Usage: "also save the dump every N samples per pixel",
				},
				cli.IntFlag{
					Name:  "snapshot-every",
					Usage: "save output/<scene>/<scene>-<spp>.png every N samples per pixel",
				},
				cli.StringFlag{
					Name:  "resume",
					Usage: "resume from a previously saved render dump",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "image filename for the snapshot (.png, .tif or .tiff)",
				},
			}, imageFlags...),
			Action: cmd.Render,
		},
		{
			Name:      "merge",
			Usage:     "merge render dumps of the same scene",
			ArgsUsage: "dump1 dump2 ...",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "filename for the merged dump",
				},
			},
			Action: cmd.MergeDumps,
		},
		{
			Name:      "snapshot",
			Usage:     "reconstruct the image stored in a render dump",
			ArgsUsage: "dump",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "snapshot.png",
					Usage: "image filename (.png, .tif or .tiff)",
				},
			}, imageFlags...),
			Action: cmd.Snapshot,
		},
		{
			Name:      "info",
			Usage:     "display render dump statistics",
			ArgsUsage: "dump1 dump2 ...",
			Action:    cmd.Info,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		cmd.Fatal(err)
	}
}
