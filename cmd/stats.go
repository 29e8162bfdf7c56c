package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/df07/go-progressive-sampler/pkg/dump"
	"github.com/df07/go-progressive-sampler/pkg/renderer"
	"github.com/df07/go-progressive-sampler/pkg/scene"
)

func displayRenderStats(sc *scene.Scene, status renderer.RenderStatus, workers int) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Scene", "Resolution", "Workers", "Frames", "Samples per pixel", "Samples/sec", "Render time"})
	table.Append([]string{
		sc.Name,
		fmt.Sprintf("%dx%d", sc.Width(), sc.Height()),
		fmt.Sprintf("%d", workers),
		fmt.Sprintf("%d", status.Frames),
		fmt.Sprintf("%d / %d", status.SamplesPerPixel, status.TargetSPP),
		fmt.Sprintf("%d", status.SamplesPerSecond),
		status.RenderTime.Round(time.Millisecond).String(),
	})

	table.Render()
	logger.Noticef("render statistics\n%s", buf.String())
}

type dumpInfo struct {
	path string
	dump *dump.Dump
}

func displayDumpInfo(dumps []dumpInfo) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Dump", "Sampler", "Resolution", "Samples per pixel", "Render time"})

	var total time.Duration
	for _, info := range dumps {
		s := info.dump.Sampler
		table.Append([]string{
			info.path,
			s.Type().String(),
			fmt.Sprintf("%dx%d", s.Width(), s.Height()),
			fmt.Sprintf("%d", s.SamplesPerPixel()),
			info.dump.RenderTime.String(),
		})
		total += info.dump.RenderTime
	}
	table.SetFooter([]string{"", "", "", "TOTAL", total.String()})

	table.Render()
	return buf.String()
}
