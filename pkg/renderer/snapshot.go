package renderer

import (
	"fmt"
	"path/filepath"

	"github.com/df07/go-progressive-sampler/pkg/scene"
)

// SnapshotControl decides what is saved automatically after a frame. spp is
// the samples per pixel the finished frame reached.
type SnapshotControl interface {
	SaveSnapshot(sc *scene.Scene, spp int) bool
	SaveRenderDump(sc *scene.Scene, spp int) bool
}

// SnapshotEvery saves a snapshot every Snapshots and a dump every Dumps
// samples per pixel. Zero disables either.
type SnapshotEvery struct {
	Snapshots int
	Dumps     int
}

func (e SnapshotEvery) SaveSnapshot(_ *scene.Scene, spp int) bool {
	return e.Snapshots > 0 && spp%e.Snapshots == 0
}

func (e SnapshotEvery) SaveRenderDump(_ *scene.Scene, spp int) bool {
	return e.Dumps > 0 && spp%e.Dumps == 0
}

// snapshotPath returns <OutputDir>/<scene>-<spp>.png
func (rm *RenderManager) snapshotPath(sc *scene.Scene, spp int) string {
	return filepath.Join(rm.config.OutputDir, fmt.Sprintf("%s-%d.png", outputName(sc), spp))
}

// dumpPath returns Config.DumpPath, or <OutputDir>/<scene>.dump
func (rm *RenderManager) dumpPath(sc *scene.Scene) string {
	if rm.config.DumpPath != "" {
		return rm.config.DumpPath
	}
	return filepath.Join(rm.config.OutputDir, outputName(sc)+".dump")
}

func outputName(sc *scene.Scene) string {
	base := filepath.Base(sc.Name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "scene"
	}
	return base
}

// autoSave writes the outputs the snapshot control asks for. Failures are
// logged and do not stop the render.
func (rm *RenderManager) autoSave(sc *scene.Scene, spp int) {
	rm.mu.Lock()
	ctl := rm.control
	rm.mu.Unlock()
	if ctl == nil {
		return
	}

	if ctl.SaveSnapshot(sc, spp) {
		if err := rm.SaveSnapshot(rm.snapshotPath(sc, spp), nil); err != nil {
			rm.logger.Printf("Automatic snapshot failed: %v\n", err)
		}
	}
	if ctl.SaveRenderDump(sc, spp) {
		if err := rm.SaveDump(rm.dumpPath(sc), nil); err != nil {
			rm.logger.Printf("Automatic dump failed: %v\n", err)
		}
	}
}
