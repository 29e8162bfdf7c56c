package renderer

import (
	"fmt"

	"github.com/df07/go-progressive-sampler/pkg/bitmap"
	"github.com/df07/go-progressive-sampler/pkg/dump"
	"github.com/df07/go-progressive-sampler/pkg/progress"
	"github.com/df07/go-progressive-sampler/pkg/sampler"
)

// SaveDump writes the accumulation state to path. The state is copied
// between frames; the file is written while rendering continues.
func (rm *RenderManager) SaveDump(path string, tracker progress.Tracker) error {
	rm.frameMu.Lock()
	if rm.sampler == nil {
		rm.frameMu.Unlock()
		return ErrNoRenderState
	}
	d := &dump.Dump{Sampler: rm.sampler.Clone(), RenderTime: rm.renderTime}
	rm.frameMu.Unlock()

	if err := dump.Save(path, d, tracker); err != nil {
		return fmt.Errorf("failed to save dump %s: %w", path, err)
	}
	rm.logger.Printf("Saved dump %s (%d spp)\n", path, d.SamplesPerPixel())
	rm.listeners.fireSceneStatus(fmt.Sprintf("Saved dump %s", path))
	return nil
}

// LoadDump replaces the accumulation state with the dump stored at path.
// On error the current state is left untouched.
func (rm *RenderManager) LoadDump(path string, tracker progress.Tracker) error {
	sc, err := rm.currentScene()
	if err != nil {
		return err
	}

	d, err := dump.Load(path, rm.config.Sampler, tracker)
	if err != nil {
		return fmt.Errorf("failed to load dump %s: %w", path, err)
	}
	if err := checkDumpSize(d, sc.Width(), sc.Height()); err != nil {
		return fmt.Errorf("failed to load dump %s: %w", path, err)
	}

	rm.frameMu.Lock()
	if rm.scene == nil {
		rm.scene = sc
	}
	rm.sampler = d.Sampler
	rm.renderTime = d.RenderTime
	rm.completed = false
	rm.target.Store(&frameTarget{scene: rm.scene, sampler: rm.sampler})
	spp := rm.sampler.SamplesPerPixel() // the sampler is live once frameMu is released
	err = rm.refreshBufferLocked()
	rm.frameMu.Unlock()
	if err != nil {
		return err
	}

	rm.logger.Printf("Loaded dump %s (%d spp, %v)\n", path, spp, d.RenderTime)
	rm.listeners.fireSceneStatus(fmt.Sprintf("Loaded dump %s", path))
	rm.repaint()
	rm.notify()
	return nil
}

// MergeDump adds the samples of the dump stored at path to the current
// accumulation state. On error the current state is left untouched.
func (rm *RenderManager) MergeDump(path string, tracker progress.Tracker) error {
	d, err := dump.Load(path, rm.config.Sampler, tracker)
	if err != nil {
		return fmt.Errorf("failed to merge dump %s: %w", path, err)
	}

	rm.frameMu.Lock()
	if rm.sampler == nil {
		rm.frameMu.Unlock()
		return ErrNoRenderState
	}
	current := &dump.Dump{Sampler: rm.sampler, RenderTime: rm.renderTime}
	if err := dump.Merge(current, d); err != nil {
		rm.frameMu.Unlock()
		return fmt.Errorf("failed to merge dump %s: %w", path, err)
	}
	rm.renderTime = current.RenderTime
	err = rm.refreshBufferLocked()
	rm.frameMu.Unlock()
	if err != nil {
		return err
	}

	rm.logger.Printf("Merged dump %s (%d spp)\n", path, d.SamplesPerPixel())
	rm.listeners.fireSceneStatus(fmt.Sprintf("Merged dump %s", path))
	rm.repaint()
	rm.notify()
	return nil
}

// SaveSnapshot writes the most recently finished frame to path as PNG, or
// TIFF when the extension says so.
func (rm *RenderManager) SaveSnapshot(path string, tracker progress.Tracker) error {
	var img *bitmap.Bitmap
	rm.WithBufferedImage(func(b *bitmap.Bitmap) {
		img = b.Clone()
	})
	if img == nil {
		return ErrNoRenderState
	}

	task := progress.OrNop(tracker).Task("Saving snapshot", 1)
	defer task.Done()
	if err := bitmap.WriteFile(path, img); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", path, err)
	}
	task.Update(1)

	rm.logger.Printf("Saved snapshot %s\n", path)
	rm.listeners.fireSceneStatus(fmt.Sprintf("Saved snapshot %s", path))
	return nil
}

func checkDumpSize(d *dump.Dump, width, height int) error {
	if d.Sampler.Width() != width || d.Sampler.Height() != height {
		return fmt.Errorf("%w: dump is %dx%d, scene is %dx%d",
			sampler.ErrDimensionMismatch, d.Sampler.Width(), d.Sampler.Height(), width, height)
	}
	return nil
}
