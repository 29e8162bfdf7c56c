package sampler

import (
	"image"
	"math/rand"
)

// RenderTask describes one tile of work for the current frame
type RenderTask struct {
	Frame   int             // Frame this task belongs to (1-based within a session)
	ID      int             // Tile index within the frame
	Bounds  image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	Samples int             // Elementary samples to take per pixel
	Seed    int64           // Seed for the task's random generator
}

// Random returns a deterministic generator for this task
func (t RenderTask) Random() *rand.Rand {
	return rand.New(rand.NewSource(t.Seed))
}

// PixelCount returns the number of pixels covered by the task
func (t RenderTask) PixelCount() int {
	return t.Bounds.Dx() * t.Bounds.Dy()
}

// taskSeed derives a seed from the sampler progress so that resumed renders
// keep drawing fresh random sequences.
func taskSeed(spp, tileID int) int64 {
	return int64(spp)*1_000_003 + int64(tileID) + 42 // +42 to avoid seed 0
}

// NewTileGrid creates a grid of tile bounds covering the entire image
func NewTileGrid(width, height, tileSize int) []image.Rectangle {
	if tileSize <= 0 {
		tileSize = DefaultConfig().TileSize
	}

	var tiles []image.Rectangle

	// Calculate number of tiles in each dimension
	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, image.Rect(x0, y0, x1, y1))
		}
	}

	return tiles
}
