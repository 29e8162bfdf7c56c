package scene

import (
	"github.com/df07/go-progressive-sampler/pkg/palette"
)

// NewPreviewScene creates a sky-over-ground scene whose ground strip cycles
// through a few plain, reflective and emissive blocks.
func NewPreviewScene(config SamplingConfig) *Scene {
	p := palette.New()

	ground := []int{
		p.StoneID,
		p.Put(palette.NewSpec("minecraft:gold_block")),
		p.WaterID,
		p.Put(palette.NewSpec("minecraft:glowstone")),
		p.StoneID,
		p.Put(palette.NewSpec("minecraft:sea_lantern")),
		p.Put(palette.NewSpec("minecraft:ice")),
		p.Put(palette.NewSpec("minecraft:redstone_lamp", "lit", "true")),
	}

	return &Scene{
		Name:           "preview",
		Palette:        p,
		Ground:         ground,
		SamplingConfig: config,
	}
}
