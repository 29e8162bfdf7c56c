package palette

// MaterialFunc patches the material properties of a block in place
type MaterialFunc func(b *Block)

func emissive(emittance float32) MaterialFunc {
	return func(b *Block) {
		b.Emittance = emittance
	}
}

func emissiveWhenLit(emittance float32) MaterialFunc {
	return func(b *Block) {
		if b.IsLit() {
			b.Emittance = emittance
		}
	}
}

func specular(reflectance float32) MaterialFunc {
	return func(b *Block) {
		b.Specular = reflectance
	}
}

func refractive(ior float32) MaterialFunc {
	return func(b *Block) {
		b.IOR = ior
		b.Refractive = true
	}
}

func waterlogged(b *Block) {
	b.Waterlogged = true
}

var glassColors = []string{
	"white", "orange", "magenta", "light_blue", "yellow", "lime", "pink", "gray",
	"light_gray", "cyan", "purple", "blue", "brown", "green", "red", "black",
}

// DefaultMaterialProperties returns the built-in material patches keyed by
// block name.
func DefaultMaterialProperties() map[string]MaterialFunc {
	m := map[string]MaterialFunc{
		"minecraft:water": func(b *Block) {
			b.Specular = 0.12
			b.IOR = 1.333
			b.Refractive = true
		},
		"minecraft:lava": emissive(1.0),

		"minecraft:gold_block":    specular(0.04),
		"minecraft:diamond_block": specular(0.04),
		"minecraft:iron_block":    specular(0.04),
		"minecraft:emerald_block": specular(0.04),

		"minecraft:redstone_torch": emissive(1.0),
		"minecraft:torch":          emissive(50.0),
		"minecraft:wall_torch":     emissive(50.0),
		"minecraft:fire":           emissive(1.0),
		"minecraft:ice":            refractive(1.31),
		"minecraft:frosted_ice":    refractive(1.31),
		"minecraft:glowstone":      emissive(1.0),
		"minecraft:portal":         emissive(0.4), // MC <1.13
		"minecraft:nether_portal":  emissive(0.4), // MC >=1.13
		"minecraft:jack_o_lantern": emissive(1.0),
		"minecraft:beacon": func(b *Block) {
			b.Emittance = 1.0
			b.IOR = 1.52
		},
		"minecraft:redstone_lamp": emissiveWhenLit(1.0),
		"minecraft:sea_lantern":   emissive(0.5),
		"minecraft:magma":         emissive(0.6),
		"minecraft:end_rod":       emissive(1.0),

		"minecraft:kelp":          waterlogged,
		"minecraft:kelp_plant":    waterlogged,
		"minecraft:seagrass":      waterlogged,
		"minecraft:tall_seagrass": waterlogged,

		"minecraft:campfire":      emissiveWhenLit(1.0),
		"minecraft:furnace":       emissiveWhenLit(1.0),
		"minecraft:smoker":        emissiveWhenLit(1.0),
		"minecraft:blast_furnace": emissiveWhenLit(1.0),

		"minecraft:lantern":               emissive(1.0),
		"minecraft:shroomlight":           emissive(1.0),
		"minecraft:soul_fire_lantern":     emissive(0.6), // MC 20w06a-20w16a
		"minecraft:soul_lantern":          emissive(0.6), // MC >= 20w17a
		"minecraft:soul_fire_torch":       emissive(35.0),
		"minecraft:soul_torch":            emissive(35.0),
		"minecraft:soul_fire_wall_torch":  emissive(35.0),
		"minecraft:soul_wall_torch":       emissive(35.0),
		"minecraft:soul_fire":             emissive(0.6),
		"minecraft:crying_obsidian":       emissive(0.6),
		"minecraft:respawn_anchor": func(b *Block) {
			if charges := b.IntProperty("charges"); charges > 0 {
				b.Emittance = 1.0 / 15 * float32(charges*4-2)
			}
		},
	}

	glass := refractive(1.52)
	m["minecraft:glass"] = glass
	m["minecraft:glass_pane"] = glass
	for _, color := range glassColors {
		m["minecraft:"+color+"_stained_glass"] = glass
		m["minecraft:"+color+"_stained_glass_pane"] = glass
	}
	return m
}
