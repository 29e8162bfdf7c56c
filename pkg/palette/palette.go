// Package palette maps block configurations to stable numeric ids and
// manages their material properties.
//
// Only one Block is created per distinct Spec. Material patches are kept in
// a per-name side table: they are applied when a block is first inserted and
// can be re-applied to every existing block of that name later on.
package palette

import (
	"sync"
)

// Palette is a content-addressed table of block configurations
type Palette struct {
	mu        sync.RWMutex
	ids       map[string]int
	specs     []Spec
	blocks    []*Block
	materials map[string]MaterialFunc

	AirID, StoneID, WaterID int
}

// New creates a palette holding the default material patches and the air,
// stone and water blocks.
func New() *Palette {
	p := &Palette{
		ids:       make(map[string]int),
		materials: DefaultMaterialProperties(),
	}
	p.AirID = p.Put(NewSpec("minecraft:air"))
	p.StoneID = p.Put(NewSpec("minecraft:stone"))
	p.WaterID = p.Put(NewSpec("minecraft:water"))
	return p
}

// Put adds a block configuration and returns its id. Putting an existing
// configuration returns the id it was first given.
func (p *Palette) Put(spec Spec) int {
	key := spec.Key()

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[key]; ok {
		return id
	}
	id := len(p.blocks)
	block := spec.toBlock()
	p.applyMaterialLocked(block)
	p.ids[key] = id
	p.specs = append(p.specs, spec)
	p.blocks = append(p.blocks, block)
	return id
}

// Lookup returns the id of a configuration without inserting it
func (p *Palette) Lookup(spec Spec) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.ids[spec.Key()]
	return id, ok
}

// Get returns the block for id, or nil if the id is unknown
func (p *Palette) Get(id int) *Block {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if id < 0 || id >= len(p.blocks) {
		return nil
	}
	return p.blocks[id]
}

// Len returns the number of distinct block configurations
func (p *Palette) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.blocks)
}

// UpdateProperties registers a material patch for every block with the given
// name and applies it to the blocks already in the palette. Blocks are
// shared with the renderer, so this should only be called between frames.
func (p *Palette) UpdateProperties(name string, properties MaterialFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.materials[name] = properties
	for _, block := range p.blocks {
		if block.Name == name {
			p.applyMaterialLocked(block)
		}
	}
}

// ApplyMaterial applies the registered patch for the block's name, if any
func (p *Palette) ApplyMaterial(block *Block) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.applyMaterialLocked(block)
}

func (p *Palette) applyMaterialLocked(block *Block) {
	if properties, ok := p.materials[block.Name]; ok && properties != nil {
		properties(block)
	}
}

// ApplyMaterials re-applies every registered patch to every block
func (p *Palette) ApplyMaterials() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, block := range p.blocks {
		p.applyMaterialLocked(block)
	}
}
