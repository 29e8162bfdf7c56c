package scene

import "sync"

// Provider supplies the scene a render session works on
type Provider interface {
	// Scene returns the current scene. The renderer calls it when a session
	// starts and again on every reset.
	Scene() *Scene
}

// StaticProvider hands out a scene that can be replaced between sessions
type StaticProvider struct {
	mu    sync.RWMutex
	scene *Scene
}

// NewStaticProvider creates a provider for sc
func NewStaticProvider(sc *Scene) *StaticProvider {
	return &StaticProvider{scene: sc}
}

func (p *StaticProvider) Scene() *Scene {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.scene
}

// Set replaces the scene returned by later calls to Scene
func (p *StaticProvider) Set(sc *Scene) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scene = sc
}

// Update applies fn to a copy of the current scene and stores the result
func (p *StaticProvider) Update(fn func(sc *Scene)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sc := p.scene.Copy()
	fn(sc)
	p.scene = sc
}
