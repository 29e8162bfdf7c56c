package renderer

import (
	"sync"
	"time"

	"github.com/df07/go-progressive-sampler/pkg/scene"
)

type listenerKind int

const (
	renderCompletedListener listenerKind = iota + 1
	frameCompletedListener
	renderStatusListener
	sceneStatusListener
)

// ListenerHandle identifies a registered listener for removal
type ListenerHandle struct {
	kind listenerKind
	id   uint64
}

type listenerEntry[T any] struct {
	id uint64
	fn T
}

// listenerList keeps listeners in registration order
type listenerList[T any] struct {
	entries []listenerEntry[T]
}

func (l *listenerList[T]) add(id uint64, fn T) {
	l.entries = append(l.entries, listenerEntry[T]{id: id, fn: fn})
}

func (l *listenerList[T]) remove(id uint64) {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *listenerList[T]) snapshot() []T {
	fns := make([]T, len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}

// listeners holds every registered callback. Callbacks are invoked without
// the lock held so they may register or remove listeners themselves.
type listeners struct {
	mu     sync.Mutex
	nextID uint64

	renderCompleted listenerList[func(time.Duration, int)]
	frameCompleted  listenerList[func(*scene.Scene, int)]
	renderStatus    listenerList[RenderStatusListener]
	sceneStatus     listenerList[SceneStatusListener]
}

func (ls *listeners) handle(kind listenerKind) ListenerHandle {
	ls.nextID++
	return ListenerHandle{kind: kind, id: ls.nextID}
}

func (ls *listeners) addRenderCompleted(fn func(time.Duration, int)) ListenerHandle {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	h := ls.handle(renderCompletedListener)
	ls.renderCompleted.add(h.id, fn)
	return h
}

func (ls *listeners) addFrameCompleted(fn func(*scene.Scene, int)) ListenerHandle {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	h := ls.handle(frameCompletedListener)
	ls.frameCompleted.add(h.id, fn)
	return h
}

func (ls *listeners) addRenderStatus(l RenderStatusListener) ListenerHandle {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	h := ls.handle(renderStatusListener)
	ls.renderStatus.add(h.id, l)
	return h
}

func (ls *listeners) addSceneStatus(l SceneStatusListener) ListenerHandle {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	h := ls.handle(sceneStatusListener)
	ls.sceneStatus.add(h.id, l)
	return h
}

func (ls *listeners) remove(h ListenerHandle) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	switch h.kind {
	case renderCompletedListener:
		ls.renderCompleted.remove(h.id)
	case frameCompletedListener:
		ls.frameCompleted.remove(h.id)
	case renderStatusListener:
		ls.renderStatus.remove(h.id)
	case sceneStatusListener:
		ls.sceneStatus.remove(h.id)
	}
}

func (ls *listeners) fireRenderCompleted(renderTime time.Duration, samplesPerSecond int) {
	ls.mu.Lock()
	fns := ls.renderCompleted.snapshot()
	ls.mu.Unlock()
	for _, fn := range fns {
		fn(renderTime, samplesPerSecond)
	}
}

func (ls *listeners) fireFrameCompleted(sc *scene.Scene, spp int) {
	ls.mu.Lock()
	fns := ls.frameCompleted.snapshot()
	ls.mu.Unlock()
	for _, fn := range fns {
		fn(sc, spp)
	}
}

func (ls *listeners) fireStateChanged(state State) {
	ls.mu.Lock()
	fns := ls.renderStatus.snapshot()
	ls.mu.Unlock()
	for _, l := range fns {
		l.RenderStateChanged(state)
	}
}

func (ls *listeners) fireStatusUpdated(status RenderStatus) {
	ls.mu.Lock()
	fns := ls.renderStatus.snapshot()
	ls.mu.Unlock()
	for _, l := range fns {
		l.RenderStatusUpdated(status)
	}
}

func (ls *listeners) fireSceneStatus(message string) {
	ls.mu.Lock()
	fns := ls.sceneStatus.snapshot()
	ls.mu.Unlock()
	for _, l := range fns {
		l.SceneStatus(message)
	}
}
