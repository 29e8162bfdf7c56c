package renderer

import "errors"

var (
	ErrNotConfigured  = errors.New("renderer: no scene provider set")
	ErrAlreadyStarted = errors.New("renderer: already started")
	ErrNotStarted     = errors.New("renderer: not started")
	ErrNoRenderState  = errors.New("renderer: no render state to save")
	ErrNoScene        = errors.New("renderer: scene provider returned no scene")
	ErrNoKernel       = errors.New("renderer: no tracing kernel")
)
