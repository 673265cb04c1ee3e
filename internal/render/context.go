// Package render runs the offscreen capture pipeline: a dedicated thread
// owns a headless graphics context and framebuffer, pulls frames from the
// engine's render callback, throttles and encodes them, and polls playback
// status for the hosting application.
package render

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// GraphicsContext is a headless rendering context. It belongs to the single
// loop thread: created and made current there, never transferred.
type GraphicsContext interface {
	MakeCurrent() error

	// ProcAddress resolves a graphics API symbol for the engine's render
	// hookup. Zero when unknown.
	ProcAddress(name string) uintptr

	// Shutdown releases the context. Implementations must keep the
	// platform-documented order: unbind surface, destroy surface, destroy
	// context, release device.
	Shutdown()
}

// Framebuffer is the fixed-format offscreen target the engine renders into.
type Framebuffer interface {
	// Resize adjusts the target to the video dimensions. No-op when the
	// size is unchanged.
	Resize(width, height int)
	Size() (int, int)

	// Complete reports whether target setup succeeded. Checked once at loop
	// startup; false demotes the loop to clock-keeping for its lifetime.
	Complete() bool

	// ReadPixels returns the current contents as tightly packed RGBA,
	// top row first.
	ReadPixels() []byte
}

// FrameSource is the engine's render-callback side: a "frame ready" signal
// plus render entry points.
type FrameSource interface {
	// Pending consumes the frame-ready signal: true at most once per
	// signaled frame.
	Pending() bool

	RenderInto(fb Framebuffer) error

	// RenderDiscard renders into a 1x1 throwaway target, keeping the
	// engine's internal clock advancing when capture is unavailable.
	RenderDiscard() error
}

// NoopSource is the frame source for modes where the engine renders its own
// window: it never signals frames, leaving the loop to status polling.
type NoopSource struct{}

func (NoopSource) Pending() bool                { return false }
func (NoopSource) RenderInto(Framebuffer) error { return nil }
func (NoopSource) RenderDiscard() error         { return nil }

// SoftwareContext is the no-GPU graphics backend. It satisfies the context
// contract trivially; the framebuffer lives in process memory.
type SoftwareContext struct {
	closed atomic.Bool
}

func NewSoftwareContext() *SoftwareContext { return &SoftwareContext{} }

func (c *SoftwareContext) MakeCurrent() error {
	if c.closed.Load() {
		return fmt.Errorf("graphics context already shut down")
	}
	return nil
}

func (c *SoftwareContext) ProcAddress(string) uintptr { return 0 }

func (c *SoftwareContext) Shutdown() { c.closed.Store(true) }

// SoftwareFramebuffer is an in-memory RGBA target.
type SoftwareFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	pix    []byte
}

func NewSoftwareFramebuffer(width, height int) *SoftwareFramebuffer {
	fb := &SoftwareFramebuffer{}
	fb.Resize(width, height)
	return fb
}

func (fb *SoftwareFramebuffer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.width == width && fb.height == height {
		return
	}
	fb.width = width
	fb.height = height
	fb.pix = make([]byte, width*height*4)
}

func (fb *SoftwareFramebuffer) Size() (int, int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.width, fb.height
}

func (fb *SoftwareFramebuffer) Complete() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.pix) > 0
}

func (fb *SoftwareFramebuffer) ReadPixels() []byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]byte, len(fb.pix))
	copy(out, fb.pix)
	return out
}

// WritePixels lets an engine backend fill the target.
func (fb *SoftwareFramebuffer) WritePixels(pix []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	copy(fb.pix, pix)
}
