package framecore

import (
	"math"

	"github.com/gogpu/gpucontext"
)

// Window is the windowing collaborator the renderer draws into.
//
// Size and ScaleFactor come from gpucontext.WindowProvider; the swap chain is
// sized to their product (physical pixels). SurfaceHandles returns the
// platform handles the backend needs to create a surface:
//
//	Linux X11:  (Display*, Window)
//	Windows:    (0, HWND)
//	macOS:      (0, CAMetalLayer*)
//
// Headless windows return (0, 0).
type Window interface {
	gpucontext.WindowProvider
	SurfaceHandles() (display, window uintptr)
}

// HeadlessWindow is a Window without a platform surface. On the software
// backend frames are rendered into memory and can be read with
// Renderer.Snapshot.
type HeadlessWindow struct {
	gpucontext.NullWindowProvider
}

// NewHeadlessWindow returns a headless window of the given physical size.
func NewHeadlessWindow(width, height int) *HeadlessWindow {
	return &HeadlessWindow{NullWindowProvider: gpucontext.NullWindowProvider{W: width, H: height}}
}

// SetSize changes the reported size. It does not resize the renderer; call
// Renderer.Resize afterwards.
func (w *HeadlessWindow) SetSize(width, height int) {
	w.W, w.H = width, height
}

// SurfaceHandles implements Window.
func (w *HeadlessWindow) SurfaceHandles() (display, window uintptr) { return 0, 0 }

// framebufferSizer is implemented by windows that know their framebuffer
// size in physical pixels.
type framebufferSizer interface {
	FramebufferSize() (width, height int)
}

// PhysicalSize returns a window's size in physical pixels: the framebuffer
// size when the window reports one, otherwise its logical size times the
// scale factor. Negative sizes are reported as zero.
func PhysicalSize(w gpucontext.WindowProvider) (width, height uint32) {
	if fb, ok := w.(framebufferSizer); ok {
		fw, fh := fb.FramebufferSize()
		return scaleDim(fw, 1), scaleDim(fh, 1)
	}
	lw, lh := w.Size()
	sf := w.ScaleFactor()
	if sf <= 0 {
		sf = 1
	}
	return scaleDim(lw, sf), scaleDim(lh, sf)
}

func scaleDim(v int, sf float64) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(math.Round(float64(v) * sf))
}
