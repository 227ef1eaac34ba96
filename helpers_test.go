package framecore

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/software"
)

// testBackend wraps a real hal backend so tests can count surface
// configuration and inject acquire failures.
type testBackend struct {
	hal.Backend

	noAdapters bool
	openErr    error

	// enumerateDelay slows adapter enumeration so a context can expire
	// mid-negotiation. usedAfterRelease records any negotiation call made
	// after the surface was destroyed.
	enumerateDelay   time.Duration
	usedAfterRelease atomic.Bool

	mu      sync.Mutex
	surface *testSurface
}

func (b *testBackend) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	inst, err := b.Backend.CreateInstance(desc)
	if err != nil {
		return nil, err
	}
	return &testInstance{Instance: inst, backend: b}, nil
}

func (b *testBackend) lastSurface() *testSurface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface
}

type testInstance struct {
	hal.Instance
	backend *testBackend
}

func (i *testInstance) CreateSurface(display, window uintptr) (hal.Surface, error) {
	s, err := i.Instance.CreateSurface(display, window)
	if err != nil {
		return nil, err
	}
	ts := &testSurface{Surface: s}
	i.backend.mu.Lock()
	i.backend.surface = ts
	i.backend.mu.Unlock()
	return ts, nil
}

func (i *testInstance) EnumerateAdapters(hint hal.Surface) []hal.ExposedAdapter {
	if i.backend.noAdapters {
		return nil
	}
	if d := i.backend.enumerateDelay; d > 0 {
		time.Sleep(d)
		i.backend.checkAlive()
	}
	adapters := i.Instance.EnumerateAdapters(hint)
	for k := range adapters {
		if i.backend.openErr != nil {
			adapters[k].Adapter = &failingAdapter{Adapter: adapters[k].Adapter, err: i.backend.openErr}
		}
		adapters[k].Adapter = &watchedAdapter{Adapter: adapters[k].Adapter, backend: i.backend}
	}
	return adapters
}

func (b *testBackend) checkAlive() {
	if s := b.lastSurface(); s != nil && s.destroyed.Load() {
		b.usedAfterRelease.Store(true)
	}
}

// watchedAdapter flags calls made after the surface was released.
type watchedAdapter struct {
	hal.Adapter
	backend *testBackend
}

func (a *watchedAdapter) SurfaceCapabilities(s hal.Surface) *hal.SurfaceCapabilities {
	a.backend.checkAlive()
	return a.Adapter.SurfaceCapabilities(s)
}

func (a *watchedAdapter) Open(f gputypes.Features, l gputypes.Limits) (hal.OpenDevice, error) {
	a.backend.checkAlive()
	return a.Adapter.Open(f, l)
}

type failingAdapter struct {
	hal.Adapter
	err error
}

func (a *failingAdapter) Open(gputypes.Features, gputypes.Limits) (hal.OpenDevice, error) {
	return hal.OpenDevice{}, a.err
}

// testSurface counts configuration calls and returns queued acquire errors
// before delegating.
type testSurface struct {
	hal.Surface

	configures   int
	unconfigures int
	acquires     int
	lastConfig   hal.SurfaceConfiguration
	acquireErrs  []error
	destroyed    atomic.Bool
}

func (s *testSurface) Configure(device hal.Device, config *hal.SurfaceConfiguration) error {
	s.configures++
	s.lastConfig = *config
	return s.Surface.Configure(device, config)
}

func (s *testSurface) Unconfigure(device hal.Device) {
	s.unconfigures++
	s.Surface.Unconfigure(device)
}

func (s *testSurface) AcquireTexture(fence hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	s.acquires++
	if len(s.acquireErrs) > 0 {
		err := s.acquireErrs[0]
		s.acquireErrs = s.acquireErrs[1:]
		return nil, err
	}
	return s.Surface.AcquireTexture(fence)
}

func (s *testSurface) Destroy() {
	s.destroyed.Store(true)
	s.Surface.Destroy()
}

func (s *testSurface) GetFramebuffer() []byte {
	if fb, ok := s.Surface.(framebufferReader); ok {
		return fb.GetFramebuffer()
	}
	return nil
}

func (s *testSurface) live() int { return s.configures - s.unconfigures }

// newSoftwareRenderer builds a renderer on the software rasterizer with an
// RGBA surface so framebuffer bytes map directly to image.RGBA.
func newSoftwareRenderer(t *testing.T, width, height int, opts ...Option) (*Renderer, *testSurface) {
	t.Helper()
	tb := &testBackend{Backend: software.API{}}
	opts = append([]Option{
		WithHALBackend(tb),
		WithFormat(gputypes.TextureFormatRGBA8Unorm),
	}, opts...)

	r, err := New(context.Background(), NewHeadlessWindow(width, height), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, tb.lastSurface()
}

// vertexBufferBytes reads the persistent vertex buffer back from the
// software device.
func vertexBufferBytes(t *testing.T, r *Renderer) []byte {
	t.Helper()
	buf, ok := r.vertexBuffer.(*software.Buffer)
	if !ok {
		t.Fatalf("vertex buffer is %T, want *software.Buffer", r.vertexBuffer)
	}
	return buf.GetData()
}

func snapshot(t *testing.T, r *Renderer) *image.RGBA {
	t.Helper()
	img, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

// assertPixel checks a pixel against want with a small tolerance per channel.
func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	got := img.RGBAAt(x, y)
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d >= -8 && d <= 8
	}
	if !near(got.R, want.R) || !near(got.G, want.G) || !near(got.B, want.B) {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}
