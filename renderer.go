package framecore

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/shader"
)

// Renderer owns the device, swap chain, pipeline and vertex buffer, and
// renders one frame per Render call.
//
// A Renderer is meant to be driven from a single goroutine. Its methods are
// serialized by a mutex, so concurrent calls are safe but not parallel.
type Renderer struct {
	mu sync.Mutex

	opts   options
	window Window

	instance     hal.Instance
	surface      hal.Surface
	dc           *DeviceContext
	swap         *SwapChain
	pipeline     *Pipeline
	vertexBuffer hal.Buffer

	// mirror is the CPU copy of the last image uploaded by a submitted frame.
	mirror [VertexBufferCapacity]byte
	retire retireList

	frames uint64
	stats  Stats
	closed bool
}

// Stats are cumulative renderer counters.
type Stats struct {
	FramesPresented uint64
	FramesFailed    uint64
	// SwapChainGenerations counts surface configurations, including the
	// initial one.
	SwapChainGenerations uint64
}

// New brings up a renderer for window: backend instance, surface, adapter,
// device, swap chain sized to the window, pipeline and vertex buffer. Any
// failure releases everything created so far and is reported as *InitError.
func New(ctx context.Context, window Window, opts ...Option) (*Renderer, error) {
	if window == nil {
		return nil, &InitError{Stage: StageSurface, Err: ErrNilWindow}
	}
	width, height := PhysicalSize(window)
	if width == 0 || height == 0 {
		return nil, &InitError{Stage: StageSwapChain, Err: fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)}
	}

	r := &Renderer{opts: applyOptions(opts), window: window}
	if err := r.init(ctx, width, height); err != nil {
		r.release()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(ctx context.Context, width, height uint32) error {
	if err := r.openDevice(ctx); err != nil {
		return err
	}

	_, readback := r.surface.(framebufferReader)
	desc := negotiateDescriptor(r.dc.SurfaceCapabilities(), r.opts.format, r.opts.presentMode, width, height, readback)
	swap, err := CreateSwapChain(r.dc, r.surface, desc)
	if err != nil {
		return &InitError{Stage: StageSwapChain, Err: err}
	}
	r.swap = swap
	r.dc.format = desc.Format

	bundle := r.opts.shaders
	if bundle == nil {
		if bundle, err = shader.Default(); err != nil {
			return &InitError{Stage: StageShader, Err: fmt.Errorf("%w: %w", ErrShaderCompileFailed, err)}
		}
	}
	r.pipeline, err = NewPipeline(r.dc, bundle, desc.Format, r.opts.label)
	if err != nil {
		stage := StagePipeline
		if errors.Is(err, ErrShaderCompileFailed) {
			stage = StageShader
		}
		return &InitError{Stage: stage, Err: err}
	}

	r.vertexBuffer, err = r.dc.device.CreateBuffer(&hal.BufferDescriptor{
		Label: r.opts.label + " vertices",
		Size:  VertexBufferCapacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return &InitError{Stage: StageVertexBuffer, Err: err}
	}

	slogger().Debug("framecore: renderer ready",
		"width", width, "height", height,
		"format", desc.Format, "present_mode", desc.PresentMode)
	return nil
}

// openDevice walks the candidate backends until one yields a device that can
// present to the window.
func (r *Renderer) openDevice(ctx context.Context) error {
	var backends []hal.Backend
	if r.opts.halBackend != nil {
		backends = []hal.Backend{r.opts.halBackend}
	} else {
		var err error
		if backends, err = resolveBackends(r.opts.backend); err != nil {
			return &InitError{Stage: StageInstance, Err: err}
		}
	}

	display, handle := r.window.SurfaceHandles()
	var lastErr error = &InitError{Stage: StageAdapter, Err: ErrNoAdapter}
	for _, b := range backends {
		name := backendName(b.Variant())
		instance, err := b.CreateInstance(&hal.InstanceDescriptor{
			Backends: gputypes.BackendsAll,
		})
		if err != nil {
			slogger().Debug("framecore: backend unavailable", "backend", name, "err", err)
			lastErr = &InitError{Stage: StageInstance, Err: fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, name, err)}
			continue
		}
		surface, err := instance.CreateSurface(display, handle)
		if err != nil {
			instance.Destroy()
			slogger().Debug("framecore: surface creation failed", "backend", name, "err", err)
			lastErr = &InitError{Stage: StageSurface, Err: err}
			continue
		}
		dc, err := NewDeviceContext(ctx, instance, surface, r.opts.power, func() {
			surface.Destroy()
			instance.Destroy()
		})
		if err != nil {
			if errors.Is(err, ErrNoAdapter) {
				slogger().Debug("framecore: no adapter on backend", "backend", name)
				continue
			}
			stage := StageDevice
			if ctx.Err() != nil {
				stage = StageAdapter
			}
			return &InitError{Stage: stage, Err: err}
		}
		r.instance, r.surface, r.dc = instance, surface, dc
		return nil
	}
	return lastErr
}

// Render uploads vertices and draws one frame. Only the first six vertices
// are drawn; bytes beyond the serialized vertices keep their previous
// contents unless WithZeroStaleTail is set.
//
// Errors are *FrameError values; use errors.Is with the frame sentinels or
// IsRecoverable to decide how to continue.
func (r *Renderer) Render(vertices []Vertex) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	r.frames++
	data, err := VertexBytes(vertices)
	if err != nil {
		r.stats.FramesFailed++
		return &FrameError{Stage: FrameSerialize, Frame: r.frames, Err: err}
	}
	return r.render(data)
}

// RenderBytes is Render for callers that serialize vertices themselves. data
// must use the Vertex layout and be at most VertexBufferCapacity bytes.
func (r *Renderer) RenderBytes(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	r.frames++
	return r.render(data)
}

func (r *Renderer) render(data []byte) error {
	if err := r.frame(r.frames, data); err != nil {
		r.stats.FramesFailed++
		return err
	}
	r.stats.FramesPresented++
	return nil
}

// Resize recreates the swap chain at width x height physical pixels. Zero
// dimensions are rejected and the current chain stays in use.
func (r *Renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.swap.Resize(width, height)
}

// ResizeToWindow resizes the swap chain to the window's current physical
// size.
func (r *Renderer) ResizeToWindow() error {
	w, h := PhysicalSize(r.window)
	return r.Resize(w, h)
}

// Size returns the swap chain dimensions.
func (r *Renderer) Size() (width, height uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swap == nil {
		return 0, 0
	}
	d := r.swap.Descriptor()
	return d.Width, d.Height
}

// Format returns the negotiated swap chain format.
func (r *Renderer) Format() gputypes.TextureFormat {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swap == nil {
		return gputypes.TextureFormatUndefined
	}
	return r.swap.Descriptor().Format
}

// PresentMode returns the negotiated present mode.
func (r *Renderer) PresentMode() gputypes.PresentMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swap == nil {
		return gputypes.PresentModeFifo
	}
	return r.swap.Descriptor().PresentMode
}

// AdapterInfo describes the adapter in use.
func (r *Renderer) AdapterInfo() gputypes.AdapterInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dc == nil {
		return gputypes.AdapterInfo{}
	}
	return r.dc.info
}

// Stats returns a copy of the renderer counters.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	if r.swap != nil {
		s.SwapChainGenerations = r.swap.Generation()
	}
	return s
}

// DeviceProvider exposes the device for host frameworks. The provider stays
// valid until Close.
func (r *Renderer) DeviceProvider() gpucontext.DeviceProvider {
	return r.dc
}

// framebufferReader is implemented by surfaces whose last image can be read
// back on the CPU, such as the software backend's.
type framebufferReader interface {
	GetFramebuffer() []byte
}

// Snapshot returns the last presented image as RGBA. It returns
// ErrSnapshotUnsupported when the surface keeps its images on the GPU or
// the chain was configured with a BGRA format, and ErrSurfaceOutdated when no
// chain is live.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	fb, ok := r.surface.(framebufferReader)
	if !ok {
		return nil, ErrSnapshotUnsupported
	}
	if !r.swap.Configured() {
		return nil, ErrSurfaceOutdated
	}
	d := r.swap.Descriptor()
	switch d.Format {
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return nil, fmt.Errorf("%w: framebuffer is %v", ErrSnapshotUnsupported, d.Format)
	}
	pix := fb.GetFramebuffer()
	if len(pix) != int(d.Width)*int(d.Height)*4 {
		return nil, fmt.Errorf("%w: framebuffer holds %d bytes for %dx%d",
			ErrSnapshotUnsupported, len(pix), d.Width, d.Height)
	}
	return &image.RGBA{
		Pix:    pix,
		Stride: int(d.Width) * 4,
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}, nil
}

// Close waits for the GPU to finish and releases every resource. Further
// calls return ErrClosed. Close is idempotent.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.release()
	return nil
}

// release tears down in reverse creation order. It tolerates partially
// initialized renderers.
func (r *Renderer) release() {
	if r.dc != nil && r.dc.device != nil {
		if err := r.dc.device.WaitIdle(); err != nil {
			slogger().Warn("framecore: wait idle", "err", err)
		}
		r.retire.drainAll(r.dc.device)
		if r.vertexBuffer != nil {
			r.dc.device.DestroyBuffer(r.vertexBuffer)
			r.vertexBuffer = nil
		}
	}
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.swap != nil {
		r.swap.Release()
	}
	if r.surface != nil {
		r.surface.Destroy()
		r.surface = nil
	}
	if r.dc != nil {
		r.dc.Destroy()
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
}
