package framecore

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/shader"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// Defaults: any backend, Fifo presentation, blue clear.
//	r, err := framecore.New(ctx, win)
//
//	// Prefer a discrete GPU and low-latency presentation.
//	r, err := framecore.New(ctx, win,
//		framecore.WithPowerPreference(gputypes.PowerPreferenceHighPerformance),
//		framecore.WithPresentMode(gputypes.PresentModeMailbox))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	backend       string
	halBackend    hal.Backend
	power         gputypes.PowerPreference
	presentMode   gputypes.PresentMode
	format        gputypes.TextureFormat
	clearColor    gputypes.Color
	zeroStaleTail bool
	shaders       *shader.Bundle
	label         string
}

// DefaultClearColor is opaque blue.
var DefaultClearColor = gputypes.Color{R: 0, G: 0, B: 1, A: 1}

func defaultOptions() options {
	return options{
		backend:     "",
		power:       gputypes.PowerPreferenceNone,
		presentMode: gputypes.PresentModeFifo,
		format:      gputypes.TextureFormatBGRA8UnormSrgb,
		clearColor:  DefaultClearColor,
		label:       "framecore",
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithBackend restricts adapter discovery to one backend by name:
// "vulkan", "metal", "dx12", "gl" or "software". An empty name tries every
// registered backend, native APIs first and the software rasterizer last.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithHALBackend uses b directly instead of looking a backend up in the hal
// registry. It takes precedence over WithBackend.
//
//	r, err := framecore.New(ctx, win, framecore.WithHALBackend(software.API{}))
func WithHALBackend(b hal.Backend) Option {
	return func(o *options) {
		o.halBackend = b
	}
}

// WithPowerPreference selects between integrated and discrete adapters when
// more than one can present to the surface.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *options) {
		o.power = p
	}
}

// WithPresentMode requests a presentation mode. If the surface does not
// support it, Fifo is used instead.
func WithPresentMode(m gputypes.PresentMode) Option {
	return func(o *options) {
		o.presentMode = m
	}
}

// WithFormat sets the preferred swap chain format. If the surface does not
// offer it, the first supported format is used.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithClearColor overrides the render pass clear color.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithZeroStaleTail makes each frame upload zeros past the new vertex data
// instead of carrying forward the previous frame's bytes.
func WithZeroStaleTail(zero bool) Option {
	return func(o *options) {
		o.zeroStaleTail = zero
	}
}

// WithShaderBundle replaces the built-in SPIR-V shaders. The bundle must keep
// the vertex interface: vec3 position at location 0, vec3 color at location 1.
func WithShaderBundle(b *shader.Bundle) Option {
	return func(o *options) {
		o.shaders = b
	}
}

// WithLabel sets the debug label prefix for GPU objects.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
