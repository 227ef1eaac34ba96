package framecore

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SurfaceDescriptor describes the swap chain images. Width and Height track
// the window's physical size.
type SurfaceDescriptor struct {
	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
	Width       uint32
	Height      uint32
	PresentMode gputypes.PresentMode
	AlphaMode   gputypes.CompositeAlphaMode
}

func (d SurfaceDescriptor) configuration() *hal.SurfaceConfiguration {
	return &hal.SurfaceConfiguration{
		Width:       d.Width,
		Height:      d.Height,
		Format:      d.Format,
		Usage:       d.Usage,
		PresentMode: d.PresentMode,
		AlphaMode:   d.AlphaMode,
	}
}

// negotiateDescriptor builds a descriptor from the preferred settings and
// what the surface supports. An unsupported format falls back to the first
// supported one, or to RGBA8Unorm when readback is set and the surface offers
// it, since Snapshot hands the framebuffer out as RGBA. An unsupported present
// mode falls back to Fifo.
func negotiateDescriptor(caps hal.SurfaceCapabilities, format gputypes.TextureFormat, mode gputypes.PresentMode, width, height uint32, readback bool) SurfaceDescriptor {
	d := SurfaceDescriptor{
		Format:      format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		Width:       width,
		Height:      height,
		PresentMode: mode,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	}

	if len(caps.Formats) > 0 && !slices.Contains(caps.Formats, format) {
		d.Format = caps.Formats[0]
		if readback && slices.Contains(caps.Formats, gputypes.TextureFormatRGBA8Unorm) {
			d.Format = gputypes.TextureFormatRGBA8Unorm
		}
		slogger().Debug("framecore: surface format unsupported, using fallback",
			"requested", format, "using", d.Format)
	}
	if len(caps.PresentModes) > 0 && !slices.Contains(caps.PresentModes, mode) {
		slogger().Debug("framecore: present mode unsupported, using Fifo", "requested", mode)
		d.PresentMode = gputypes.PresentModeFifo
	}
	if len(caps.AlphaModes) > 0 && !slices.Contains(caps.AlphaModes, d.AlphaMode) {
		d.AlphaMode = caps.AlphaModes[0]
	}
	return d
}

// SwapChain is the configured state of a presentation surface. Changing the
// descriptor replaces the chain: the surface is unconfigured and configured
// again, never patched in place.
type SwapChain struct {
	dc         *DeviceContext
	surface    hal.Surface
	desc       SurfaceDescriptor
	configured bool
	generation uint64
}

// CreateSwapChain configures surface for dc from desc.
func CreateSwapChain(dc *DeviceContext, surface hal.Surface, desc SurfaceDescriptor) (*SwapChain, error) {
	sc := &SwapChain{dc: dc, surface: surface}
	if err := sc.Reconfigure(desc); err != nil {
		return nil, err
	}
	return sc, nil
}

// Reconfigure replaces the chain with one built from desc. A descriptor with
// zero width or height is rejected before touching the surface.
func (sc *SwapChain) Reconfigure(desc SurfaceDescriptor) error {
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height)
	}

	sc.release()
	if err := sc.surface.Configure(sc.dc.device, desc.configuration()); err != nil {
		if errors.Is(err, hal.ErrZeroArea) {
			return fmt.Errorf("%w: %w", ErrInvalidDimensions, err)
		}
		return fmt.Errorf("framecore: configure surface: %w", err)
	}
	sc.desc = desc
	sc.configured = true
	sc.generation++
	return nil
}

// Resize recreates the chain at the new size. It always recreates, even when
// the size is unchanged.
func (sc *SwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	slogger().Debug("framecore: recreating swap chain",
		"from", image.Pt(int(sc.desc.Width), int(sc.desc.Height)),
		"to", image.Pt(int(width), int(height)),
		"generation", sc.generation+1)

	desc := sc.desc
	desc.Width, desc.Height = width, height
	return sc.Reconfigure(desc)
}

// Descriptor returns the descriptor of the live chain.
func (sc *SwapChain) Descriptor() SurfaceDescriptor { return sc.desc }

// Generation counts how many chains have been configured.
func (sc *SwapChain) Generation() uint64 { return sc.generation }

// Configured reports whether a chain is live.
func (sc *SwapChain) Configured() bool { return sc.configured }

// acquire returns the next image, translating hal errors.
func (sc *SwapChain) acquire() (*hal.AcquiredSurfaceTexture, error) {
	if !sc.configured {
		return nil, ErrSurfaceOutdated
	}
	acquired, err := sc.surface.AcquireTexture(nil)
	if err != nil {
		return nil, acquireError(err)
	}
	if acquired == nil || acquired.Texture == nil {
		return nil, ErrAcquireTimeout
	}
	return acquired, nil
}

func (sc *SwapChain) discard(tex hal.SurfaceTexture) {
	sc.surface.DiscardTexture(tex)
}

func (sc *SwapChain) present(queue hal.Queue, tex hal.SurfaceTexture) error {
	if err := queue.Present(sc.surface, tex, nil); err != nil {
		return acquireError(err)
	}
	return nil
}

// release unconfigures the live chain, if any.
func (sc *SwapChain) release() {
	if !sc.configured {
		return
	}
	sc.surface.Unconfigure(sc.dc.device)
	sc.configured = false
}

// Release unconfigures the surface. The SwapChain can be reconfigured later.
func (sc *SwapChain) Release() { sc.release() }
