package framecore

import (
	"context"
	"fmt"
	"sort"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DeviceContext owns the adapter, logical device and queue. It is created
// once per Renderer and never recreated.
//
// DeviceContext implements gpucontext.DeviceProvider so host frameworks can
// share the device.
type DeviceContext struct {
	adapter hal.Adapter
	device  hal.Device
	queue   hal.Queue
	info    gputypes.AdapterInfo
	caps    hal.SurfaceCapabilities
	format  gputypes.TextureFormat
}

var _ gpucontext.DeviceProvider = (*DeviceContext)(nil)

type deviceResult struct {
	dc  *DeviceContext
	err error
}

// NewDeviceContext selects an adapter able to present to surface and opens a
// device on it. Negotiation runs on its own goroutine; the caller blocks until
// it finishes or ctx is done. A device that completes after cancellation is
// destroyed.
//
// On error, release (if not nil) is called once negotiation no longer uses
// instance and surface. After a cancellation that can be later, on another
// goroutine, so the caller must leave both alive and let release destroy them.
func NewDeviceContext(ctx context.Context, instance hal.Instance, surface hal.Surface, power gputypes.PowerPreference, release func()) (*DeviceContext, error) {
	if release == nil {
		release = func() {}
	}
	if err := ctx.Err(); err != nil {
		release()
		return nil, err
	}

	done := make(chan deviceResult, 1)
	go func() {
		dc, err := openDevice(instance, surface, power)
		done <- deviceResult{dc, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			release()
		}
		return r.dc, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.dc != nil {
				r.dc.Destroy()
			}
			release()
		}()
		return nil, ctx.Err()
	}
}

func openDevice(instance hal.Instance, surface hal.Surface, power gputypes.PowerPreference) (*DeviceContext, error) {
	exposed, caps, ok := selectAdapter(instance.EnumerateAdapters(surface), surface, power)
	if !ok {
		return nil, ErrNoAdapter
	}

	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceRequestFailed, exposed.Info.Name, err)
	}

	slogger().Info("framecore: adapter selected",
		"name", exposed.Info.Name,
		"type", exposed.Info.DeviceType,
		"backend", backendName(exposed.Info.Backend),
		"driver", exposed.Info.Driver)

	return &DeviceContext{
		adapter: exposed.Adapter,
		device:  open.Device,
		queue:   open.Queue,
		info:    exposed.Info,
		caps:    *caps,
	}, nil
}

// selectAdapter keeps the adapters that report surface capabilities and picks
// one by power preference. Ties keep enumeration order.
func selectAdapter(adapters []hal.ExposedAdapter, surface hal.Surface, power gputypes.PowerPreference) (hal.ExposedAdapter, *hal.SurfaceCapabilities, bool) {
	type candidate struct {
		exposed hal.ExposedAdapter
		caps    *hal.SurfaceCapabilities
	}
	var compatible []candidate
	for _, a := range adapters {
		if a.Adapter == nil {
			continue
		}
		caps := a.Adapter.SurfaceCapabilities(surface)
		if caps == nil || len(caps.Formats) == 0 {
			continue
		}
		compatible = append(compatible, candidate{a, caps})
	}
	if len(compatible) == 0 {
		return hal.ExposedAdapter{}, nil, false
	}

	sort.SliceStable(compatible, func(i, j int) bool {
		return deviceRank(compatible[i].exposed.Info.DeviceType, power) <
			deviceRank(compatible[j].exposed.Info.DeviceType, power)
	})
	best := compatible[0]
	return best.exposed, best.caps, true
}

// deviceRank orders device types for a power preference; lower is better.
func deviceRank(t gputypes.DeviceType, power gputypes.PowerPreference) int {
	switch power {
	case gputypes.PowerPreferenceHighPerformance:
		switch t {
		case gputypes.DeviceTypeDiscreteGPU:
			return 0
		case gputypes.DeviceTypeIntegratedGPU:
			return 1
		case gputypes.DeviceTypeVirtualGPU:
			return 2
		case gputypes.DeviceTypeCPU:
			return 4
		}
		return 3
	case gputypes.PowerPreferenceLowPower:
		switch t {
		case gputypes.DeviceTypeIntegratedGPU:
			return 0
		case gputypes.DeviceTypeDiscreteGPU:
			return 1
		case gputypes.DeviceTypeVirtualGPU:
			return 2
		case gputypes.DeviceTypeCPU:
			return 4
		}
		return 3
	default:
		return 0
	}
}

// Destroy waits for the device to go idle and releases it.
func (dc *DeviceContext) Destroy() {
	if dc == nil || dc.device == nil {
		return
	}
	if err := dc.device.WaitIdle(); err != nil {
		slogger().Warn("framecore: wait idle before destroy", "err", err)
	}
	dc.device.Destroy()
	dc.device = nil
	dc.queue = nil
	if dc.adapter != nil {
		dc.adapter.Destroy()
		dc.adapter = nil
	}
}

// HALDevice returns the logical device.
func (dc *DeviceContext) HALDevice() hal.Device { return dc.device }

// HALQueue returns the device queue.
func (dc *DeviceContext) HALQueue() hal.Queue { return dc.queue }

// Info returns the selected adapter's description.
func (dc *DeviceContext) Info() gputypes.AdapterInfo { return dc.info }

// SurfaceCapabilities returns what the adapter supports for the surface it
// was selected against.
func (dc *DeviceContext) SurfaceCapabilities() hal.SurfaceCapabilities { return dc.caps }

// Device implements gpucontext.DeviceProvider. The value is a hal.Device.
func (dc *DeviceContext) Device() gpucontext.Device { return dc.device }

// Queue implements gpucontext.DeviceProvider. The value is a hal.Queue.
func (dc *DeviceContext) Queue() gpucontext.Queue { return dc.queue }

// Adapter implements gpucontext.DeviceProvider. The value is a hal.Adapter.
func (dc *DeviceContext) Adapter() gpucontext.Adapter { return dc.adapter }

// SurfaceFormat implements gpucontext.DeviceProvider.
func (dc *DeviceContext) SurfaceFormat() gputypes.TextureFormat { return dc.format }

// AdapterInfo implements gpucontext.DeviceProvider.
func (dc *DeviceContext) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: dc.info.Name, Type: adapterType(dc.info.DeviceType)}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
