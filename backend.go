package framecore

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ParseBackend maps a backend name to its hal variant. The software
// rasterizer registers as gputypes.BackendEmpty.
func ParseBackend(name string) (gputypes.Backend, error) {
	switch strings.ToLower(name) {
	case "vulkan", "vk":
		return gputypes.BackendVulkan, nil
	case "metal", "mtl":
		return gputypes.BackendMetal, nil
	case "dx12", "d3d12":
		return gputypes.BackendDX12, nil
	case "gl", "gles", "opengl":
		return gputypes.BackendGL, nil
	case "software", "cpu":
		return gputypes.BackendEmpty, nil
	}
	return gputypes.BackendEmpty, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, name)
}

// backendPriority orders automatic selection: native APIs first, the
// software rasterizer last.
var backendPriority = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// resolveBackends returns the registered backends to try, in order.
func resolveBackends(name string) ([]hal.Backend, error) {
	if name != "" {
		variant, err := ParseBackend(name)
		if err != nil {
			return nil, err
		}
		b, ok := hal.GetBackend(variant)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, name)
		}
		return []hal.Backend{b}, nil
	}

	registered := hal.AvailableBackends()
	var out []hal.Backend
	for _, v := range backendPriority {
		if !slices.Contains(registered, v) {
			continue
		}
		if b, ok := hal.GetBackend(v); ok {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none registered", ErrBackendUnavailable)
	}
	return out, nil
}

// backendName is the inverse of ParseBackend, for logs.
func backendName(v gputypes.Backend) string {
	if v == gputypes.BackendEmpty {
		return "software"
	}
	return strings.ToLower(v.String())
}
