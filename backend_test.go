package framecore

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want gputypes.Backend
	}{
		{"vulkan", gputypes.BackendVulkan},
		{"VK", gputypes.BackendVulkan},
		{"metal", gputypes.BackendMetal},
		{"dx12", gputypes.BackendDX12},
		{"d3d12", gputypes.BackendDX12},
		{"gles", gputypes.BackendGL},
		{"OpenGL", gputypes.BackendGL},
		{"software", gputypes.BackendEmpty},
		{"cpu", gputypes.BackendEmpty},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if err != nil {
			t.Errorf("ParseBackend(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "glide", "directx"} {
		if _, err := ParseBackend(bad); !errors.Is(err, ErrBackendUnavailable) {
			t.Errorf("ParseBackend(%q) err = %v, want ErrBackendUnavailable", bad, err)
		}
	}
}

func TestBackendNameRoundTrip(t *testing.T) {
	for _, v := range backendPriority {
		got, err := ParseBackend(backendName(v))
		if err != nil {
			t.Errorf("backendName(%v) = %q does not parse: %v", v, backendName(v), err)
			continue
		}
		if got != v {
			t.Errorf("round trip of %v gave %v", v, got)
		}
	}
}

func TestResolveBackendsSoftwareLast(t *testing.T) {
	// The test binary links the software rasterizer, so at least the empty
	// backend is registered.
	backends, err := resolveBackends("")
	if err != nil {
		t.Fatalf("resolveBackends: %v", err)
	}
	if last := backends[len(backends)-1].Variant(); last != gputypes.BackendEmpty {
		t.Errorf("last backend = %v, want the software rasterizer", last)
	}

	if _, err := resolveBackends("glide"); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("unknown name: err = %v", err)
	}
}
