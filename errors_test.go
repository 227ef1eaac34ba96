package framecore

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/wgpu/hal"
)

func TestAcquireErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"timeout", hal.ErrTimeout, ErrAcquireTimeout},
		{"not ready", hal.ErrNotReady, ErrAcquireTimeout},
		{"outdated", hal.ErrSurfaceOutdated, ErrSurfaceOutdated},
		{"lost", hal.ErrSurfaceLost, ErrSurfaceLost},
		{"wrapped timeout", fmt.Errorf("vulkan: %w", hal.ErrTimeout), ErrAcquireTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := acquireError(tt.in)
			if !errors.Is(got, tt.want) {
				t.Errorf("acquireError(%v) = %v, want %v in chain", tt.in, got, tt.want)
			}
			if !errors.Is(got, tt.in) {
				t.Errorf("acquireError(%v) dropped the backend error", tt.in)
			}
		})
	}

	other := errors.New("driver exploded")
	if got := acquireError(other); got != other {
		t.Errorf("unknown errors should pass through, got %v", got)
	}
}

func TestIsRecoverable(t *testing.T) {
	frame := func(err error) error { return &FrameError{Stage: FrameAcquire, Frame: 3, Err: err} }

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", frame(ErrAcquireTimeout), true},
		{"outdated", frame(ErrSurfaceOutdated), true},
		{"overflow", frame(ErrVertexOverflow), true},
		{"lost", frame(ErrSurfaceLost), false},
		{"bare sentinel", ErrAcquireTimeout, false},
		{"init error", &InitError{Stage: StageAdapter, Err: ErrNoAdapter}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.want {
				t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestInitErrorUnwrap(t *testing.T) {
	cause := errors.New("vkCreateDevice failed")
	err := &InitError{Stage: StageDevice, Err: fmt.Errorf("%w: %w", ErrDeviceRequestFailed, cause)}

	if !errors.Is(err, ErrDeviceRequestFailed) {
		t.Error("InitError should unwrap to ErrDeviceRequestFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("InitError should unwrap to the backend cause")
	}
	if !strings.Contains(err.Error(), "init device") {
		t.Errorf("Error() = %q, want stage name", err.Error())
	}

	var ie *InitError
	if !errors.As(fmt.Errorf("startup: %w", err), &ie) || ie.Stage != StageDevice {
		t.Error("errors.As should find the InitError through wrapping")
	}
}

func TestStageStrings(t *testing.T) {
	for s := StageInstance; s <= StageVertexBuffer; s++ {
		if s.String() == "unknown" {
			t.Errorf("InitStage(%d) has no name", s)
		}
	}
	for s := FrameSerialize; s <= FramePresent; s++ {
		if s.String() == "unknown" {
			t.Errorf("FrameStage(%d) has no name", s)
		}
	}
	if InitStage(200).String() != "unknown" || FrameStage(200).String() != "unknown" {
		t.Error("out of range stages should be unknown")
	}
}
