package framecore

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Initialization errors. Any of these aborts New; nothing partially created
// survives.
var (
	// ErrNoAdapter is returned when no adapter can present to the surface.
	ErrNoAdapter = errors.New("framecore: no compatible adapter")

	// ErrDeviceRequestFailed is returned when the adapter refuses to open a device.
	ErrDeviceRequestFailed = errors.New("framecore: device request failed")

	// ErrShaderCompileFailed is returned when a shader binary is malformed
	// or the backend rejects it.
	ErrShaderCompileFailed = errors.New("framecore: shader compile failed")

	// ErrBackendUnavailable is returned when the requested backend is not
	// registered with the hal registry.
	ErrBackendUnavailable = errors.New("framecore: backend not registered")

	// ErrNilWindow is returned when New is called without a window.
	ErrNilWindow = errors.New("framecore: nil window")
)

// Per-frame errors. The renderer stays usable after any of these except
// ErrSurfaceLost.
var (
	// ErrAcquireTimeout is returned when the swap chain yields no image in time.
	// The frame is skipped; the swap chain is left as it is.
	ErrAcquireTimeout = errors.New("framecore: acquire image timeout")

	// ErrSurfaceOutdated is returned when the swap chain no longer matches
	// the window. Call Resize with the current window size.
	ErrSurfaceOutdated = errors.New("framecore: surface outdated")

	// ErrSurfaceLost is returned when the window surface has been destroyed.
	ErrSurfaceLost = errors.New("framecore: surface lost")

	// ErrVertexOverflow is returned when the serialized vertices do not fit
	// the vertex buffer. Nothing is uploaded.
	ErrVertexOverflow = errors.New("framecore: vertex data exceeds buffer capacity")
)

var (
	// ErrInvalidDimensions is returned for a zero width or height.
	ErrInvalidDimensions = errors.New("framecore: invalid dimensions")

	// ErrClosed is returned by any call made after Close.
	ErrClosed = errors.New("framecore: renderer closed")

	// ErrSnapshotUnsupported is returned by Snapshot when the surface
	// cannot be read back on the CPU.
	ErrSnapshotUnsupported = errors.New("framecore: surface does not support readback")
)

// InitStage names the initialization step that failed.
type InitStage uint8

// Initialization stages in execution order.
const (
	StageInstance InitStage = iota
	StageSurface
	StageAdapter
	StageDevice
	StageSwapChain
	StageShader
	StagePipeline
	StageVertexBuffer
)

func (s InitStage) String() string {
	switch s {
	case StageInstance:
		return "instance"
	case StageSurface:
		return "surface"
	case StageAdapter:
		return "adapter"
	case StageDevice:
		return "device"
	case StageSwapChain:
		return "swap chain"
	case StageShader:
		return "shader"
	case StagePipeline:
		return "pipeline"
	case StageVertexBuffer:
		return "vertex buffer"
	default:
		return "unknown"
	}
}

// InitError reports a failure while bringing the renderer up.
// It unwraps to one of the initialization sentinels and the backend cause.
type InitError struct {
	Stage InitStage
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("framecore: init %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// FrameStage names the step of the frame cycle that failed.
type FrameStage uint8

// Frame stages in execution order.
const (
	FrameSerialize FrameStage = iota
	FrameStaging
	FrameUpload
	FrameAcquire
	FrameRecord
	FrameSubmit
	FramePresent
)

func (s FrameStage) String() string {
	switch s {
	case FrameSerialize:
		return "serialize"
	case FrameStaging:
		return "stage"
	case FrameUpload:
		return "enqueue upload"
	case FrameAcquire:
		return "acquire image"
	case FrameRecord:
		return "record pass"
	case FrameSubmit:
		return "submit"
	case FramePresent:
		return "present"
	default:
		return "unknown"
	}
}

// FrameError reports a failed frame. The renderer's persistent state is
// unchanged; see IsRecoverable for whether rendering may continue.
type FrameError struct {
	Stage FrameStage
	Frame uint64
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("framecore: frame %d %s: %v", e.Frame, e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err is a per-frame failure after which the
// caller may keep rendering, possibly after a Resize.
func IsRecoverable(err error) bool {
	var fe *FrameError
	if !errors.As(err, &fe) {
		return false
	}
	return errors.Is(err, ErrAcquireTimeout) ||
		errors.Is(err, ErrSurfaceOutdated) ||
		errors.Is(err, ErrVertexOverflow)
}

// acquireError maps hal surface errors onto framecore sentinels, keeping the
// backend error in the chain.
func acquireError(err error) error {
	switch {
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		return fmt.Errorf("%w: %w", ErrAcquireTimeout, err)
	case errors.Is(err, hal.ErrSurfaceOutdated):
		return fmt.Errorf("%w: %w", ErrSurfaceOutdated, err)
	case errors.Is(err, hal.ErrSurfaceLost):
		return fmt.Errorf("%w: %w", ErrSurfaceLost, err)
	default:
		return err
	}
}
