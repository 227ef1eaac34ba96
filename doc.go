// Package framecore is a minimal real-time rendering core built on the
// gogpu/wgpu hardware abstraction layer.
//
// # Overview
//
// framecore owns one graphics device, one presentable surface, one fixed
// render pipeline and one 1024-byte vertex buffer. Every frame it uploads the
// caller's vertices through a fresh staging buffer, copies them into the
// persistent vertex buffer, acquires the next swap chain image, clears it and
// draws six vertices, then submits the upload and the render work in that
// order and presents the image.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/framecore"
//	    _ "github.com/gogpu/wgpu/hal/allbackends"
//	)
//
//	r, err := framecore.New(ctx, window, framecore.WithBackend("vulkan"))
//	if err != nil {
//	    return err // ErrNoAdapter, ErrShaderCompileFailed, ...
//	}
//	defer r.Close()
//
//	for running {
//	    err := r.Render(vertices)
//	    switch {
//	    case errors.Is(err, framecore.ErrAcquireTimeout):
//	        continue // skip this frame
//	    case errors.Is(err, framecore.ErrSurfaceOutdated):
//	        _ = r.ResizeToWindow()
//	    case err != nil:
//	        return err
//	    }
//	}
//
// # Frame Lifecycle
//
// A frame runs through six strictly sequential stages: serialize, stage,
// enqueue upload, acquire image, record pass and submit. Only one frame is in
// flight. A failed frame reports a [*FrameError] and leaves the pipeline, the
// vertex buffer and the device untouched.
//
// # Stale Tail
//
// The upload always copies the full buffer capacity. Bytes past the current
// frame's vertex data keep the previous frame's contents unless
// [WithZeroStaleTail] is set.
//
// # Backends
//
// Backends register with the hal registry by blank import. Tests and headless
// capture use the CPU backend from github.com/gogpu/wgpu/hal/software.
package framecore

// Version is the current version of the library.
const Version = "0.1.0"
