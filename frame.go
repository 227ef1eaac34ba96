package framecore

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// frameResources are the transient objects of one frame. After submission
// they stay alive until the queue reports the submission complete.
type frameResources struct {
	staging hal.Buffer
	view    hal.TextureView
	cmds    []hal.CommandBuffer
}

func (f *frameResources) destroy(device hal.Device) {
	for _, cb := range f.cmds {
		device.FreeCommandBuffer(cb)
	}
	f.cmds = nil
	if f.view != nil {
		device.DestroyTextureView(f.view)
		f.view = nil
	}
	if f.staging != nil {
		device.DestroyBuffer(f.staging)
		f.staging = nil
	}
}

type retired struct {
	submission uint64
	res        frameResources
}

// retireList parks submitted frame resources keyed by submission index.
type retireList struct {
	pending []retired
}

func (l *retireList) park(submission uint64, res frameResources) {
	l.pending = append(l.pending, retired{submission: submission, res: res})
}

// drain destroys every parked entry whose submission has completed.
// Entries are in submission order, so the scan stops at the first
// incomplete one.
func (l *retireList) drain(completed uint64, device hal.Device) int {
	n := 0
	for n < len(l.pending) && l.pending[n].submission <= completed {
		l.pending[n].res.destroy(device)
		n++
	}
	l.pending = append(l.pending[:0], l.pending[n:]...)
	return n
}

// drainAll destroys every parked entry. The device must be idle.
func (l *retireList) drainAll(device hal.Device) {
	for i := range l.pending {
		l.pending[i].res.destroy(device)
	}
	l.pending = nil
}

func (l *retireList) len() int { return len(l.pending) }

// stageImage builds the bytes the upload will copy: the previous image with
// data laid over its head. With zeroTail set, bytes past data are cleared.
func stageImage(prev *[VertexBufferCapacity]byte, data []byte, zeroTail bool) [VertexBufferCapacity]byte {
	img := *prev
	n := copy(img[:], data)
	if zeroTail {
		clear(img[n:])
	}
	return img
}

// frame runs one pass of the render cycle. It is called with r.mu held.
func (r *Renderer) frame(index uint64, data []byte) (err error) {
	device, queue := r.dc.HALDevice(), r.dc.HALQueue()
	fail := func(stage FrameStage, e error) error {
		return &FrameError{Stage: stage, Frame: index, Err: e}
	}

	if len(data) > VertexBufferCapacity {
		return fail(FrameSerialize, fmt.Errorf("%w: %d bytes, capacity is %d",
			ErrVertexOverflow, len(data), VertexBufferCapacity))
	}

	r.retire.drain(queue.PollCompleted(), device)

	var res frameResources
	submitted := false
	defer func() {
		if !submitted {
			res.destroy(device)
		}
	}()

	// Stage.
	img := stageImage(&r.mirror, data, r.opts.zeroStaleTail)
	res.staging, err = r.createStaging(img[:])
	if err != nil {
		return fail(FrameStaging, err)
	}

	// Enqueue upload.
	upload, err := r.recordUpload(res.staging)
	if err != nil {
		return fail(FrameUpload, err)
	}
	res.cmds = append(res.cmds, upload)

	// Acquire image.
	acquired, err := r.swap.acquire()
	if err != nil {
		return fail(FrameAcquire, err)
	}
	if acquired.Suboptimal {
		slogger().Debug("framecore: suboptimal swap chain image", "frame", index)
	}
	presented := false
	defer func() {
		if !presented {
			r.swap.discard(acquired.Texture)
		}
	}()

	// Record pass.
	res.view, err = device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:           r.opts.label + " frame view",
		Format:          r.swap.desc.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fail(FrameRecord, fmt.Errorf("create texture view: %w", err))
	}
	render, err := r.recordPass(res.view)
	if err != nil {
		return fail(FrameRecord, err)
	}
	res.cmds = append(res.cmds, render)

	// Submit: upload first, then render, in one call.
	submission, err := queue.Submit([]hal.CommandBuffer{upload, render})
	if err != nil {
		return fail(FrameSubmit, err)
	}
	r.retire.park(submission, res)
	submitted = true
	r.mirror = img

	presented = true
	if err := r.swap.present(queue, acquired.Texture); err != nil {
		return fail(FramePresent, err)
	}

	slogger().Debug("framecore: frame submitted",
		"frame", index, "bytes", len(data), "submission", submission, "in_flight", r.retire.len())
	return nil
}

// createStaging creates a mappable buffer holding img.
func (r *Renderer) createStaging(img []byte) (hal.Buffer, error) {
	device := r.dc.HALDevice()
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: r.opts.label + " staging",
		Size:  VertexBufferCapacity,
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}

	m, err := device.MapBuffer(buf, 0, VertexBufferCapacity)
	if err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	if !m.IsCoherent {
		slogger().Debug("framecore: staging memory is not host-coherent")
	}
	copy(unsafe.Slice((*byte)(m.Ptr), VertexBufferCapacity), img)
	if err := device.UnmapBuffer(buf); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return buf, nil
}

// recordUpload records the full-capacity copy from staging into the vertex
// buffer.
func (r *Renderer) recordUpload(staging hal.Buffer) (hal.CommandBuffer, error) {
	enc, err := r.dc.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: r.opts.label + " upload encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create upload encoder: %w", err)
	}
	if err := enc.BeginEncoding(r.opts.label + " upload"); err != nil {
		enc.DiscardEncoding()
		return nil, fmt.Errorf("begin upload encoding: %w", err)
	}

	enc.CopyBufferToBuffer(staging, r.vertexBuffer, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: VertexBufferCapacity},
	})

	cb, err := enc.EndEncoding()
	if err != nil {
		enc.DiscardEncoding()
		return nil, fmt.Errorf("end upload encoding: %w", err)
	}
	return cb, nil
}

// recordPass records the render pass: clear, bind, draw six vertices.
func (r *Renderer) recordPass(view hal.TextureView) (hal.CommandBuffer, error) {
	enc, err := r.dc.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: r.opts.label + " render encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create render encoder: %w", err)
	}
	if err := enc.BeginEncoding(r.opts.label + " render"); err != nil {
		enc.DiscardEncoding()
		return nil, fmt.Errorf("begin render encoding: %w", err)
	}

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: r.opts.label + " pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: r.opts.clearColor,
			},
		},
	})
	pass.SetPipeline(r.pipeline.pipeline)
	pass.SetVertexBuffer(0, r.vertexBuffer, 0)
	pass.Draw(DrawVertexCount, 1, 0, 0)
	pass.End()

	cb, err := enc.EndEncoding()
	if err != nil {
		enc.DiscardEncoding()
		return nil, fmt.Errorf("end render encoding: %w", err)
	}
	return cb, nil
}
