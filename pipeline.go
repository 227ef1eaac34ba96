package framecore

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore/shader"
)

// Pipeline is the fixed render pipeline: pass-through vertex stage, flat
// color fragment stage, triangle list, back-face culling, no depth, no
// blending beyond replace. It is built once against the swap chain format.
type Pipeline struct {
	device   hal.Device
	vertex   hal.ShaderModule
	fragment hal.ShaderModule
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline
	format   gputypes.TextureFormat
}

// NewPipeline validates bundle and builds the pipeline for format.
// Shader problems are reported as ErrShaderCompileFailed.
func NewPipeline(dc *DeviceContext, bundle *shader.Bundle, format gputypes.TextureFormat, label string) (_ *Pipeline, err error) {
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompileFailed, err)
	}

	p := &Pipeline{device: dc.device, format: format}
	defer func() {
		if err != nil {
			p.Destroy()
		}
	}()

	if p.vertex, err = createShaderModule(dc.device, label+" vertex", bundle.Vertex); err != nil {
		return nil, err
	}
	if p.fragment, err = createShaderModule(dc.device, label+" fragment", bundle.Fragment); err != nil {
		return nil, err
	}

	p.layout, err = dc.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: label + " layout",
	})
	if err != nil {
		return nil, fmt.Errorf("framecore: create pipeline layout: %w", err)
	}

	p.pipeline, err = dc.device.CreateRenderPipeline(pipelineDescriptor(label, p.layout, p.vertex, p.fragment, format))
	if err != nil {
		return nil, fmt.Errorf("framecore: create render pipeline: %w", err)
	}
	return p, nil
}

func createShaderModule(device hal.Device, label string, code []byte) (hal.ShaderModule, error) {
	words, err := shader.Words(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrShaderCompileFailed, label, err)
	}
	m, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrShaderCompileFailed, label, err)
	}
	return m, nil
}

// pipelineDescriptor holds the fixed pipeline state.
func pipelineDescriptor(label string, layout hal.PipelineLayout, vs, fs hal.ShaderModule, format gputypes.TextureFormat) *hal.RenderPipelineDescriptor {
	stripIndex := gputypes.IndexFormatUint32
	blend := gputypes.BlendStateReplace()
	return &hal.RenderPipelineDescriptor{
		Label:  label + " pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     vs,
			EntryPoint: shader.EntryPoint,
			Buffers:    vertexLayout(),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:         gputypes.PrimitiveTopologyTriangleList,
			StripIndexFormat: &stripIndex,
			FrontFace:        gputypes.FrontFaceCCW,
			CullMode:         gputypes.CullModeBack,
		},
		DepthStencil: nil,
		Multisample: gputypes.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
		Fragment: &hal.FragmentState{
			Module:     fs,
			EntryPoint: shader.EntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
	}
}

// Format returns the color target format the pipeline was built for.
func (p *Pipeline) Format() gputypes.TextureFormat { return p.format }

// Destroy releases the pipeline and its shader modules.
func (p *Pipeline) Destroy() {
	if p == nil || p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		p.device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.fragment != nil {
		p.device.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
	if p.vertex != nil {
		p.device.DestroyShaderModule(p.vertex)
		p.vertex = nil
	}
}
