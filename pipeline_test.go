package framecore

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/framecore/shader"
)

func TestPipelineDescriptor(t *testing.T) {
	d := pipelineDescriptor("test", nil, nil, nil, gputypes.TextureFormatBGRA8Unorm)

	if d.Label != "test pipeline" {
		t.Errorf("Label = %q", d.Label)
	}
	if d.Vertex.EntryPoint != shader.EntryPoint || d.Fragment.EntryPoint != shader.EntryPoint {
		t.Errorf("entry points = %q, %q", d.Vertex.EntryPoint, d.Fragment.EntryPoint)
	}
	if len(d.Vertex.Buffers) != 1 || d.Vertex.Buffers[0].ArrayStride != VertexStride {
		t.Errorf("vertex buffers = %+v", d.Vertex.Buffers)
	}

	p := d.Primitive
	if p.Topology != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("Topology = %v", p.Topology)
	}
	if p.FrontFace != gputypes.FrontFaceCCW || p.CullMode != gputypes.CullModeBack {
		t.Errorf("FrontFace = %v, CullMode = %v", p.FrontFace, p.CullMode)
	}
	if d.DepthStencil != nil {
		t.Error("pipeline has a depth-stencil state")
	}
	if d.Multisample.Count != 1 || d.Multisample.Mask != 0xFFFFFFFF || d.Multisample.AlphaToCoverageEnabled {
		t.Errorf("Multisample = %+v", d.Multisample)
	}

	if len(d.Fragment.Targets) != 1 {
		t.Fatalf("%d color targets, want 1", len(d.Fragment.Targets))
	}
	target := d.Fragment.Targets[0]
	if target.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("target format = %v", target.Format)
	}
	if target.Blend == nil || *target.Blend != gputypes.BlendStateReplace() {
		t.Errorf("Blend = %+v, want replace", target.Blend)
	}
	if target.WriteMask != gputypes.ColorWriteMaskAll {
		t.Errorf("WriteMask = %v", target.WriteMask)
	}
}

func TestDestroyNilPipeline(t *testing.T) {
	var p *Pipeline
	p.Destroy()
	(&Pipeline{}).Destroy()
}
