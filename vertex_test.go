package framecore

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

func TestVertexLayoutMatchesEncoding(t *testing.T) {
	layouts := vertexLayout()
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != VertexStride {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, VertexStride)
	}
	var end uint64
	for _, a := range l.Attributes {
		if e := a.Offset + a.Format.Size(); e > end {
			end = e
		}
		if a.Format != gputypes.VertexFormatFloat32x3 {
			t.Errorf("location %d format = %v, want Float32x3", a.ShaderLocation, a.Format)
		}
	}
	if end != VertexStride {
		t.Errorf("attributes end at %d, want %d", end, VertexStride)
	}
}

func TestVertexBytesEncoding(t *testing.T) {
	in := []Vertex{
		V(-0.5, 0.25, 1, 0, 0),
		{Position: f32.Vec3{1, -1, 0.5}, Color: f32.Vec3{0.1, 0.2, 0.3}},
	}
	b, err := VertexBytes(in)
	if err != nil {
		t.Fatalf("VertexBytes: %v", err)
	}
	if len(b) != 2*VertexStride {
		t.Fatalf("len = %d, want %d", len(b), 2*VertexStride)
	}
	for i := range in {
		if got := readVertex(b[i*VertexStride:]); got != in[i] {
			t.Errorf("vertex %d = %+v, want %+v", i, got, in[i])
		}
	}
	// Little-endian 1.0f at the red channel of vertex 0.
	if b[12] != 0x00 || b[13] != 0x00 || b[14] != 0x80 || b[15] != 0x3f {
		t.Errorf("red channel bytes = % x, want 00 00 80 3f", b[12:16])
	}
}

func TestVertexBytesCapacity(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{0, false},
		{DrawVertexCount, false},
		{MaxVertices, false},
		{MaxVertices + 1, true},
	}
	for _, tt := range tests {
		b, err := VertexBytes(make([]Vertex, tt.n))
		if tt.wantErr {
			if !errors.Is(err, ErrVertexOverflow) {
				t.Errorf("n=%d: err = %v, want ErrVertexOverflow", tt.n, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("n=%d: unexpected error %v", tt.n, err)
		}
		if len(b) != tt.n*VertexStride {
			t.Errorf("n=%d: len = %d", tt.n, len(b))
		}
	}
}

func TestQuadWinding(t *testing.T) {
	q := Quad(-0.5, -0.5, 0.5, 0.5, f32.Vec3{1, 0, 0})
	if len(q) != DrawVertexCount {
		t.Fatalf("Quad returned %d vertices, want %d", len(q), DrawVertexCount)
	}
	for tri := 0; tri < 2; tri++ {
		a, b, c := q[tri*3].Position, q[tri*3+1].Position, q[tri*3+2].Position
		area := (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
		if area <= 0 {
			t.Errorf("triangle %d is not counter-clockwise (area %v)", tri, area)
		}
	}
}

// readVertex decodes one record written by writeVertex.
func readVertex(buf []byte) Vertex {
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	return Vertex{
		Position: f32.Vec3{f(0), f(4), f(8)},
		Color:    f32.Vec3{f(12), f(16), f(20)},
	}
}
