package framecore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"
)

// VertexBufferCapacity is the fixed size in bytes of the persistent vertex
// buffer. Every frame's upload copies exactly this many bytes.
const VertexBufferCapacity = 1024

// VertexStride is the byte stride per vertex.
// Layout per vertex:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	color    (vec3<f32>) = 12 bytes (location 1)
//
// Total = 24 bytes per vertex.
const VertexStride = 24

// MaxVertices is the largest vertex count that fits the vertex buffer.
const MaxVertices = VertexBufferCapacity / VertexStride

// DrawVertexCount is the fixed vertex range of the single draw call: two
// triangles.
const DrawVertexCount = 6

// Vertex is one record of the vertex stream. Position is in clip space
// (x and y in [-1, 1], y up); Color is linear RGB in [0, 1].
type Vertex struct {
	Position f32.Vec3
	Color    f32.Vec3
}

// V is shorthand for a vertex at (x, y, 0) with color (r, g, b).
func V(x, y, r, g, b float32) Vertex {
	return Vertex{Position: f32.Vec3{x, y, 0}, Color: f32.Vec3{r, g, b}}
}

// vertexLayout returns the pipeline's vertex buffer layout. It must agree
// with writeVertex byte for byte.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // color
			},
		},
	}
}

// AppendVertexBytes appends the little-endian encoding of vertices to dst.
func AppendVertexBytes(dst []byte, vertices []Vertex) []byte {
	for i := range vertices {
		var rec [VertexStride]byte
		writeVertex(rec[:], &vertices[i])
		dst = append(dst, rec[:]...)
	}
	return dst
}

// VertexBytes serializes vertices into a new byte slice. It returns
// ErrVertexOverflow if the result would not fit the vertex buffer.
func VertexBytes(vertices []Vertex) ([]byte, error) {
	if n := len(vertices) * VertexStride; n > VertexBufferCapacity {
		return nil, fmt.Errorf("%w: %d vertices need %d bytes, capacity is %d",
			ErrVertexOverflow, len(vertices), n, VertexBufferCapacity)
	}
	return AppendVertexBytes(make([]byte, 0, len(vertices)*VertexStride), vertices), nil
}

func writeVertex(buf []byte, v *Vertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Color[2]))
}

// Quad returns the six vertices of two counter-clockwise triangles covering
// the axis-aligned rectangle from (x0, y0) to (x1, y1) in clip space.
func Quad(x0, y0, x1, y1 float32, color f32.Vec3) []Vertex {
	v := func(x, y float32) Vertex { return Vertex{Position: f32.Vec3{x, y, 0}, Color: color} }
	return []Vertex{
		v(x0, y0), v(x1, y0), v(x1, y1),
		v(x0, y0), v(x1, y1), v(x0, y1),
	}
}
