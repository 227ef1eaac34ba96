package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/framecore"
)

// Scene is the vertex list loaded from a TOML file:
//
//	[[quad]]
//	min = [-0.5, -0.5]
//	max = [0.5, 0.5]
//	color = [1.0, 0.0, 0.0]
//
//	[[vertex]]
//	position = [0.0, 0.8, 0.0]
//	color = [0.0, 1.0, 0.0]
//
// Quads come first, then loose vertices, in file order.
type Scene struct {
	Quads    []sceneQuad   `toml:"quad"`
	Vertices []sceneVertex `toml:"vertex"`
}

type sceneQuad struct {
	Min   [2]float32 `toml:"min"`
	Max   [2]float32 `toml:"max"`
	Color [3]float32 `toml:"color"`
}

type sceneVertex struct {
	Position [3]float32 `toml:"position"`
	Color    [3]float32 `toml:"color"`
}

// defaultScene is two red triangles forming a centered quad.
func defaultScene() []framecore.Vertex {
	return framecore.Quad(-0.5, -0.5, 0.5, 0.5, f32.Vec3{1, 0, 0})
}

func loadScene(path string) ([]framecore.Vertex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return decodeScene(bytes.NewReader(data))
}

func decodeScene(r io.Reader) ([]framecore.Vertex, error) {
	var s Scene
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	var out []framecore.Vertex
	for _, q := range s.Quads {
		out = append(out, framecore.Quad(q.Min[0], q.Min[1], q.Max[0], q.Max[1], f32.Vec3(q.Color))...)
	}
	for _, v := range s.Vertices {
		out = append(out, framecore.Vertex{Position: f32.Vec3(v.Position), Color: f32.Vec3(v.Color)})
	}
	if len(out) > framecore.MaxVertices {
		return nil, fmt.Errorf("%w: scene has %d vertices, at most %d fit",
			framecore.ErrVertexOverflow, len(out), framecore.MaxVertices)
	}
	return out, nil
}
