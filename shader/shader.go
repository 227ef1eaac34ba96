// Package shader provides the compiled shader binaries used by the frame
// renderer's fixed pipeline.
//
// A Bundle holds two SPIR-V modules, each exposing an entry point named
// "main": one for the vertex stage, one for the fragment stage. The default
// bundle is compiled once from embedded WGSL with naga. Callers that ship
// precompiled binaries load them with Load or build a Bundle directly.
package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gogpu/naga"
)

//go:embed shaders/triangle.vert.wgsl
var vertexWGSL string

//go:embed shaders/triangle.frag.wgsl
var fragmentWGSL string

// EntryPoint is the entry point name both stages must export.
const EntryPoint = "main"

var (
	// ErrMalformed is returned for a blob that is not a SPIR-V module.
	ErrMalformed = errors.New("shader: malformed SPIR-V")

	// ErrNoEntryPoint is returned when a module lacks a "main" entry point
	// for the expected stage.
	ErrNoEntryPoint = errors.New("shader: missing entry point")
)

// Stage identifies a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// executionModel returns the SPIR-V ExecutionModel operand for the stage.
func (s Stage) executionModel() uint32 {
	if s == StageFragment {
		return 4
	}
	return 0
}

// Bundle is a pair of SPIR-V binaries. It is immutable once built.
type Bundle struct {
	Vertex   []byte
	Fragment []byte
}

// Validate checks both binaries.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", ErrMalformed)
	}
	if err := Validate(b.Vertex, StageVertex); err != nil {
		return fmt.Errorf("vertex: %w", err)
	}
	if err := Validate(b.Fragment, StageFragment); err != nil {
		return fmt.Errorf("fragment: %w", err)
	}
	return nil
}

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
	defaultErr    error
)

// Default returns the built-in bundle: a pass-through vertex stage taking
// position at location 0 and color at location 1, and a fragment stage that
// writes the interpolated color with alpha 1. Compilation happens once.
func Default() (*Bundle, error) {
	defaultOnce.Do(func() {
		defaultBundle, defaultErr = Compile(vertexWGSL, fragmentWGSL)
	})
	return defaultBundle, defaultErr
}

// Compile compiles two WGSL sources to SPIR-V and validates the result.
func Compile(vertexSource, fragmentSource string) (*Bundle, error) {
	vs, err := naga.Compile(vertexSource)
	if err != nil {
		return nil, fmt.Errorf("shader: compile vertex: %w", err)
	}
	fs, err := naga.Compile(fragmentSource)
	if err != nil {
		return nil, fmt.Errorf("shader: compile fragment: %w", err)
	}
	b := &Bundle{Vertex: vs, Fragment: fs}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads precompiled SPIR-V binaries from disk.
func Load(vertexPath, fragmentPath string) (*Bundle, error) {
	vs, err := os.ReadFile(vertexPath)
	if err != nil {
		return nil, fmt.Errorf("shader: %w", err)
	}
	fs, err := os.ReadFile(fragmentPath)
	if err != nil {
		return nil, fmt.Errorf("shader: %w", err)
	}
	b := &Bundle{Vertex: vs, Fragment: fs}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
