package shader

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// module assembles a minimal SPIR-V stream: header plus one OpEntryPoint.
func module(t *testing.T, model uint32, name string) []byte {
	t.Helper()

	// Name literal, nul-terminated and padded to a word boundary.
	lit := append([]byte(name), 0)
	for len(lit)%4 != 0 {
		lit = append(lit, 0)
	}
	count := 3 + len(lit)/4

	words := []uint32{spirvMagic, 0x00010300, 0, 16, 0}
	words = append(words, uint32(count)<<16|opEntryPoint, model, 1)
	for i := 0; i < len(lit); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(lit[i:]))
	}

	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		stage Stage
		want  error
	}{
		{"vertex main", module(t, 0, "main"), StageVertex, nil},
		{"fragment main", module(t, 4, "main"), StageFragment, nil},
		{"wrong model", module(t, 4, "main"), StageVertex, ErrNoEntryPoint},
		{"wrong name", module(t, 0, "vs_main"), StageVertex, ErrNoEntryPoint},
		{"empty", nil, StageVertex, ErrMalformed},
		{"unaligned", []byte{0x03, 0x02, 0x23}, StageVertex, ErrMalformed},
		{"bad magic", make([]byte, 20), StageVertex, ErrMalformed},
		{"truncated instruction", module(t, 0, "main")[:24], StageVertex, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.code, tt.stage)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLiteralString(t *testing.T) {
	// "main" fills a whole word; the terminator lives in the next one.
	words := []uint32{0x6E69616D, 0}
	if got := literalString(words); got != "main" {
		t.Errorf("literalString = %q, want main", got)
	}
}

func TestWords(t *testing.T) {
	w, err := Words([]byte{0x03, 0x02, 0x23, 0x07, 0x01, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("Words: %v", err)
	}
	if len(w) != 2 || w[0] != spirvMagic || w[1] != 1 {
		t.Errorf("Words = %#x", w)
	}
}

func TestDefaultBundle(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("default bundle invalid: %v", err)
	}

	again, _ := Default()
	if again != b {
		t.Error("Default should compile once and return the same bundle")
	}
}

func TestBundleValidateNamesStage(t *testing.T) {
	b := &Bundle{Vertex: module(t, 0, "main"), Fragment: module(t, 0, "main")}
	err := b.Validate()
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Fatalf("Validate() = %v, want ErrNoEntryPoint", err)
	}
	if got := err.Error(); got[:9] != "fragment:" {
		t.Errorf("error %q should name the fragment stage", got)
	}

	var nilBundle *Bundle
	if !errors.Is(nilBundle.Validate(), ErrMalformed) {
		t.Error("nil bundle should be malformed")
	}
}

func TestCompileRejectsBadWGSL(t *testing.T) {
	if _, err := Compile("fn main( {", fragmentWGSL); err == nil {
		t.Error("Compile accepted broken vertex source")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	vs := filepath.Join(dir, "v.spv")
	fs := filepath.Join(dir, "f.spv")
	if err := os.WriteFile(vs, module(t, 0, "main"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fs, module(t, 4, "main"), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := Load(vs, fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Vertex) == 0 || len(b.Fragment) == 0 {
		t.Error("Load returned empty binaries")
	}

	if _, err := Load(vs, filepath.Join(dir, "missing.spv")); err == nil {
		t.Error("Load should fail for a missing file")
	}
	if _, err := Load(fs, vs); !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("swapped stages: err = %v, want ErrNoEntryPoint", err)
	}
}
