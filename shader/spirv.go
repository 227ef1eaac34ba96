package shader

import (
	"encoding/binary"
	"fmt"
)

const (
	spirvMagic       = 0x07230203
	spirvHeaderWords = 5
	opEntryPoint     = 15
)

// Words converts a SPIR-V byte stream into little-endian 32-bit words, the
// form hal.ShaderSource expects.
func Words(code []byte) ([]uint32, error) {
	if len(code)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformed, len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

// Validate checks that code is a SPIR-V module with an OpEntryPoint named
// "main" for the given stage. It does not validate the module semantically;
// the driver does that when the module is created.
func Validate(code []byte, stage Stage) error {
	words, err := Words(code)
	if err != nil {
		return err
	}
	if len(words) < spirvHeaderWords {
		return fmt.Errorf("%w: %d words, header needs %d", ErrMalformed, len(words), spirvHeaderWords)
	}
	if words[0] != spirvMagic {
		return fmt.Errorf("%w: magic 0x%08X", ErrMalformed, words[0])
	}

	model := stage.executionModel()
	for i := spirvHeaderWords; i < len(words); {
		count := int(words[i] >> 16)
		op := words[i] & 0xFFFF
		if count == 0 || i+count > len(words) {
			return fmt.Errorf("%w: bad instruction at word %d", ErrMalformed, i)
		}
		// OpEntryPoint: model, function id, name literal, interface ids...
		if op == opEntryPoint && count >= 4 && words[i+1] == model {
			if literalString(words[i+3:i+count]) == EntryPoint {
				return nil
			}
		}
		i += count
	}
	return fmt.Errorf("%w: no %s entry point %q", ErrNoEntryPoint, stage, EntryPoint)
}

// literalString decodes a nul-terminated SPIR-V literal packed into words.
func literalString(words []uint32) string {
	var buf []byte
	for _, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return string(buf)
			}
			buf = append(buf, c)
		}
	}
	return string(buf)
}
