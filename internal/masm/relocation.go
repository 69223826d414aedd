package masm

import (
	"encoding/binary"
	"fmt"
)

// RelocKind says how a relocation field is interpreted
type RelocKind int

const (
	// RelocRelative is a rel32 field, already patched inside the buffer
	RelocRelative RelocKind = iota
	// RelocAbsolute is an imm64 field that receives base + target on install
	RelocAbsolute
)

func (k RelocKind) String() string {
	if k == RelocAbsolute {
		return "abs64"
	}
	return "rel32"
}

// Relocation records one reference from code to a code position
type Relocation struct {
	Offset int // byte offset of the field
	Target int // byte offset the field refers to
	Kind   RelocKind
	label  *Label
}

func (r Relocation) String() string {
	return fmt.Sprintf("%s @%d -> %d", r.Kind, r.Offset, r.Target)
}

// Relocations returns the resolved relocation table
func (m *Masm) Relocations() []Relocation {
	out := make([]Relocation, 0, len(m.relocs))
	for _, r := range m.relocs {
		r.Target = r.label.Pos()
		out = append(out, r)
	}
	return out
}

// ApplyRelocations writes absolute addresses into code placed at base
func ApplyRelocations(code []byte, base uintptr, relocs []Relocation) error {
	for _, r := range relocs {
		if r.Kind != RelocAbsolute {
			continue
		}
		if r.Target < 0 {
			return fmt.Errorf("relocation at %d is unresolved", r.Offset)
		}
		if r.Offset < 0 || r.Offset+8 > len(code) {
			return fmt.Errorf("relocation at %d outside %d bytes of code", r.Offset, len(code))
		}
		binary.LittleEndian.PutUint64(code[r.Offset:], uint64(base)+uint64(r.Target))
	}
	return nil
}
