package masm

import "github.com/xyproto/lirjit/internal/engine"

// Label is a code position that may be referenced before it is known.
// Unresolved references are kept as pending uses and patched on Bind.
type Label struct {
	pos  int
	uses []int // offsets of rel32 fields waiting for the position
}

// NewLabel returns an unbound label
func NewLabel() *Label { return &Label{pos: -1} }

// Bound reports whether the label has a position
func (l *Label) Bound() bool { return l.pos >= 0 }

// Pos returns the bound position, -1 if unbound
func (l *Label) Pos() int { return l.pos }

// Pending returns the number of uses waiting for Bind
func (l *Label) Pending() int { return len(l.uses) }

// Bind fixes the label at the current offset and patches pending jumps
func (m *Masm) Bind(l *Label) {
	if l.Bound() {
		engine.Fatalf(engine.CategoryCodegen, "label bound twice (at %d and %d)", l.pos, m.Offset())
	}
	l.pos = m.Offset()
	for _, at := range l.uses {
		m.patchRel32(at, l.pos)
	}
	l.uses = nil
}

func (m *Masm) patchRel32(at, target int) {
	m.buf.Patch32(at, uint32(int32(target-(at+4))))
}

// rel32 emits a 4-byte displacement to l, relative to the end of the field
func (m *Masm) rel32(l *Label) {
	at := m.Offset()
	m.relocs = append(m.relocs, Relocation{Offset: at, Kind: RelocRelative, label: l})
	if l.Bound() {
		m.emit32(int32(l.pos - (at + 4)))
		return
	}
	m.emit32(0)
	l.uses = append(l.uses, at)
}

// abs64 emits an 8-byte placeholder for the absolute address of l. The
// loader fills it in once the code has a base address.
func (m *Masm) abs64(l *Label) {
	m.relocs = append(m.relocs, Relocation{Offset: m.Offset(), Kind: RelocAbsolute, label: l})
	m.buf.Emit64(0)
}
