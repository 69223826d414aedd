// Package masm is the x86-64 macro assembler behind the code generator and
// the stub library: an instruction encoder, labels and relocations, spill
// slots and the tagged-value macros both kinds of generated code share.
package masm

import (
	"github.com/xyproto/lirjit/internal/engine"
)

// Target is something code can call: a label in the same buffer or an
// absolute address of already placed code.
type Target struct {
	Label *Label
	Addr  uintptr
}

// LabelTarget wraps a label
func LabelTarget(l *Label) Target { return Target{Label: l} }

// AddrTarget wraps an absolute address
func AddrTarget(addr uintptr) Target { return Target{Addr: addr} }

// IsZero reports whether the target was never set
func (t Target) IsZero() bool { return t.Label == nil && t.Addr == 0 }

// Env holds the addresses the macros embed: the heap's control words and
// the stubs the macros call.
type Env struct {
	HeapTop     uintptr // word holding new space's top
	HeapLimit   uintptr // word holding new space's limit
	HeapNeedsGC uintptr // word that is non-zero when a collection is due

	Allocate       Target
	CollectGarbage Target
	HashValue      Target
	LookupProperty Target
}

// Masm assembles one buffer of code
type Masm struct {
	buf    *CodeBuffer
	stack  *StackValidator
	env    Env
	relocs []Relocation

	spillOffset int32
	spillFixup  int
	spillIndex  int
	spillMax    int
}

// New creates an assembler writing into a fresh buffer
func New(name string, env Env) *Masm {
	return &Masm{
		buf:        NewCodeBuffer(name),
		stack:      NewStackValidator(),
		env:        env,
		spillFixup: -1,
	}
}

// Env returns the addresses the macros use
func (m *Masm) Env() *Env { return &m.env }

// Buffer returns the underlying code buffer
func (m *Masm) Buffer() *CodeBuffer { return m.buf }

// Stack returns the push/pop balance tracker
func (m *Masm) Stack() *StackValidator { return m.stack }

// Offset is the position the next byte is written at
func (m *Masm) Offset() int { return m.buf.Len() }

// Bytes returns the code emitted so far
func (m *Masm) Bytes() []byte { return m.buf.Bytes() }

func (m *Masm) emit(p ...byte) { m.buf.Emit(p...) }

func (m *Masm) emit32(v int32) { m.buf.Emit32(uint32(v)) }

// Commit freezes the buffer. Every label that was jumped to must be bound.
func (m *Masm) Commit() {
	for _, r := range m.relocs {
		if !r.label.Bound() {
			engine.Fatalf(engine.CategoryCodegen, "relocation at %d refers to an unbound label", r.Offset)
		}
	}
	m.buf.Commit()
}
