package lir

import (
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/masm"
)

// Instruction is one low-level instruction. The set of implementations is
// closed: one struct per Kind.
type Instruction interface {
	Kind() Kind
	ID() int
	HIR() *hir.Instruction

	NumInputs() int
	Input(i int) Operand
	SetInput(i int, o Operand)
	NumResults() int
	Result(i int) Operand
	SetResult(i int, o Operand)
	NumScratches() int
	Scratch(i int) Operand
	SetScratch(i int, o Operand)

	base() *Base
	emit(g *Generator)
}

// Base holds what every instruction carries besides its operands
type Base struct {
	id   int
	hir  *hir.Instruction
	prev int
	next int

	// label marks the instruction's code. Jumps and absolute references
	// to the instruction wait on it until it is bound.
	label *masm.Label
}

func (b *Base) base() *Base { return b }

func (b *Base) init(h *hir.Instruction) {
	b.id = h.ID()
	b.hir = h
	b.prev, b.next = nilIndex, nilIndex
	b.label = masm.NewLabel()
}

// ID is the identifier of the source node
func (b *Base) ID() int { return b.id }

// HIR is the source node the instruction was lowered from
func (b *Base) HIR() *hir.Instruction { return b.hir }

// Label is the position of the instruction's code
func (b *Base) Label() *masm.Label { return b.label }

// Relocated reports whether the instruction's code position is known
func (b *Base) Relocated() bool { return b.label.Bound() }

// RelocationOffset is the code offset of the instruction, -1 before emission
func (b *Base) RelocationOffset() int { return b.label.Pos() }

// PendingUses is the number of references still waiting for the code offset
func (b *Base) PendingUses() int { return b.label.Pending() }

type (
	none  = [0]Operand
	one   = [1]Operand
	two   = [2]Operand
	three = [3]Operand
)

type operands interface {
	none | one | two | three
}

// arity fixes the operand counts of an instruction kind in its type
type arity[I, R, T operands] struct {
	inputs    I
	results   R
	scratches T
}

func (a *arity[I, R, T]) NumInputs() int              { return len(a.inputs) }
func (a *arity[I, R, T]) Input(i int) Operand         { return a.inputs[i] }
func (a *arity[I, R, T]) SetInput(i int, o Operand)   { a.inputs[i] = o }
func (a *arity[I, R, T]) NumResults() int             { return len(a.results) }
func (a *arity[I, R, T]) Result(i int) Operand        { return a.results[i] }
func (a *arity[I, R, T]) SetResult(i int, o Operand)  { a.results[i] = o }
func (a *arity[I, R, T]) NumScratches() int           { return len(a.scratches) }
func (a *arity[I, R, T]) Scratch(i int) Operand       { return a.scratches[i] }
func (a *arity[I, R, T]) SetScratch(i int, o Operand) { a.scratches[i] = o }
