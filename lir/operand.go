package lir

import (
	"fmt"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
)

type operandKind uint8

const (
	unassigned operandKind = iota
	inRegister
	inSpill
	inImmediate
)

// Operand is where a value lives: a register, a spill slot or an
// immediate word. The zero Operand is unassigned.
type Operand struct {
	kind  operandKind
	reg   masm.Reg
	index int
	word  heap.Value
}

// Register returns a register operand
func Register(r masm.Reg) Operand { return Operand{kind: inRegister, reg: r} }

// Spill returns the operand of spill slot i
func Spill(i int) Operand { return Operand{kind: inSpill, index: i} }

// Immediate returns a constant operand
func Immediate(v heap.Value) Operand { return Operand{kind: inImmediate, word: v} }

func (o Operand) IsAssigned() bool  { return o.kind != unassigned }
func (o Operand) IsRegister() bool  { return o.kind == inRegister }
func (o Operand) IsSpill() bool     { return o.kind == inSpill }
func (o Operand) IsImmediate() bool { return o.kind == inImmediate }

// Reg is the register of a register operand
func (o Operand) Reg() masm.Reg { return o.reg }

// SpillIndex is the slot of a spill operand
func (o Operand) SpillIndex() int { return o.index }

// Value is the word of an immediate operand
func (o Operand) Value() heap.Value { return o.word }

func (o Operand) String() string {
	switch o.kind {
	case inRegister:
		return o.reg.String()
	case inSpill:
		return fmt.Sprintf("[spill %d]", o.index)
	case inImmediate:
		return "#" + o.word.String()
	}
	return "?"
}
