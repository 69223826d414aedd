package masm

import "fmt"

// Mem is a [base + disp] memory operand
type Mem struct {
	Base Reg
	Disp int32
}

// At builds a memory operand
func At(base Reg, disp int32) Mem {
	return Mem{Base: base, Disp: disp}
}

func (m Mem) String() string {
	switch {
	case m.Disp == 0:
		return fmt.Sprintf("[%s]", m.Base)
	case m.Disp < 0:
		return fmt.Sprintf("[%s-%d]", m.Base, -int64(m.Disp))
	default:
		return fmt.Sprintf("[%s+%d]", m.Base, m.Disp)
	}
}

// Cond is an x86 condition code, as encoded in Jcc/SETcc
type Cond byte

const (
	Overflow   Cond = 0x0
	NoOverflow Cond = 0x1
	Below      Cond = 0x2 // carry
	AboveEqual Cond = 0x3 // no carry
	Equal      Cond = 0x4
	NotEqual   Cond = 0x5
	BelowEqual Cond = 0x6
	Above      Cond = 0x7
	Sign       Cond = 0x8
	NoSign     Cond = 0x9
	Parity     Cond = 0xa
	NoParity   Cond = 0xb
	Less       Cond = 0xc
	GreaterEq  Cond = 0xd
	LessEq     Cond = 0xe
	Greater    Cond = 0xf

	Carry   = Below
	NoCarry = AboveEqual
	Zero    = Equal
	NotZero = NotEqual
)

var condNames = [16]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

func (c Cond) String() string { return condNames[c&0xf] }

// Negate returns the opposite condition
func (c Cond) Negate() Cond { return c ^ 1 }
