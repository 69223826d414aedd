package masm

import "github.com/xyproto/lirjit/internal/engine"

// REX prefix bits
const (
	rexW = 0x08
	rexR = 0x04
	rexB = 0x01
)

// rex emits a REX prefix when one is needed. reg and rm are full 4-bit
// register numbers.
func (m *Masm) rex(w bool, reg, rm byte) {
	p := byte(0x40)
	if w {
		p |= rexW
	}
	if reg >= 8 {
		p |= rexR
	}
	if rm >= 8 {
		p |= rexB
	}
	if p != 0x40 {
		m.emit(p)
	}
}

// opRR emits [prefix] REX opcode ModRM for a register-direct operand
func (m *Masm) opRR(prefix byte, w bool, op []byte, reg, rm byte) {
	if prefix != 0 {
		m.emit(prefix)
	}
	m.rex(w, reg, rm)
	m.emit(op...)
	m.emit(0xc0 | (reg&7)<<3 | rm&7)
}

// opRM emits [prefix] REX opcode ModRM [SIB] [disp] for a memory operand
func (m *Masm) opRM(prefix byte, w bool, op []byte, reg byte, mem Mem) {
	if mem.Base == NoReg {
		engine.Fatalf(engine.CategoryCodegen, "memory operand without a base register")
	}
	if prefix != 0 {
		m.emit(prefix)
	}
	m.rex(w, reg, byte(mem.Base))
	m.emit(op...)
	m.modrmMem(reg, mem)
}

func (m *Masm) modrmMem(reg byte, mem Mem) {
	base := mem.Base.low()
	var mod byte
	switch {
	// rbp/r13 with mod 00 means rip-relative, so they always carry a disp
	case mem.Disp == 0 && base != 5:
		mod = 0
	case engine.FitsInt8(int64(mem.Disp)):
		mod = 1
	default:
		mod = 2
	}
	m.emit(mod<<6 | (reg&7)<<3 | base)
	// rsp/r12 as a base needs a SIB byte
	if base == 4 {
		m.emit(0x24)
	}
	switch mod {
	case 1:
		m.emit(byte(int8(mem.Disp)))
	case 2:
		m.emit32(mem.Disp)
	}
}
