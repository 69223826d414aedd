package masm

import "github.com/xyproto/lirjit/internal/engine"

// ALU opcode extensions (/n) for the 0x81/0x83 immediate group
const (
	aluAdd = 0
	aluOr  = 1
	aluAnd = 4
	aluSub = 5
	aluXor = 6
	aluCmp = 7
)

// register-register opcodes in "op r/m64, r64" form
var aluRR = map[byte]byte{
	aluAdd: 0x01,
	aluOr:  0x09,
	aluAnd: 0x21,
	aluSub: 0x29,
	aluXor: 0x31,
	aluCmp: 0x39,
}

func (m *Masm) aluReg(op byte, dst, src Reg) {
	m.opRR(0, true, []byte{aluRR[op]}, byte(src), byte(dst))
}

func (m *Masm) aluImm(op byte, dst Reg, v int32) {
	if engine.FitsInt8(int64(v)) {
		m.opRR(0, true, []byte{0x83}, op, byte(dst))
		m.emit(byte(int8(v)))
		return
	}
	m.opRR(0, true, []byte{0x81}, op, byte(dst))
	m.emit32(v)
}

// Add computes dst += src
func (m *Masm) Add(dst, src Reg) { m.aluReg(aluAdd, dst, src) }

// Sub computes dst -= src
func (m *Masm) Sub(dst, src Reg) { m.aluReg(aluSub, dst, src) }

// And computes dst &= src
func (m *Masm) And(dst, src Reg) { m.aluReg(aluAnd, dst, src) }

// Or computes dst |= src
func (m *Masm) Or(dst, src Reg) { m.aluReg(aluOr, dst, src) }

// Xor computes dst ^= src
func (m *Masm) Xor(dst, src Reg) { m.aluReg(aluXor, dst, src) }

// Cmp compares a with b
func (m *Masm) Cmp(a, b Reg) { m.aluReg(aluCmp, a, b) }

// Test sets flags from a & b
func (m *Masm) Test(a, b Reg) { m.opRR(0, true, []byte{0x85}, byte(b), byte(a)) }

// AddImm computes dst += v. On rsp it also informs the stack validator.
func (m *Masm) AddImm(dst Reg, v int32) {
	m.aluImm(aluAdd, dst, v)
	if dst == RSP {
		m.stack.Add(int(v))
	}
}

// SubImm computes dst -= v. On rsp it also informs the stack validator.
func (m *Masm) SubImm(dst Reg, v int32) {
	m.aluImm(aluSub, dst, v)
	if dst == RSP {
		m.stack.Sub(int(v))
	}
}

// AndImm computes dst &= v
func (m *Masm) AndImm(dst Reg, v int32) { m.aluImm(aluAnd, dst, v) }

// OrImm computes dst |= v
func (m *Masm) OrImm(dst Reg, v int32) { m.aluImm(aluOr, dst, v) }

// CmpImm compares dst with v
func (m *Masm) CmpImm(dst Reg, v int32) { m.aluImm(aluCmp, dst, v) }

// TestImm sets flags from dst & v
func (m *Masm) TestImm(dst Reg, v int32) {
	m.opRR(0, true, []byte{0xf7}, 0, byte(dst))
	m.emit32(v)
}

// AddMem computes dst += [mem]
func (m *Masm) AddMem(dst Reg, src Mem) { m.opRM(0, true, []byte{0x03}, byte(dst), src) }

// CmpMem compares dst with [mem]
func (m *Masm) CmpMem(dst Reg, src Mem) { m.opRM(0, true, []byte{0x3b}, byte(dst), src) }

// CmpMemImm compares the qword at mem with v
func (m *Masm) CmpMemImm(mem Mem, v int32) {
	if engine.FitsInt8(int64(v)) {
		m.opRM(0, true, []byte{0x83}, aluCmp, mem)
		m.emit(byte(int8(v)))
		return
	}
	m.opRM(0, true, []byte{0x81}, aluCmp, mem)
	m.emit32(v)
}

// Inc computes r++
func (m *Masm) Inc(r Reg) { m.opRR(0, true, []byte{0xff}, 0, byte(r)) }

// Dec computes r--
func (m *Masm) Dec(r Reg) { m.opRR(0, true, []byte{0xff}, 1, byte(r)) }

// Neg computes r = -r
func (m *Masm) Neg(r Reg) { m.opRR(0, true, []byte{0xf7}, 3, byte(r)) }

// Not computes r = ^r
func (m *Masm) Not(r Reg) { m.opRR(0, true, []byte{0xf7}, 2, byte(r)) }

// Imul computes dst *= src, setting OF on signed overflow
func (m *Masm) Imul(dst, src Reg) { m.opRR(0, true, []byte{0x0f, 0xaf}, byte(dst), byte(src)) }

// Cqo sign-extends rax into rdx:rax
func (m *Masm) Cqo() { m.emit(0x48, 0x99) }

// Idiv divides rdx:rax by src: quotient in rax, remainder in rdx
func (m *Masm) Idiv(src Reg) { m.opRR(0, true, []byte{0xf7}, 7, byte(src)) }

// Shift opcode extensions
const (
	shiftShl = 4
	shiftShr = 5
	shiftSar = 7
)

func (m *Masm) shiftImm(op byte, r Reg, n uint8) {
	if n == 1 {
		m.opRR(0, true, []byte{0xd1}, op, byte(r))
		return
	}
	m.opRR(0, true, []byte{0xc1}, op, byte(r))
	m.emit(n)
}

// Shl shifts left by a constant
func (m *Masm) Shl(r Reg, n uint8) { m.shiftImm(shiftShl, r, n) }

// Shr shifts right (logical) by a constant
func (m *Masm) Shr(r Reg, n uint8) { m.shiftImm(shiftShr, r, n) }

// Sar shifts right (arithmetic) by a constant
func (m *Masm) Sar(r Reg, n uint8) { m.shiftImm(shiftSar, r, n) }

// ShlCL shifts left by cl
func (m *Masm) ShlCL(r Reg) { m.opRR(0, true, []byte{0xd3}, shiftShl, byte(r)) }

// ShrCL shifts right (logical) by cl
func (m *Masm) ShrCL(r Reg) { m.opRR(0, true, []byte{0xd3}, shiftShr, byte(r)) }

// SarCL shifts right (arithmetic) by cl
func (m *Masm) SarCL(r Reg) { m.opRR(0, true, []byte{0xd3}, shiftSar, byte(r)) }
