package masm

import "github.com/xyproto/lirjit/internal/engine"

// Push pushes a register
func (m *Masm) Push(r Reg) {
	if r.ext() {
		m.emit(0x41)
	}
	m.emit(0x50 + r.low())
	m.stack.Push(r.String())
}

// Pop pops into a register
func (m *Masm) Pop(r Reg) {
	if r.ext() {
		m.emit(0x41)
	}
	m.emit(0x58 + r.low())
	m.stack.Pop(r.String())
}

// PushImm pushes a sign-extended 32-bit immediate
func (m *Masm) PushImm(v int32) {
	if engine.FitsInt8(int64(v)) {
		m.emit(0x6a, byte(int8(v)))
	} else {
		m.emit(0x68)
		m.emit32(v)
	}
	m.stack.Push("imm")
}

// PushMem pushes a qword from memory
func (m *Masm) PushMem(mem Mem) {
	m.opRM(0, false, []byte{0xff}, 6, mem)
	m.stack.Push(mem.String())
}

// PopMem pops into a qword in memory
func (m *Masm) PopMem(mem Mem) {
	m.opRM(0, false, []byte{0x8f}, 0, mem)
	m.stack.Pop(mem.String())
}

// pushadRegs are saved around calls into host code, in push order.
// The count is even, which keeps the stack alignment intact.
var pushadRegs = []Reg{RAX, RBX, RCX, RDX, RSI, RDI, R8, R9, R10, R11, R12, R13, R14, R15}

// Pushad saves every general purpose register except rsp and rbp
func (m *Masm) Pushad() {
	for _, r := range pushadRegs {
		m.Push(r)
	}
}

// Popad restores what Pushad saved, leaving except untouched (pass NoReg
// to restore everything)
func (m *Masm) Popad(except Reg) {
	for i := len(pushadRegs) - 1; i >= 0; i-- {
		r := pushadRegs[i]
		if r == except {
			m.AddImm(RSP, 8)
			continue
		}
		m.Pop(r)
	}
}
