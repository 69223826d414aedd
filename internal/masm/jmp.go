package masm

import "github.com/xyproto/lirjit/internal/engine"

// Jmp jumps to l. Jumps always use rel32 so they can be patched later.
func (m *Masm) Jmp(l *Label) {
	m.emit(0xe9)
	m.rel32(l)
}

// J jumps to l when cond holds
func (m *Masm) J(cond Cond, l *Label) {
	m.emit(0x0f, 0x80|byte(cond))
	m.rel32(l)
}

// CallLabel calls a label in the same buffer
func (m *Masm) CallLabel(l *Label) {
	m.emit(0xe8)
	m.rel32(l)
}

// CallReg calls the address held in r
func (m *Masm) CallReg(r Reg) {
	m.opRR(0, false, []byte{0xff}, 2, byte(r))
}

// CallMem calls the address stored at mem
func (m *Masm) CallMem(mem Mem) {
	m.opRM(0, false, []byte{0xff}, 2, mem)
}

// Call calls a target. Absolute targets go through the scratch register.
func (m *Masm) Call(t Target) {
	switch {
	case t.Label != nil:
		m.CallLabel(t.Label)
	case t.Addr != 0:
		m.MovImm64(Scratch, uint64(t.Addr))
		m.CallReg(Scratch)
	default:
		engine.Fatalf(engine.CategoryCodegen, "call to an unset target")
	}
}

// Ret returns, popping n extra bytes of caller-pushed arguments
func (m *Masm) Ret(n uint16) {
	if n == 0 {
		m.emit(0xc3)
		return
	}
	m.emit(0xc2, byte(n), byte(n>>8))
}

// Int3 emits a breakpoint
func (m *Masm) Int3() { m.emit(0xcc) }

// Nop emits a one-byte no-op
func (m *Masm) Nop() { m.emit(0x90) }
