package masm

import "github.com/xyproto/lirjit/internal/engine"

// Mov copies src into dst
func (m *Masm) Mov(dst, src Reg) {
	if dst == src {
		return
	}
	m.opRR(0, true, []byte{0x89}, byte(src), byte(dst))
}

// MovImm loads a constant using the shortest encoding
func (m *Masm) MovImm(dst Reg, v int64) {
	if engine.FitsInt32(v) {
		m.opRR(0, true, []byte{0xc7}, 0, byte(dst))
		m.emit32(int32(v))
		return
	}
	m.MovImm64(dst, uint64(v))
}

// MovImm64 always uses the 10-byte form so the constant can be patched
func (m *Masm) MovImm64(dst Reg, v uint64) {
	m.rex(true, 0, byte(dst))
	m.emit(0xb8 + dst.low())
	m.buf.Emit64(v)
}

// MovLabelAddress loads the absolute address of l. The address is
// recorded as a relocation and filled in on install.
func (m *Masm) MovLabelAddress(dst Reg, l *Label) {
	m.rex(true, 0, byte(dst))
	m.emit(0xb8 + dst.low())
	m.abs64(l)
}

// Load reads a qword
func (m *Masm) Load(dst Reg, src Mem) {
	m.opRM(0, true, []byte{0x8b}, byte(dst), src)
}

// Load32 reads a dword, zero-extending into dst
func (m *Masm) Load32(dst Reg, src Mem) {
	m.opRM(0, false, []byte{0x8b}, byte(dst), src)
}

// Store writes a qword
func (m *Masm) Store(dst Mem, src Reg) {
	m.opRM(0, true, []byte{0x89}, byte(src), dst)
}

// StoreImm writes a sign-extended 32-bit immediate as a qword
func (m *Masm) StoreImm(dst Mem, v int32) {
	m.opRM(0, true, []byte{0xc7}, 0, dst)
	m.emit32(v)
}

// Lea computes the address of a memory operand
func (m *Masm) Lea(dst Reg, src Mem) {
	m.opRM(0, true, []byte{0x8d}, byte(dst), src)
}

// LeaRIP loads the address of the next instruction plus disp
func (m *Masm) LeaRIP(dst Reg, disp int32) {
	m.rex(true, byte(dst), 0)
	m.emit(0x8d, 0x05|dst.low()<<3)
	m.emit32(disp)
}
