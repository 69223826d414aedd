package masm

// SSE2 scalar double instructions used by the boxed number paths

// MovqToXMM moves a general register's bits into x
func (m *Masm) MovqToXMM(x XMM, r Reg) {
	m.opRR(0x66, true, []byte{0x0f, 0x6e}, byte(x), byte(r))
}

// MovqFromXMM moves x's low qword into r
func (m *Masm) MovqFromXMM(r Reg, x XMM) {
	m.opRR(0x66, true, []byte{0x0f, 0x7e}, byte(x), byte(r))
}

// MovsdLoad reads a double from memory
func (m *Masm) MovsdLoad(x XMM, src Mem) {
	m.opRM(0xf2, false, []byte{0x0f, 0x10}, byte(x), src)
}

// MovsdStore writes a double to memory
func (m *Masm) MovsdStore(dst Mem, x XMM) {
	m.opRM(0xf2, false, []byte{0x0f, 0x11}, byte(x), dst)
}

// Cvtsi2sd converts a signed integer to a double
func (m *Masm) Cvtsi2sd(x XMM, r Reg) {
	m.opRR(0xf2, true, []byte{0x0f, 0x2a}, byte(x), byte(r))
}

// Cvttsd2si truncates a double to a signed integer
func (m *Masm) Cvttsd2si(r Reg, x XMM) {
	m.opRR(0xf2, true, []byte{0x0f, 0x2c}, byte(r), byte(x))
}

func (m *Masm) sseOp(op byte, dst, src XMM) {
	m.opRR(0xf2, false, []byte{0x0f, op}, byte(dst), byte(src))
}

// Addsd computes dst += src
func (m *Masm) Addsd(dst, src XMM) { m.sseOp(0x58, dst, src) }

// Mulsd computes dst *= src
func (m *Masm) Mulsd(dst, src XMM) { m.sseOp(0x59, dst, src) }

// Subsd computes dst -= src
func (m *Masm) Subsd(dst, src XMM) { m.sseOp(0x5c, dst, src) }

// Divsd computes dst /= src
func (m *Masm) Divsd(dst, src XMM) { m.sseOp(0x5e, dst, src) }

// Ucomisd compares doubles: unordered sets ZF, PF and CF
func (m *Masm) Ucomisd(a, b XMM) {
	m.opRR(0x66, false, []byte{0x0f, 0x2e}, byte(a), byte(b))
}

// Xorpd clears or flips bits of dst
func (m *Masm) Xorpd(dst, src XMM) {
	m.opRR(0x66, false, []byte{0x0f, 0x57}, byte(dst), byte(src))
}
