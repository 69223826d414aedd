package masm

import "github.com/xyproto/lirjit/internal/engine"

// AllocateSpills reserves the spill area of the current frame. The size is
// not known yet, so a `sub rsp, imm32` is emitted and patched by
// FinalizeSpills.
func (m *Masm) AllocateSpills() {
	m.opRR(0, true, []byte{0x81}, aluSub, byte(RSP))
	m.spillFixup = m.Offset()
	m.emit32(0)
	m.spillIndex = 0
	m.spillMax = 0
}

// FinalizeSpills patches the reservation to exactly count slots, or to the
// slots taken through SpillReg if that is more
func (m *Masm) FinalizeSpills(count int) int {
	if m.spillFixup < 0 {
		engine.Fatalf(engine.CategoryCodegen, "FinalizeSpills without AllocateSpills")
	}
	count = max(count, m.spillMax)
	m.buf.Patch32(m.spillFixup, uint32(count*8))
	m.spillFixup = -1
	return count * 8
}

// SpillFixup is the offset of the pending frame size field, -1 if none
func (m *Masm) SpillFixup() int { return m.spillFixup }

// SetSpillOffset sets the number of bytes between rbp and spill slot 0
func (m *Masm) SetSpillOffset(bytes int32) { m.spillOffset = bytes }

// SpillSlot returns the memory operand of spill slot i
func (m *Masm) SpillSlot(i int) Mem {
	return At(RBP, -m.spillOffset-int32(8*(i+1)))
}

// Spill is a register value parked in a stub's spill slot
type Spill struct {
	m     *Masm
	src   Reg
	index int
}

// SpillReg stores r in a fresh slot of the current frame
func (m *Masm) SpillReg(r Reg) *Spill {
	s := &Spill{m: m, src: r, index: m.spillIndex}
	m.spillIndex++
	m.spillMax = max(m.spillMax, m.spillIndex)
	m.Store(m.SpillSlot(s.index), r)
	return s
}

// Unspill reloads the value into the register it came from
func (s *Spill) Unspill() { s.UnspillTo(s.src) }

// UnspillTo reloads the value into r
func (s *Spill) UnspillTo(r Reg) { s.m.Load(r, s.m.SpillSlot(s.index)) }

// Update stores r into the slot
func (s *Spill) Update(r Reg) { s.m.Store(s.m.SpillSlot(s.index), r) }
