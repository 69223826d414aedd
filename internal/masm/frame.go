package masm

import "github.com/xyproto/lirjit/internal/engine"

// Frame markers pushed by the entry stub and around host bindings, so a
// stack walker can tell where generated frames begin and end.
const (
	EnterFrameTag = 0xFEEDBEEF & 0x7fffffff
	ExitFrameTag  = 0xDEC0DED & 0x7fffffff
)

// Frame is an open rbp frame
type Frame struct {
	depth int
}

// Prologue emits `push rbp; mov rbp, rsp`
func (m *Masm) Prologue() Frame {
	m.Push(RBP)
	m.Mov(RBP, RSP)
	return Frame{depth: m.stack.Checkpoint("frame")}
}

// Epilogue emits `mov rsp, rbp; pop rbp; ret args*8`
func (m *Masm) Epilogue(f Frame, args int) {
	m.LeaveFrame(f)
	m.Ret(uint16(args * 8))
}

// LeaveFrame emits `mov rsp, rbp; pop rbp` without returning
func (m *Masm) LeaveFrame(f Frame) {
	m.Mov(RSP, RBP)
	m.stack.Restore(f.depth, "frame")
	m.Pop(RBP)
}

// EnterFramePrologue marks the boundary between host and generated frames
func (m *Masm) EnterFramePrologue() {
	m.PushImm(EnterFrameTag)
	m.Push(RBP)
}

// EnterFrameEpilogue removes the marker pushed by EnterFramePrologue
func (m *Masm) EnterFrameEpilogue() {
	m.AddImm(RSP, 16)
}

// ExitFramePrologue marks a transition from generated code into a host binding
func (m *Masm) ExitFramePrologue() {
	m.PushImm(ExitFrameTag)
	m.Push(RBP)
}

// ExitFrameEpilogue removes the marker pushed by ExitFramePrologue
func (m *Masm) ExitFrameEpilogue() {
	m.AddImm(RSP, 16)
}

// Align runs body with rsp aligned to 16 bytes, as the host ABI requires
// at call sites, and restores the original rsp afterwards.
func (m *Masm) Align(body func()) {
	m.Mov(Scratch, RSP)
	m.AndImm(RSP, -16)
	m.Push(Scratch)
	m.Push(Scratch)
	depth := m.stack.Checkpoint("align")
	body()
	m.stack.Validate(depth, "align")
	m.Load(RSP, At(RSP, 0))
	m.stack.Restore(depth-2, "align")
}

// CallHost calls a host routine whose integer arguments are loaded by
// args (r11 is clobbered by then). The routine's return value stays in rax
// when result is RAX; every other register is restored.
func (m *Masm) CallHost(fn uintptr, result Reg, args func()) {
	if fn == 0 {
		engine.Fatalf(engine.CategoryCodegen, "call to a missing host routine")
	}
	m.Pushad()
	m.Align(func() {
		args()
		m.MovImm64(RAX, uint64(fn))
		m.CallReg(RAX)
	})
	m.Popad(result)
}
