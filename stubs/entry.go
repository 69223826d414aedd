package stubs

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
)

// Registers the host expects to survive a call into generated code
var calleeSaved = []masm.Reg{masm.RBX, masm.R12, masm.R13, masm.R14, masm.R15}

// entryFrameDepth is how far below rbp the entry stub's own pushes reach:
// alignment word, callee-saved registers and the enter frame marker.
const entryFrameDepth = 8 * (1 + 5 + 2)

// EntryMarkerDepth is how far below the entry stub's rbp its frame marker
// sits. Stack walkers stop at the frame holding it.
const EntryMarkerDepth = entryFrameDepth - 8

// entry is the bridge from host code: rdi = function, rsi = tagged argc,
// rdx = argv. Returns the function's result in rax.
func (lib *Library) entry() {
	m := lib.m
	f := m.Prologue()
	m.PushImm(0)
	for _, r := range calleeSaved {
		m.Push(r)
	}
	m.EnterFramePrologue()
	depth := m.Stack().Checkpoint("entry")

	// An odd argument count needs one padding word to keep rsp aligned
	even := masm.NewLabel()
	m.TestImm(masm.RSI, 2)
	m.J(masm.Zero, even)
	m.PushImm(0)
	m.Bind(even)

	// Arguments go in reverse so that argv[0] ends up nearest the callee
	loop, pushed := masm.NewLabel(), masm.NewLabel()
	m.Mov(masm.Scratch, masm.RSI)
	m.Untag(masm.Scratch)
	m.Bind(loop)
	m.Test(masm.Scratch, masm.Scratch)
	m.J(masm.Zero, pushed)
	m.Dec(masm.Scratch)
	m.Mov(masm.RAX, masm.Scratch)
	m.Shl(masm.RAX, 3)
	m.Add(masm.RAX, masm.RDX)
	m.PushMem(masm.At(masm.RAX, 0))
	m.Jmp(loop)
	m.Bind(pushed)
	m.Stack().Restore(depth, "entry arguments")

	// Generated code must not see host values in allocatable registers
	for _, r := range []masm.Reg{masm.RAX, masm.RBX, masm.RCX, masm.RDX, masm.R8, masm.R9, masm.R12, masm.R13, masm.R14, masm.R15} {
		m.Xor(r, r)
	}
	m.CallFunction(masm.RDI)

	m.Lea(masm.RSP, masm.At(masm.RBP, -entryFrameDepth))
	m.EnterFrameEpilogue()
	for i := len(calleeSaved) - 1; i >= 0; i-- {
		m.Pop(calleeSaved[i])
	}
	m.Epilogue(f, 0)
}

// callBinding calls a host function: [rbp+16] = function, [rbp+24] = tagged
// argc, arguments from [rbp+32]. The binding receives (argc, argv).
func (lib *Library) callBinding() {
	m := lib.m
	f := m.Prologue()
	m.Pushad()
	m.Load(masm.RDI, masm.At(masm.RBP, 24))
	m.Untag(masm.RDI)
	m.Lea(masm.RSI, masm.At(masm.RBP, 32))
	m.ExitFramePrologue()
	m.Align(func() {
		m.Load(masm.Scratch, masm.At(masm.RBP, 16))
		m.CallMem(masm.At(masm.Scratch, heap.FunctionCodeOffset))
	})
	m.ExitFrameEpilogue()
	m.Popad(masm.RAX)
	m.CheckGC()
	m.Epilogue(f, 2)
}

// varArg collects rest arguments into a fresh array: rax points at the
// first argument, rdx holds the tagged count. Returns the array in rax.
func (lib *Library) varArg() {
	m := lib.m
	f := m.Prologue()
	saved := []masm.Reg{masm.RBX, masm.RCX, masm.RDX, masm.R13, masm.R14}
	for _, r := range saved {
		m.Push(r)
	}
	m.Mov(masm.R13, masm.RAX)
	m.Mov(masm.R14, masm.RDX)
	m.Untag(masm.R14)

	m.MovValue(masm.RCX, heap.SmallInt(heap.VarArgLength))
	m.AllocateObjectLiteral(heap.TagArray, masm.RCX, masm.RDX)
	m.MovValue(masm.RBX, heap.SmallInt(0))

	loop, done := masm.NewLabel(), masm.NewLabel()
	m.Bind(loop)
	m.Test(masm.R14, masm.R14)
	m.J(masm.Zero, done)
	m.Mov(masm.RAX, masm.RDX)
	m.MovImm(masm.RCX, 1)
	m.Call(m.Env().LookupProperty)
	m.Load(masm.Scratch, masm.At(masm.R13, 0))
	m.Store(masm.At(masm.RAX, 0), masm.Scratch)
	m.AddImm(masm.R13, 8)
	m.Dec(masm.R14)
	m.AddImm(masm.RBX, 2)
	m.Jmp(loop)
	m.Bind(done)

	m.Mov(masm.RAX, masm.RDX)
	for i := len(saved) - 1; i >= 0; i-- {
		m.Pop(saved[i])
	}
	m.CheckGC()
	m.Epilogue(f, 0)
}

// putVarArg spreads an array: rax = array, rbx = destination. Element i is
// written to [rbx + 8*i]; holes read as nil.
func (lib *Library) putVarArg() {
	m := lib.m
	f := m.Prologue()
	saved := []masm.Reg{masm.RBX, masm.RCX, masm.R12, masm.R13, masm.R14}
	for _, r := range saved {
		m.Push(r)
	}
	m.Mov(masm.R12, masm.RAX)
	m.Mov(masm.R13, masm.RBX)
	m.Load(masm.R14, masm.At(masm.RAX, heap.ArrayLengthOffset))
	m.TagNumber(masm.R14)
	m.MovValue(masm.RBX, heap.SmallInt(0))

	loop, store, done := masm.NewLabel(), masm.NewLabel(), masm.NewLabel()
	m.Bind(loop)
	m.Cmp(masm.RBX, masm.R14)
	m.J(masm.GreaterEq, done)
	m.Mov(masm.RAX, masm.R12)
	m.Xor(masm.RCX, masm.RCX)
	m.Call(m.Env().LookupProperty)
	m.Test(masm.RAX, masm.RAX)
	m.J(masm.Zero, store)
	m.Load(masm.RAX, masm.At(masm.RAX, 0))
	m.Bind(store)
	m.Store(masm.At(masm.R13, 0), masm.RAX)
	m.AddImm(masm.R13, 8)
	m.AddImm(masm.RBX, 2)
	m.Jmp(loop)
	m.Bind(done)

	for i := len(saved) - 1; i >= 0; i-- {
		m.Pop(saved[i])
	}
	m.Xor(masm.RAX, masm.RAX)
	m.Epilogue(f, 0)
}
