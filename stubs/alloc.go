package stubs

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
)

// loadHeap puts the heap handle in the first host argument register
func (lib *Library) loadHeap() {
	lib.m.MovImm64(masm.RDI, uint64(lib.cb.Heap))
}

// allocate bumps new space: [rbp+16] = tagged tag, [rbp+24] = tagged size.
// Returns the tagged object in rax; the rest of it is not initialized.
func (lib *Library) allocate() {
	m := lib.m
	env := m.Env()
	f := m.Prologue()
	m.Push(masm.RBX)

	runtime, stamp := masm.NewLabel(), masm.NewLabel()
	m.MovImm64(masm.Scratch, uint64(env.HeapTop))
	m.Load(masm.RAX, masm.At(masm.Scratch, 0))
	m.Load(masm.RBX, masm.At(masm.RBP, 24))
	m.Untag(masm.RBX)
	m.AddImm(masm.RBX, 7)
	m.AndImm(masm.RBX, -8)
	m.Add(masm.RBX, masm.RAX)
	m.J(masm.Carry, runtime)
	m.MovImm64(masm.Scratch, uint64(env.HeapLimit))
	m.CmpMem(masm.RBX, masm.At(masm.Scratch, 0))
	m.J(masm.Above, runtime)
	m.MovImm64(masm.Scratch, uint64(env.HeapTop))
	m.Store(masm.At(masm.Scratch, 0), masm.RBX)
	m.Jmp(stamp)

	// The page is full: the host adds one and may request a collection
	m.Bind(runtime)
	m.Xor(masm.RAX, masm.RAX)
	m.Xor(masm.RBX, masm.RBX)
	m.CallHost(lib.cb.Allocate, masm.RAX, func() {
		lib.loadHeap()
		m.Load(masm.RSI, masm.At(masm.RBP, 24))
	})

	m.Bind(stamp)
	m.Load(masm.Scratch, masm.At(masm.RBP, 16))
	m.Untag(masm.Scratch)
	m.Store(masm.At(masm.RAX, heap.TagOffset), masm.Scratch)
	m.Pop(masm.RBX)
	m.Epilogue(f, 2)
}

// collectGarbage hands the current stack to the host collector. Every
// register, rax included, is preserved.
func (lib *Library) collectGarbage() {
	m := lib.m
	f := m.Prologue()
	m.CallHost(lib.cb.CollectGarbage, masm.NoReg, func() {
		lib.loadHeap()
		m.Mov(masm.RSI, masm.RBP)
	})
	m.Epilogue(f, 0)
}

// hashValue computes the hash of the string pushed by the caller. The
// caller removes the argument.
func (lib *Library) hashValue() {
	m := lib.m
	f := m.Prologue()
	m.CallHost(lib.cb.Hash, masm.RAX, func() {
		lib.loadHeap()
		m.Load(masm.RSI, masm.At(masm.RBP, 16))
	})
	m.Epilogue(f, 0)
}

// stackTrace builds an array of source positions: rax = caller ip. The
// walk starts at the caller's frame.
func (lib *Library) stackTrace() {
	m := lib.m
	m.Mov(masm.RBX, masm.RBP)
	f := m.Prologue()
	m.CallHost(lib.cb.StackTrace, masm.RAX, func() {
		lib.loadHeap()
		m.Mov(masm.RSI, masm.RBX)
		m.Mov(masm.RDX, masm.RAX)
	})
	m.CheckGC()
	m.Epilogue(f, 0)
}
