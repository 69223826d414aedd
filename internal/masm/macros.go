package masm

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/engine"
)

// Tagged-value macros. They address objects only through the layout
// constants of the heap package, like the runtime does.

// IsNil branches on the nil pattern. Either label may be nil.
func (m *Masm) IsNil(r Reg, notNil, isNil *Label) {
	m.Test(r, r)
	if isNil != nil {
		m.J(Zero, isNil)
	}
	if notNil != nil {
		m.J(NotZero, notNil)
	}
}

// IsUnboxed branches on the small integer bit. Either label may be nil.
func (m *Masm) IsUnboxed(r Reg, notUnboxed, unboxed *Label) {
	m.TestImm(r, 1)
	if unboxed != nil {
		m.J(NotZero, unboxed)
	}
	if notUnboxed != nil {
		m.J(Zero, notUnboxed)
	}
}

// IsHeapObject compares the tag of a heap reference. r must already be
// known to be neither nil nor unboxed.
func (m *Masm) IsHeapObject(tag heap.Tag, r Reg, mismatch, match *Label) {
	m.CmpMemImm(At(r, heap.TagOffset), int32(tag))
	if mismatch != nil {
		m.J(NotEqual, mismatch)
	}
	if match != nil {
		m.J(Equal, match)
	}
}

// Untag turns a small integer into its payload
func (m *Masm) Untag(r Reg) { m.Sar(r, 1) }

// TagNumber turns a payload into a small integer, dropping the top bit
func (m *Masm) TagNumber(r Reg) {
	m.Shl(r, 1)
	m.OrImm(r, 1)
}

// MovValue loads a tagged constant
func (m *Masm) MovValue(dst Reg, v heap.Value) {
	m.MovImm(dst, int64(v))
}

// RootSlot is the memory operand of a root context slot
func RootSlot(index int) Mem {
	return At(Root, heap.ContextSlotDisp(index))
}

// ContextSlot is the memory operand of slot index of the context in ctx
func ContextSlot(ctx Reg, index int) Mem {
	return At(ctx, heap.ContextSlotDisp(index))
}

// CheckGC calls the collector stub when the heap asked for a collection.
// It is the only place generated code yields to the collector.
func (m *Masm) CheckGC() {
	if m.env.HeapNeedsGC == 0 || m.env.CollectGarbage.IsZero() {
		engine.Fatalf(engine.CategoryCodegen, "CheckGC without a heap or collector stub")
	}
	skip := NewLabel()
	m.MovImm64(Scratch, uint64(m.env.HeapNeedsGC))
	m.CmpMemImm(At(Scratch, 0), 0)
	m.J(Equal, skip)
	m.Call(m.env.CollectGarbage)
	m.Bind(skip)
}

// callStub calls a stub that pops argBytes of stack arguments itself
func (m *Masm) callStub(t Target, argBytes int) {
	m.Call(t)
	for i := 0; i < argBytes/8; i++ {
		m.stack.Pop("stub argument")
	}
}

// Allocate calls the allocation stub for an object with the given tag.
// The size comes from sizeReg (a small integer) or, when sizeReg is
// NoReg, from the constant size. Only result is modified.
func (m *Masm) Allocate(tag heap.Tag, sizeReg Reg, size int, result Reg) {
	if m.env.Allocate.IsZero() {
		engine.Fatalf(engine.CategoryCodegen, "Allocate without an allocation stub")
	}
	if result != RAX {
		m.Push(RAX)
	}
	if sizeReg != NoReg {
		m.Push(sizeReg)
	} else {
		m.PushImm(int32(heap.SmallInt(int64(size))))
	}
	m.PushImm(int32(heap.SmallInt(int64(tag))))
	m.callStub(m.env.Allocate, 16)
	if result != RAX {
		m.Mov(result, RAX)
		m.Pop(RAX)
	}
}

// AllocateNumber boxes the double in x into result
func (m *Masm) AllocateNumber(x XMM, result Reg) {
	// the allocation fallback runs host code, which does not preserve xmm registers
	m.SubImm(RSP, 8)
	m.MovsdStore(At(RSP, 0), x)
	m.Allocate(heap.TagNumber, NoReg, heap.NumberSize, result)
	m.MovsdLoad(x, At(RSP, 0))
	m.AddImm(RSP, 8)
	m.MovsdStore(At(result, heap.NumberValueOffset), x)
}

// AllocateObjectLiteral allocates an empty object or array with its map.
// capacity holds a small integer power of two and must not be rax, rbx or
// r11, which are clobbered.
func (m *Masm) AllocateObjectLiteral(tag heap.Tag, capacity Reg, result Reg) {
	if capacity == RAX || capacity == RBX || capacity == Scratch {
		engine.Fatalf(engine.CategoryCodegen, "object literal capacity in clobbered register %s", capacity)
	}

	// Map: MapSpaceOffset + capacity*16 bytes
	m.Mov(RBX, capacity)
	m.Untag(RBX)
	m.Shl(RBX, 4)
	m.AddImm(RBX, heap.MapSpaceOffset)
	m.TagNumber(RBX)
	m.Allocate(heap.TagMap, RBX, 0, RAX)

	m.Mov(RBX, capacity)
	m.Untag(RBX)
	m.Store(At(RAX, heap.MapSizeOffset), RBX)

	// Key and value slots must start out nil
	m.Shl(RBX, 1)
	m.Lea(Scratch, At(RAX, heap.MapSpaceOffset))
	loop, cleared := NewLabel(), NewLabel()
	m.Bind(loop)
	m.Test(RBX, RBX)
	m.J(Zero, cleared)
	m.StoreImm(At(Scratch, 0), 0)
	m.AddImm(Scratch, 8)
	m.Dec(RBX)
	m.Jmp(loop)
	m.Bind(cleared)

	size := heap.ObjectSize
	if tag == heap.TagArray {
		size = heap.ArraySize
	}
	m.Push(RAX)
	m.Allocate(tag, NoReg, size, RAX)
	m.Pop(RBX)
	m.Store(At(RAX, heap.ObjectMapOffset), RBX)

	m.Mov(RBX, capacity)
	m.Untag(RBX)
	m.Dec(RBX)
	m.Store(At(RAX, heap.ObjectMaskOffset), RBX)
	if tag == heap.TagArray {
		m.StoreImm(At(RAX, heap.ArrayLengthOffset), 0)
	}
	m.Xor(RBX, RBX)
	m.Mov(result, RAX)
}

// StringHash loads the hash of the string in str into result, calling the
// hash stub the first time. Only result is modified.
func (m *Masm) StringHash(str, result Reg) {
	if str == result {
		engine.Fatalf(engine.CategoryCodegen, "StringHash into its own input %s", str)
	}
	done := NewLabel()
	m.Load32(result, At(str, heap.StringHashOffset))
	m.Test(result, result)
	m.J(NotZero, done)
	if result != RAX {
		m.Push(RAX)
	}
	m.Push(str)
	m.Call(m.env.HashValue)
	m.AddImm(RSP, 8)
	if result != RAX {
		m.Mov(result, RAX)
		m.Pop(RAX)
	}
	m.Bind(done)
}

// CallFunction calls the function object in fn: the callee gets its
// closure context in rdi and its root context in r10.
func (m *Masm) CallFunction(fn Reg) {
	m.Mov(Scratch, fn)
	m.Load(Context, At(Scratch, heap.FunctionParentOffset))
	m.Load(Root, At(Scratch, heap.FunctionRootOffset))
	m.CallMem(At(Scratch, heap.FunctionCodeOffset))
}
