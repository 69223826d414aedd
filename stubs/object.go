package stubs

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
)

// typeOf maps rax to the root string naming its type
func (lib *Library) typeOf() {
	m := lib.m
	f := m.Prologue()
	isNil, unboxed, done := masm.NewLabel(), masm.NewLabel(), masm.NewLabel()
	m.IsNil(masm.RAX, nil, isNil)
	m.IsUnboxed(masm.RAX, nil, unboxed)

	// Type-name roots are laid out in tag order
	m.Load(masm.RAX, masm.At(masm.RAX, heap.TagOffset))
	m.Shl(masm.RAX, 3)
	m.AddImm(masm.RAX, heap.ContextSlotDisp(heap.RootNilTypeIndex))
	m.Jmp(done)

	m.Bind(isNil)
	m.MovImm(masm.RAX, int64(heap.ContextSlotDisp(heap.RootTypeIndex(heap.TagNil))))
	m.Jmp(done)

	m.Bind(unboxed)
	m.MovImm(masm.RAX, int64(heap.ContextSlotDisp(heap.RootTypeIndex(heap.TagNumber))))

	m.Bind(done)
	m.Add(masm.RAX, masm.Root)
	m.Load(masm.RAX, masm.At(masm.RAX, 0))
	m.Epilogue(f, 0)
}

// sizeOf returns the tagged length of strings and arrays inline and asks
// the host for everything else
func (lib *Library) sizeOf() {
	m := lib.m
	f := m.Prologue()
	notString, runtime, done := masm.NewLabel(), masm.NewLabel(), masm.NewLabel()
	m.IsNil(masm.RAX, nil, runtime)
	m.IsUnboxed(masm.RAX, nil, runtime)

	m.IsHeapObject(heap.TagString, masm.RAX, notString, nil)
	m.Load(masm.RAX, masm.At(masm.RAX, heap.StringLengthOffset))
	m.TagNumber(masm.RAX)
	m.Jmp(done)

	m.Bind(notString)
	m.IsHeapObject(heap.TagArray, masm.RAX, runtime, nil)
	m.Load(masm.RAX, masm.At(masm.RAX, heap.ArrayLengthOffset))
	m.TagNumber(masm.RAX)
	m.Jmp(done)

	m.Bind(runtime)
	lib.callValue(lib.cb.Sizeof)
	m.CheckGC()

	m.Bind(done)
	m.Epilogue(f, 0)
}

// keysOf returns an array of the keys of rax
func (lib *Library) keysOf() {
	m := lib.m
	f := m.Prologue()
	lib.callValue(lib.cb.Keysof)
	m.CheckGC()
	m.Epilogue(f, 0)
}

// callValue calls a host routine taking (heap, rax) and leaves its result in rax
func (lib *Library) callValue(fn uintptr) {
	m := lib.m
	m.CallHost(fn, masm.RAX, func() {
		m.Mov(masm.RSI, masm.RAX)
		lib.loadHeap()
	})
}

// Registers the lookup stub uses besides its inputs
var lookupSaved = []masm.Reg{masm.RDX, masm.R9, masm.R12, masm.R13, masm.R14, masm.R15}

// lookupProperty finds the value slot of key rbx in object rax, inserting
// the key into an empty slot when rcx is non-zero. Returns the slot address
// in rax, or 0 when rax is not an object. Only rax and r11 are modified.
//
// The inline scan handles string keys on objects and small integer
// indexes inside an array's capacity. It gives up on anything that needs a
// full string compare or growth.
func (lib *Library) lookupProperty() {
	m := lib.m
	f := m.Prologue()
	for _, r := range lookupSaved {
		m.Push(r)
	}

	notObject, nonObject, slow, done := masm.NewLabel(), masm.NewLabel(), masm.NewLabel(), masm.NewLabel()
	scan, occupied, match := masm.NewLabel(), masm.NewLabel(), masm.NewLabel()

	m.IsNil(masm.RAX, nil, nonObject)
	m.IsUnboxed(masm.RAX, nil, nonObject)
	m.IsHeapObject(heap.TagObject, masm.RAX, notObject, nil)

	m.IsNil(masm.RBX, nil, slow)
	m.IsUnboxed(masm.RBX, nil, slow)
	m.IsHeapObject(heap.TagString, masm.RBX, slow, nil)

	// rdx = scan index, r9 = key hash, r15 = mask, r14 = slots left, r13 = map
	m.StringHash(masm.RBX, masm.RDX)
	m.Mov(masm.R9, masm.RDX)
	m.Load(masm.R15, masm.At(masm.RAX, heap.ObjectMaskOffset))
	m.And(masm.RDX, masm.R15)
	m.Mov(masm.R14, masm.R15)
	m.Inc(masm.R14)
	m.Load(masm.R13, masm.At(masm.RAX, heap.ObjectMapOffset))

	m.Bind(scan)
	m.Mov(masm.Scratch, masm.RDX)
	m.Shl(masm.Scratch, 3)
	m.Add(masm.Scratch, masm.R13)
	m.AddImm(masm.Scratch, heap.MapSpaceOffset)
	m.Load(masm.R12, masm.At(masm.Scratch, 0))
	m.Cmp(masm.R12, masm.RBX)
	m.J(masm.Equal, match)
	m.Test(masm.R12, masm.R12)
	m.J(masm.NotZero, occupied)

	// Empty slot: the key is absent
	m.Test(masm.RCX, masm.RCX)
	m.J(masm.Zero, match)
	m.Store(masm.At(masm.Scratch, 0), masm.RBX)
	m.Jmp(match)

	// Another key. Equal hashes need a byte compare, which the host does.
	m.Bind(occupied)
	m.IsUnboxed(masm.R12, nil, slow)
	m.IsHeapObject(heap.TagString, masm.R12, slow, nil)
	m.Load32(masm.R12, masm.At(masm.R12, heap.StringHashOffset))
	m.Cmp(masm.R12, masm.R9)
	m.J(masm.Equal, slow)
	m.Inc(masm.RDX)
	m.And(masm.RDX, masm.R15)
	m.Dec(masm.R14)
	m.J(masm.NotZero, scan)
	m.Jmp(slow)

	m.Bind(match)
	m.Mov(masm.RAX, masm.R15)
	m.Inc(masm.RAX)
	m.Shl(masm.RAX, 3)
	m.Add(masm.RAX, masm.Scratch)
	m.Jmp(done)

	// Arrays keep values in the key slots, indexed directly
	inRange := masm.NewLabel()
	m.Bind(notObject)
	m.IsHeapObject(heap.TagArray, masm.RAX, nonObject, nil)
	m.IsUnboxed(masm.RBX, slow, nil)
	m.CmpImm(masm.RBX, 1)
	m.J(masm.Less, slow)
	m.Mov(masm.RDX, masm.RBX)
	m.Untag(masm.RDX)
	m.Load(masm.R15, masm.At(masm.RAX, heap.ObjectMaskOffset))
	m.Cmp(masm.RDX, masm.R15)
	m.J(masm.Above, slow)
	m.Mov(masm.R14, masm.RDX)
	m.Inc(masm.R14)
	m.CmpMem(masm.R14, masm.At(masm.RAX, heap.ArrayLengthOffset))
	m.J(masm.LessEq, inRange)
	m.Store(masm.At(masm.RAX, heap.ArrayLengthOffset), masm.R14)
	m.Bind(inRange)
	m.Load(masm.RAX, masm.At(masm.RAX, heap.ObjectMapOffset))
	m.Shl(masm.RDX, 3)
	m.Add(masm.RAX, masm.RDX)
	m.AddImm(masm.RAX, heap.MapSpaceOffset)
	m.Jmp(done)

	m.Bind(slow)
	m.CallHost(lib.cb.LookupProperty, masm.RAX, func() {
		m.Mov(masm.RSI, masm.RAX)
		m.Mov(masm.RDX, masm.RBX)
		lib.loadHeap()
	})
	m.CheckGC()
	m.Jmp(done)

	m.Bind(nonObject)
	m.Xor(masm.RAX, masm.RAX)

	m.Bind(done)
	for i := len(lookupSaved) - 1; i >= 0; i-- {
		m.Pop(lookupSaved[i])
	}
	m.Epilogue(f, 0)
}

// coerceToBoolean maps rax to the root true or false object
func (lib *Library) coerceToBoolean() {
	m := lib.m
	f := m.Prologue()
	unboxed, truthy, runtime, done := masm.NewLabel(), masm.NewLabel(), masm.NewLabel(), masm.NewLabel()
	m.IsNil(masm.RAX, nil, runtime)
	m.IsUnboxed(masm.RAX, nil, unboxed)
	m.IsHeapObject(heap.TagBoolean, masm.RAX, runtime, done)

	m.Bind(unboxed)
	m.CmpImm(masm.RAX, int32(heap.SmallInt(0)))
	m.J(masm.NotEqual, truthy)
	m.Load(masm.RAX, masm.RootSlot(heap.RootFalseIndex))
	m.Jmp(done)
	m.Bind(truthy)
	m.Load(masm.RAX, masm.RootSlot(heap.RootTrueIndex))
	m.Jmp(done)

	m.Bind(runtime)
	lib.callValue(lib.cb.ToBoolean)
	m.CheckGC()

	m.Bind(done)
	m.Epilogue(f, 0)
}

// cloneObject makes a shallow copy of the object in rax. Anything that is
// not a plain object clones to nil.
func (lib *Library) cloneObject() {
	m := lib.m
	f := m.Prologue()
	saved := []masm.Reg{masm.RBX, masm.RCX, masm.RDX, masm.R12, masm.R13}
	for _, r := range saved {
		m.Push(r)
	}
	nonObject, restore := masm.NewLabel(), masm.NewLabel()
	m.IsNil(masm.RAX, nil, nonObject)
	m.IsUnboxed(masm.RAX, nil, nonObject)
	m.IsHeapObject(heap.TagObject, masm.RAX, nonObject, nil)

	m.Load(masm.R12, masm.At(masm.RAX, heap.ObjectMapOffset))
	m.Load(masm.RCX, masm.At(masm.R12, heap.MapSizeOffset))
	m.TagNumber(masm.RCX)
	m.AllocateObjectLiteral(heap.TagObject, masm.RCX, masm.RDX)

	// Copy the key and value halves of the map
	loop, copied := masm.NewLabel(), masm.NewLabel()
	m.Load(masm.R13, masm.At(masm.RDX, heap.ObjectMapOffset))
	m.Load(masm.RCX, masm.At(masm.R12, heap.MapSizeOffset))
	m.Shl(masm.RCX, 1)
	m.Bind(loop)
	m.Test(masm.RCX, masm.RCX)
	m.J(masm.Zero, copied)
	m.Load(masm.Scratch, masm.At(masm.R12, heap.MapSpaceOffset))
	m.Store(masm.At(masm.R13, heap.MapSpaceOffset), masm.Scratch)
	m.AddImm(masm.R12, 8)
	m.AddImm(masm.R13, 8)
	m.Dec(masm.RCX)
	m.Jmp(loop)
	m.Bind(copied)
	m.Mov(masm.RAX, masm.RDX)
	m.CheckGC()
	m.Jmp(restore)

	m.Bind(nonObject)
	m.Xor(masm.RAX, masm.RAX)

	m.Bind(restore)
	for i := len(saved) - 1; i >= 0; i-- {
		m.Pop(saved[i])
	}
	m.Epilogue(f, 0)
}

// deleteProperty removes key rbx from object rax. Returns nil.
func (lib *Library) deleteProperty() {
	m := lib.m
	f := m.Prologue()
	m.CallHost(lib.cb.DeleteProperty, masm.NoReg, func() {
		m.Mov(masm.RSI, masm.RAX)
		m.Mov(masm.RDX, masm.RBX)
		lib.loadHeap()
	})
	m.Xor(masm.RAX, masm.RAX)
	m.CheckGC()
	m.Epilogue(f, 0)
}
