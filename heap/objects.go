package heap

import (
	"fmt"
	"math"

	"github.com/xyproto/lirjit/internal/engine"
)

// NewNumber allocates a boxed IEEE-754 double
func (h *Heap) NewNumber(f float64) Value {
	v := h.Allocate(TagNumber, NumberSize)
	h.SetWord(v.Addr()+NumberValueOffset, math.Float64bits(f))
	return v
}

// NumberOf returns the payload of a boxed number
func (h *Heap) NumberOf(v Value) float64 {
	return math.Float64frombits(h.Word(v.Addr() + NumberValueOffset))
}

// NewBoolean allocates a boolean. Only the root context should hold these;
// use Boolean to get the canonical instances.
func (h *Heap) NewBoolean(b bool) Value {
	v := h.Allocate(TagBoolean, BooleanSize)
	if b {
		h.SetWord(v.Addr()+BooleanValueOffset, 1)
	}
	return v
}

// Boolean returns the root true or false instance
func (h *Heap) Boolean(b bool) Value {
	if b {
		return h.Root(RootTrueIndex)
	}
	return h.Root(RootFalseIndex)
}

// BooleanOf returns the payload of a boolean
func (h *Heap) BooleanOf(v Value) bool {
	return h.Word(v.Addr()+BooleanValueOffset) != 0
}

// NewString allocates a string. Its hash is computed lazily.
func (h *Heap) NewString(s string) Value {
	v := h.Allocate(TagString, StringBytes(len(s)))
	h.SetWord(v.Addr()+StringLengthOffset, uint64(len(s)))
	if len(s) > 0 {
		copy(h.region(v.Addr()+StringValueOffset, len(s)).Bytes(v.Addr()+StringValueOffset, len(s)), s)
	}
	return v
}

// StringLength returns the byte length of a string
func (h *Heap) StringLength(v Value) int {
	return int(h.Word(v.Addr() + StringLengthOffset))
}

// StringBytesOf returns the bytes of a string without copying
func (h *Heap) StringBytesOf(v Value) []byte {
	n := h.StringLength(v)
	if n == 0 {
		return nil
	}
	addr := v.Addr() + StringValueOffset
	return h.region(addr, n).Bytes(addr, n)
}

// StringOf copies a string out of the heap
func (h *Heap) StringOf(v Value) string {
	return string(h.StringBytesOf(v))
}

// CachedStringHash returns the stored hash, zero when not yet computed
func (h *Heap) CachedStringHash(v Value) uint32 {
	return h.region(v.Addr()+StringHashOffset, 4).Uint32(v.Addr() + StringHashOffset)
}

// StringHash returns the hash of a string, computing and caching it on first use
func (h *Heap) StringHash(v Value) uint32 {
	addr := v.Addr() + StringHashOffset
	r := h.region(addr, 4)
	if hash := r.Uint32(addr); hash != 0 {
		return hash
	}
	hash := HashBytes(h.StringBytesOf(v))
	r.SetUint32(addr, hash)
	return hash
}

// StringEquals compares two strings by contents
func (h *Heap) StringEquals(a, b Value) bool {
	if a == b {
		return true
	}
	if h.StringLength(a) != h.StringLength(b) {
		return false
	}
	return string(h.StringBytesOf(a)) == string(h.StringBytesOf(b))
}

// NewMap allocates a zeroed map of the given power-of-two capacity
func (h *Heap) NewMap(capacity int) uintptr {
	if !engine.IsPowerOfTwo(capacity) {
		engine.Fatalf(engine.CategoryRuntime, "map capacity %d is not a power of two", capacity)
	}
	m := h.Allocate(TagMap, MapBytes(capacity))
	h.SetWord(m.Addr()+MapSizeOffset, uint64(capacity))
	// New pages are zero-filled, but space reused after a collection is not
	for i := 0; i < 2*capacity; i++ {
		h.SetWord(m.Addr()+MapSpaceOffset+uintptr(i*PointerSize), 0)
	}
	return m.Addr()
}

// MapCapacity returns the number of key slots in a map
func (h *Heap) MapCapacity(m uintptr) int {
	return int(h.Word(m + MapSizeOffset))
}

// NewObject allocates an object with room for capacity properties.
// The capacity is rounded up to a power of two.
func (h *Heap) NewObject(capacity int) Value {
	return h.newObjectLike(TagObject, ObjectSize, capacity)
}

// NewArray allocates an empty array with room for capacity elements
func (h *Heap) NewArray(capacity int) Value {
	return h.newObjectLike(TagArray, ArraySize, capacity)
}

func (h *Heap) newObjectLike(tag Tag, size, capacity int) Value {
	capacity = engine.PowerOfTwo(capacity)
	obj := h.Allocate(tag, size)
	m := h.NewMap(capacity)
	h.SetWord(obj.Addr()+ObjectMaskOffset, uint64(capacity-1))
	h.SetWord(obj.Addr()+ObjectMapOffset, uint64(m))
	if tag == TagArray {
		h.SetWord(obj.Addr()+ArrayLengthOffset, 0)
	}
	return obj
}

// ObjectMask returns capacity-1 of an object's map
func (h *Heap) ObjectMask(obj Value) uint64 { return h.Word(obj.Addr() + ObjectMaskOffset) }

// ObjectMap returns the address of an object's map
func (h *Heap) ObjectMap(obj Value) uintptr { return uintptr(h.Word(obj.Addr() + ObjectMapOffset)) }

// KeySlot returns the address of key slot i of an object's map
func (h *Heap) KeySlot(obj Value, i int) uintptr {
	return h.ObjectMap(obj) + MapSpaceOffset + uintptr(i*PointerSize)
}

// ValueSlot returns the value slot paired with a key slot
func (h *Heap) ValueSlot(obj Value, keySlot uintptr) uintptr {
	return keySlot + uintptr(h.ObjectMask(obj)+1)*PointerSize
}

// ArrayLength returns the logical length of an array
func (h *Heap) ArrayLength(arr Value) int64 { return int64(h.Word(arr.Addr() + ArrayLengthOffset)) }

// SetArrayLength stores the logical length of an array
func (h *Heap) SetArrayLength(arr Value, n int64) { h.SetWord(arr.Addr()+ArrayLengthOffset, uint64(n)) }

// ArrayElement returns element i of an array, Nil beyond the capacity
func (h *Heap) ArrayElement(arr Value, i int) Value {
	if i < 0 || uint64(i) > h.ObjectMask(arr) {
		return Nil
	}
	return h.Load(h.KeySlot(arr, i))
}

// NewContext allocates a context with n nil slots
func (h *Heap) NewContext(parent Value, n int) Value {
	ctx := h.Allocate(TagContext, ContextBytes(n))
	h.Store(ctx.Addr()+ContextParentOffset, parent)
	h.SetWord(ctx.Addr()+ContextSizeOffset, uint64(n))
	for i := 0; i < n; i++ {
		h.Store(ctx.Addr()+uintptr(ContextSlotDisp(i)), Nil)
	}
	return ctx
}

// ContextParent returns the enclosing context
func (h *Heap) ContextParent(ctx Value) Value { return h.Load(ctx.Addr() + ContextParentOffset) }

// ContextSize returns the number of slots in a context
func (h *Heap) ContextSize(ctx Value) int { return int(h.Word(ctx.Addr() + ContextSizeOffset)) }

// ContextSlot returns slot i of a context
func (h *Heap) ContextSlot(ctx Value, i int) Value {
	h.checkContextSlot(ctx, i)
	return h.Load(ctx.Addr() + uintptr(ContextSlotDisp(i)))
}

// SetContextSlot stores v in slot i of a context
func (h *Heap) SetContextSlot(ctx Value, i int, v Value) {
	h.checkContextSlot(ctx, i)
	h.Store(ctx.Addr()+uintptr(ContextSlotDisp(i)), v)
}

func (h *Heap) checkContextSlot(ctx Value, i int) {
	if n := h.ContextSize(ctx); i < 0 || i >= n {
		panic(fmt.Sprintf("heap: context slot %d out of range [0, %d)", i, n))
	}
}

// NewFunction allocates a function object
func (h *Heap) NewFunction(parent Value, code uintptr, root Value, argc int) Value {
	fn := h.Allocate(TagFunction, FunctionSize)
	h.Store(fn.Addr()+FunctionParentOffset, parent)
	h.SetWord(fn.Addr()+FunctionCodeOffset, uint64(code))
	h.Store(fn.Addr()+FunctionRootOffset, root)
	h.SetWord(fn.Addr()+FunctionArgcOffset, uint64(argc))
	return fn
}

// FunctionCode returns the entry address of a function
func (h *Heap) FunctionCode(fn Value) uintptr { return uintptr(h.Word(fn.Addr() + FunctionCodeOffset)) }

// FunctionParent returns the context a function closes over
func (h *Heap) FunctionParent(fn Value) Value { return h.Load(fn.Addr() + FunctionParentOffset) }

// FunctionArgc returns the declared argument count
func (h *Heap) FunctionArgc(fn Value) int { return int(h.Word(fn.Addr() + FunctionArgcOffset)) }

// TypeOf returns the tag of any value, including unboxed ones
func (h *Heap) TypeOf(v Value) Tag {
	switch {
	case v.IsNil():
		return TagNil
	case v.IsUnboxed():
		return TagNumber
	default:
		return h.Tag(v)
	}
}
