package rt

import (
	"math"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/engine"
)

// Allocate mirrors the allocation stub: bump new space when the request
// fits the current page, otherwise ask the runtime allocator, then stamp
// the tag. The rest of the object is left as the page holds it.
func (r *Runtime) Allocate(tag heap.Tag, size int) heap.Value {
	sp := r.heap.NewSpace()
	bytes := uintptr(engine.AlignUp(size, heap.PointerSize))
	top, limit := sp.Top(), sp.Limit()
	var addr uintptr
	if end := top + bytes; top != 0 && end >= top && end <= limit {
		sp.SetTop(end)
		addr = top
		r.stats.FastAllocations++
	} else {
		addr = r.RuntimeAllocate(size)
	}
	r.heap.SetWord(addr+heap.TagOffset, uint64(tag))
	return heap.FromAddr(addr)
}

// RuntimeAllocate is the host routine behind the allocation stub. It may
// open a page and request a collection.
func (r *Runtime) RuntimeAllocate(size int) uintptr {
	r.fallback("allocate")
	r.stats.RuntimeAllocations++
	return r.heap.NewSpace().Allocate(size)
}

// AllocateNumber boxes f the way the stubs do
func (r *Runtime) AllocateNumber(f float64) heap.Value {
	v := r.Allocate(heap.TagNumber, heap.NumberSize)
	r.heap.SetWord(v.Addr()+heap.NumberValueOffset, math.Float64bits(f))
	return v
}

// AllocateObject mirrors the object literal macro: a cleared map of the
// given capacity, then the object or array pointing at it
func (r *Runtime) AllocateObject(tag heap.Tag, capacity int) heap.Value {
	if tag != heap.TagObject && tag != heap.TagArray {
		engine.Fatalf(engine.CategoryRuntime, "object literal with tag %s", tag)
	}
	if !engine.IsPowerOfTwo(capacity) {
		engine.Fatalf(engine.CategoryRuntime, "object literal capacity %d is not a power of two", capacity)
	}
	h := r.heap
	m := r.Allocate(heap.TagMap, heap.MapBytes(capacity))
	h.SetWord(m.Addr()+heap.MapSizeOffset, uint64(capacity))
	for i := 0; i < 2*capacity; i++ {
		h.SetWord(m.Addr()+heap.MapSpaceOffset+uintptr(i*heap.PointerSize), 0)
	}

	size := heap.ObjectSize
	if tag == heap.TagArray {
		size = heap.ArraySize
	}
	obj := r.Allocate(tag, size)
	h.SetWord(obj.Addr()+heap.ObjectMapOffset, uint64(m.Addr()))
	h.SetWord(obj.Addr()+heap.ObjectMaskOffset, uint64(capacity-1))
	if tag == heap.TagArray {
		h.SetArrayLength(obj, 0)
	}
	return obj
}
