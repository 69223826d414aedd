package rt

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/stubs"
)

// Typeof returns the root string naming the type of v
func (r *Runtime) Typeof(v heap.Value) heap.Value {
	return r.heap.Root(heap.RootTypeIndex(r.heap.TypeOf(v)))
}

// Sizeof mirrors the sizeof stub: string and array lengths inline, the
// runtime for everything else
func (r *Runtime) Sizeof(v heap.Value) heap.Value {
	h := r.heap
	switch {
	case h.Is(v, heap.TagString):
		return heap.SmallInt(int64(h.StringLength(v)))
	case h.Is(v, heap.TagArray):
		return heap.SmallInt(h.ArrayLength(v))
	}
	r.fallback("sizeof")
	return r.RuntimeSizeof(v)
}

// RuntimeSizeof counts the properties of objects. Other values are 0.
func (r *Runtime) RuntimeSizeof(v heap.Value) heap.Value {
	h := r.heap
	switch {
	case h.Is(v, heap.TagString):
		return heap.SmallInt(int64(h.StringLength(v)))
	case h.Is(v, heap.TagArray):
		return heap.SmallInt(h.ArrayLength(v))
	case h.Is(v, heap.TagObject):
		return heap.SmallInt(int64(h.PropertyCount(v)))
	}
	return heap.SmallInt(0)
}

// Keysof always calls the runtime
func (r *Runtime) Keysof(v heap.Value) heap.Value {
	r.fallback("keysof")
	return r.RuntimeKeysof(v)
}

// RuntimeKeysof returns a new array of an object's keys in slot order, or
// of an array's indexes. Any other value has no keys and yields nil.
func (r *Runtime) RuntimeKeysof(v heap.Value) heap.Value {
	h := r.heap
	var keys []heap.Value
	switch {
	case h.Is(v, heap.TagObject):
		keys = h.Keys(v)
	case h.Is(v, heap.TagArray):
		for i := int64(0); i < h.ArrayLength(v); i++ {
			keys = append(keys, heap.SmallInt(i))
		}
	default:
		return heap.Nil
	}
	arr := h.NewArray(len(keys))
	for i, key := range keys {
		h.Store(r.RuntimeLookupProperty(arr, heap.SmallInt(int64(i)), true), key)
	}
	return arr
}

// CloneObject mirrors the clone stub: a shallow copy of a plain object,
// with the same capacity and slot layout. Anything else clones to nil.
func (r *Runtime) CloneObject(v heap.Value) heap.Value {
	h := r.heap
	if !h.Is(v, heap.TagObject) {
		return heap.Nil
	}
	src := h.ObjectMap(v)
	capacity := h.MapCapacity(src)
	clone := r.AllocateObject(heap.TagObject, capacity)
	dst := h.ObjectMap(clone)
	for i := 0; i < 2*capacity; i++ {
		off := uintptr(heap.MapSpaceOffset + i*heap.PointerSize)
		h.SetWord(dst+off, h.Word(src+off))
	}
	r.CheckGC(0)
	return clone
}

// DeleteProperty always calls the runtime
func (r *Runtime) DeleteProperty(obj, key heap.Value) {
	r.fallback("delete")
	r.RuntimeDeleteProperty(obj, key)
}

// RuntimeDeleteProperty removes key from an object, or clears an array
// element. Missing keys and non-objects are ignored.
func (r *Runtime) RuntimeDeleteProperty(obj, key heap.Value) {
	h := r.heap
	switch {
	case h.Is(obj, heap.TagObject):
		if key == heap.Nil {
			return
		}
		if res := h.FindKey(obj, key); res.Found {
			h.RemoveAt(obj, res.KeySlot)
		}
	case h.Is(obj, heap.TagArray):
		if slot := r.RuntimeLookupProperty(obj, key, false); slot != 0 {
			h.Store(slot, heap.Nil)
		}
	}
}

// Hash is the routine behind the hash stub
func (r *Runtime) Hash(str heap.Value) uint32 {
	return r.heap.StringHash(str)
}

// maxTraceFrames bounds the frame walk of StackTrace
const maxTraceFrames = 1024

// StackTrace walks rbp-linked frames from frame, starting at the code
// address ip, and returns an array of the source positions of every
// generated frame. read loads a word of stack memory. The walk stops at
// the entry stub's frame or at the first address without a position.
func (r *Runtime) StackTrace(frame, ip uintptr, read func(addr uintptr) uint64) heap.Value {
	h := r.heap
	var positions []heap.Value
	for len(positions) < maxTraceFrames && frame != 0 {
		pos, ok := h.SourceMap().Lookup(ip)
		if !ok {
			break
		}
		positions = append(positions, heap.SmallInt(int64(pos)))
		ip = uintptr(read(frame + heap.PointerSize))
		frame = uintptr(read(frame))
		if frame == 0 || read(frame-stubs.EntryMarkerDepth) == masm.EnterFrameTag {
			break
		}
	}
	arr := h.NewArray(max(len(positions), 1))
	for i, pos := range positions {
		h.Store(r.RuntimeLookupProperty(arr, heap.SmallInt(int64(i)), true), pos)
	}
	return arr
}

// CollectGarbage runs the heap's collector, if it has one, and clears the
// pending request
func (r *Runtime) CollectGarbage(stackTop uintptr) error {
	h := r.heap
	r.stats.Collections++
	defer h.CollectionDone()
	if c := h.Collector(); c != nil {
		return c.Collect(h, stackTop)
	}
	return nil
}

// CheckGC mirrors the collector check the stubs emit before returning
func (r *Runtime) CheckGC(stackTop uintptr) error {
	r.stats.GCChecks++
	if !r.heap.NeedsGC() {
		return nil
	}
	return r.CollectGarbage(stackTop)
}

// VarArg mirrors the rest-argument stub: a fresh array holding args
func (r *Runtime) VarArg(args []heap.Value) heap.Value {
	arr := r.AllocateObject(heap.TagArray, heap.VarArgLength)
	for i, v := range args {
		r.heap.Store(r.LookupProperty(arr, heap.SmallInt(int64(i)), true), v)
	}
	r.CheckGC(0)
	return arr
}

// PutVarArg mirrors the spread stub: the elements of arr in index order,
// holes read as nil
func (r *Runtime) PutVarArg(arr heap.Value) []heap.Value {
	h := r.heap
	n := h.ArrayLength(arr)
	out := make([]heap.Value, 0, n)
	for i := int64(0); i < n; i++ {
		v := heap.Nil
		if slot := r.LookupProperty(arr, heap.SmallInt(i), false); slot != 0 {
			v = h.Load(slot)
		}
		out = append(out, v)
	}
	return out
}
