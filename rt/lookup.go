package rt

import (
	"github.com/xyproto/lirjit/heap"
)

// LookupProperty mirrors the lookup stub. It returns the address of the
// value slot for key in obj, or 0 when obj is not an object. With insert
// set, an absent key is added. An absent key without insert yields the
// empty slot's value address, which reads as nil.
func (r *Runtime) LookupProperty(obj, key heap.Value, insert bool) uintptr {
	h := r.heap
	if !obj.IsHeapObject() {
		return 0
	}
	switch h.Tag(obj) {
	case heap.TagObject:
		if h.Is(key, heap.TagString) {
			if slot, ok := r.scanString(obj, key, insert); ok {
				return slot
			}
		}
	case heap.TagArray:
		if key.IsUnboxed() && key.Int() >= 0 && uint64(key.Int()) <= h.ObjectMask(obj) {
			return r.arraySlot(obj, key.Int())
		}
	default:
		return 0
	}
	r.fallback("lookup")
	return r.RuntimeLookupProperty(obj, key, insert)
}

// scanString is the inline scan for string keys. It compares keys by
// identity and cached hash only, so it gives up when a stored key has the
// same hash or is not a string.
func (r *Runtime) scanString(obj, key heap.Value, insert bool) (uintptr, bool) {
	h := r.heap
	hash := h.StringHash(key)
	res := h.Scan(obj, hash, func(stored heap.Value) heap.ScanStep {
		switch {
		case stored == key:
			return heap.ScanMatch
		case !h.Is(stored, heap.TagString):
			return heap.ScanBail
		case h.CachedStringHash(stored) == hash:
			return heap.ScanBail
		}
		return heap.ScanContinue
	})
	switch {
	case res.Found:
		return h.ValueSlot(obj, res.KeySlot), true
	case res.Empty:
		if insert {
			h.Store(res.KeySlot, key)
		}
		return h.ValueSlot(obj, res.KeySlot), true
	case res.Wrapped:
		r.stats.Wraps++
	}
	return 0, false
}

// arraySlot returns the slot of an index inside the array's capacity,
// extending the logical length to cover it
func (r *Runtime) arraySlot(arr heap.Value, i int64) uintptr {
	h := r.heap
	if i+1 > h.ArrayLength(arr) {
		h.SetArrayLength(arr, i+1)
	}
	return h.KeySlot(arr, int(i))
}

// RuntimeLookupProperty is the host routine behind the lookup stub: full
// key comparison, any key type, and growth of full maps and short arrays
func (r *Runtime) RuntimeLookupProperty(obj, key heap.Value, insert bool) uintptr {
	h := r.heap
	if !r.isObjectLike(obj) || key == heap.Nil {
		return 0
	}
	if h.Tag(obj) == heap.TagArray {
		return r.arrayLookup(obj, key, insert)
	}
	for {
		res := h.FindKey(obj, key)
		switch {
		case res.Found:
			return h.ValueSlot(obj, res.KeySlot)
		case res.Empty:
			if insert {
				h.Store(res.KeySlot, key)
			}
			return h.ValueSlot(obj, res.KeySlot)
		}
		// Every slot holds another key
		r.stats.Wraps++
		if !insert {
			return 0
		}
		r.grow(obj, int(h.ObjectMask(obj)+1)*2)
	}
}

// arrayLookup accepts any number as an index. Indexes beyond the capacity
// grow the array on insert and read as nil otherwise.
func (r *Runtime) arrayLookup(arr, key heap.Value, insert bool) uintptr {
	h := r.heap
	var i int64
	switch {
	case key.IsUnboxed():
		i = key.Int()
	case h.Is(key, heap.TagNumber):
		i = truncate(h.NumberOf(key))
	default:
		return 0
	}
	if i < 0 {
		return 0
	}
	if uint64(i) > h.ObjectMask(arr) {
		if !insert {
			return 0
		}
		r.grow(arr, int(i)+1)
	}
	return r.arraySlot(arr, i)
}

func (r *Runtime) grow(obj heap.Value, minCapacity int) {
	r.stats.Growths++
	r.heap.GrowObject(obj, minCapacity)
}
