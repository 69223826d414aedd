package heap

import "github.com/xyproto/lirjit/internal/engine"

// ScanStep is a matcher's verdict on one occupied key slot
type ScanStep int

const (
	// ScanContinue moves on to the next slot
	ScanContinue ScanStep = iota
	// ScanMatch stops at this slot
	ScanMatch
	// ScanBail gives up; the caller must take the slow path
	ScanBail
)

// ScanResult is where a linear scan stopped
type ScanResult struct {
	KeySlot uintptr
	Index   int
	Steps   int
	Found   bool // stopped on a matching key
	Empty   bool // stopped on an empty slot
	Bailed  bool // the matcher gave up
	Wrapped bool // every slot was visited without a verdict
}

// Scan walks an object's map from hash & mask, one slot at a time with
// wrap-around, asking match about every occupied slot. An empty key slot
// ends the walk. The inline lookup stub and the runtime lookup share it.
func (h *Heap) Scan(obj Value, hash uint32, match func(stored Value) ScanStep) ScanResult {
	mask := h.ObjectMask(obj)
	space := h.ObjectMap(obj) + MapSpaceOffset
	start := uint64(hash) & mask
	for n := uint64(0); n <= mask; n++ {
		i := int((start + n) & mask)
		slot := space + uintptr(i*PointerSize)
		res := ScanResult{KeySlot: slot, Index: i, Steps: int(n) + 1}
		stored := h.Load(slot)
		if stored == Nil {
			res.Empty = true
			return res
		}
		switch match(stored) {
		case ScanMatch:
			res.Found = true
			return res
		case ScanBail:
			res.Bailed = true
			return res
		}
	}
	return ScanResult{Wrapped: true, Steps: int(mask) + 1}
}

// KeyHash hashes a property key. Strings use their cached hash; every
// other key hashes on its raw bits.
func (h *Heap) KeyHash(key Value) uint32 {
	if h.Is(key, TagString) {
		return h.StringHash(key)
	}
	x := uint64(key)
	if h.Is(key, TagNumber) {
		x = h.Word(key.Addr() + NumberValueOffset)
	}
	return uint32(x ^ x>>32)
}

// KeysEqual is the runtime's full key comparison
func (h *Heap) KeysEqual(a, b Value) bool {
	if a == b {
		return true
	}
	if h.Is(a, TagString) && h.Is(b, TagString) {
		return h.StringEquals(a, b)
	}
	if h.Is(a, TagNumber) && h.Is(b, TagNumber) {
		return h.NumberOf(a) == h.NumberOf(b)
	}
	return false
}

// FindKey locates key with full comparison. It never bails.
func (h *Heap) FindKey(obj Value, key Value) ScanResult {
	return h.Scan(obj, h.KeyHash(key), func(stored Value) ScanStep {
		if h.KeysEqual(stored, key) {
			return ScanMatch
		}
		return ScanContinue
	})
}

// GrowObject doubles an object's map until it has room for at least
// minCapacity keys, rehashing every entry. Arrays keep indices in place.
func (h *Heap) GrowObject(obj Value, minCapacity int) {
	oldMask := h.ObjectMask(obj)
	oldCap := int(oldMask + 1)
	newCap := oldCap * 2
	for newCap < minCapacity {
		newCap *= 2
	}
	oldSpace := h.ObjectMap(obj) + MapSpaceOffset
	m := h.NewMap(newCap)
	h.SetWord(obj.Addr()+ObjectMapOffset, uint64(m))
	h.SetWord(obj.Addr()+ObjectMaskOffset, uint64(newCap-1))

	isArray := h.Tag(obj) == TagArray
	for i := 0; i < oldCap; i++ {
		key := h.Load(oldSpace + uintptr(i*PointerSize))
		if isArray {
			h.Store(h.KeySlot(obj, i), key)
			continue
		}
		if key == Nil {
			continue
		}
		val := h.Load(oldSpace + uintptr((oldCap+i)*PointerSize))
		h.insertFresh(obj, key, val)
	}
	engine.Verbosef("heap: grew %s %#x from %d to %d slots", h.Tag(obj), obj.Addr(), oldCap, newCap)
}

// insertFresh stores a key known to be absent
func (h *Heap) insertFresh(obj Value, key, val Value) {
	res := h.Scan(obj, h.KeyHash(key), func(Value) ScanStep { return ScanContinue })
	if !res.Empty {
		engine.Fatalf(engine.CategoryRuntime, "no free slot while rehashing %#x", obj.Addr())
	}
	h.Store(res.KeySlot, key)
	h.Store(h.ValueSlot(obj, res.KeySlot), val)
}

// RemoveAt clears a key slot and its value, then reinserts the rest of the
// scan cluster so later keys stay reachable.
func (h *Heap) RemoveAt(obj Value, keySlot uintptr) {
	h.Store(keySlot, Nil)
	h.Store(h.ValueSlot(obj, keySlot), Nil)

	mask := h.ObjectMask(obj)
	space := h.ObjectMap(obj) + MapSpaceOffset
	i := uint64(keySlot-space) / PointerSize
	for n := uint64(1); n <= mask; n++ {
		slot := space + uintptr(((i+n)&mask)*PointerSize)
		key := h.Load(slot)
		if key == Nil {
			return
		}
		val := h.Load(h.ValueSlot(obj, slot))
		h.Store(slot, Nil)
		h.Store(h.ValueSlot(obj, slot), Nil)
		h.insertFresh(obj, key, val)
	}
}

// PropertyCount counts occupied key slots
func (h *Heap) PropertyCount(obj Value) int {
	n := 0
	capacity := int(h.ObjectMask(obj) + 1)
	for i := 0; i < capacity; i++ {
		if h.Load(h.KeySlot(obj, i)) != Nil {
			n++
		}
	}
	return n
}

// Keys returns the occupied keys of an object in slot order
func (h *Heap) Keys(obj Value) []Value {
	var keys []Value
	capacity := int(h.ObjectMask(obj) + 1)
	for i := 0; i < capacity; i++ {
		if key := h.Load(h.KeySlot(obj, i)); key != Nil {
			keys = append(keys, key)
		}
	}
	return keys
}
