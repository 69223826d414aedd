package rt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xyproto/lirjit/heap"
)

func TestAllocateBumpsTop(t *testing.T) {
	r := newRuntime(t)
	sp := r.Heap().NewSpace()
	top := sp.Top()
	v := r.Allocate(heap.TagNumber, heap.NumberSize)
	if v.Addr() != top {
		t.Errorf("Expected the object at %#x, got %#x", top, v.Addr())
	}
	if sp.Top() != top+heap.NumberSize {
		t.Errorf("Expected top to advance by %d, got %#x", heap.NumberSize, sp.Top()-top)
	}
	if r.Heap().Tag(v) != heap.TagNumber {
		t.Errorf("Expected a number tag, got %s", r.Heap().Tag(v))
	}
	if s := r.Stats(); s.FastAllocations != 1 || s.RuntimeAllocations != 0 {
		t.Errorf("Expected one fast allocation, got %+v", s)
	}
}

func TestAllocateRoundsUp(t *testing.T) {
	r := newRuntime(t)
	sp := r.Heap().NewSpace()
	top := sp.Top()
	r.Allocate(heap.TagString, heap.StringBytes(3))
	if got := sp.Top() - top; got != 32 {
		t.Errorf("Expected 27 bytes to take 32, got %d", got)
	}
}

// fill exhausts the current page so the next allocation takes the runtime path
func fill(r *Runtime) {
	sp := r.Heap().NewSpace()
	sp.SetTop(sp.Limit())
}

func TestFastAndRuntimeAllocationsAgree(t *testing.T) {
	r := newRuntimeWith(t, 4096, 1<<20)
	h := r.Heap()

	build := func() (heap.Value, uintptr) {
		obj := r.AllocateObject(heap.TagObject, 8)
		key := h.NewString("field")
		slot := r.LookupProperty(obj, key, true)
		h.Store(slot, heap.SmallInt(1))
		return obj, slot - h.ObjectMap(obj)
	}

	fast, fastOff := build()
	if r.Stats().RuntimeAllocations != 0 {
		t.Fatalf("Expected the first object from the bump path, got %+v", r.Stats())
	}
	fill(r)
	slow, slowOff := build()
	if r.Stats().RuntimeAllocations == 0 {
		t.Fatalf("Expected the second object from the runtime path, got %+v", r.Stats())
	}

	type shape struct {
		Tag      heap.Tag
		Mask     uint64
		MapTag   heap.Tag
		MapSize  int
		SlotOff  uintptr
		Keys     int
		ValueOne heap.Value
	}
	describe := func(obj heap.Value, off uintptr) shape {
		m := heap.FromAddr(h.ObjectMap(obj))
		return shape{
			Tag:      h.Tag(obj),
			Mask:     h.ObjectMask(obj),
			MapTag:   h.Tag(m),
			MapSize:  h.MapCapacity(m.Addr()),
			SlotOff:  off,
			Keys:     h.PropertyCount(obj),
			ValueOne: h.Load(r.LookupProperty(obj, h.NewString("field"), false)),
		}
	}
	if diff := cmp.Diff(describe(fast, fastOff), describe(slow, slowOff)); diff != "" {
		t.Errorf("objects differ (-fast +runtime):\n%s", diff)
	}
}

func TestRuntimeAllocationRequestsGC(t *testing.T) {
	r := newRuntimeWith(t, 4096, 64)
	fill(r)
	r.Allocate(heap.TagNumber, 128)
	if !r.Heap().NeedsGC() {
		t.Fatal("Expected crossing the threshold to request a collection")
	}
	if err := r.CheckGC(0); err != nil {
		t.Fatalf("CheckGC: %v", err)
	}
	if r.Heap().NeedsGC() {
		t.Error("Expected the collection to clear the request")
	}
	if s := r.Stats(); s.Collections != 1 || s.GCChecks != 1 {
		t.Errorf("Expected one check and one collection, got %+v", s)
	}
}

type countingCollector struct {
	calls    int
	stackTop uintptr
}

func (c *countingCollector) Collect(h *heap.Heap, stackTop uintptr) error {
	c.calls++
	c.stackTop = stackTop
	return nil
}

func TestCollectorIsInvoked(t *testing.T) {
	r := newRuntime(t)
	c := &countingCollector{}
	r.Heap().SetCollector(c)
	if err := r.CheckGC(0x1234); err != nil {
		t.Fatal(err)
	}
	if c.calls != 0 {
		t.Error("Expected no collection without a request")
	}
	r.Heap().RequestGC()
	if err := r.CheckGC(0x1234); err != nil {
		t.Fatal(err)
	}
	if c.calls != 1 || c.stackTop != 0x1234 {
		t.Errorf("Expected one collection from 0x1234, got %d from %#x", c.calls, c.stackTop)
	}
}

func TestAllocateObjectRejectsOddCapacity(t *testing.T) {
	r := newRuntime(t)
	defer func() {
		if recover() == nil {
			t.Error("Expected a capacity of 6 to be rejected")
		}
	}()
	r.AllocateObject(heap.TagObject, 6)
}
