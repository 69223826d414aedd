package rt

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/stubs"
)

// Cloning nil yields nil without touching the heap
func TestCloneNil(t *testing.T) {
	r := newRuntime(t)
	top := r.Heap().NewSpace().Top()
	if got := r.CloneObject(heap.Nil); got != heap.Nil {
		t.Errorf("Expected nil, got %s", got)
	}
	if r.Heap().NewSpace().Top() != top {
		t.Error("Expected cloning nil not to allocate")
	}
	if s := r.Stats(); s.GCChecks != 0 || s.FastAllocations != 0 {
		t.Errorf("Expected no allocation and no collector check, got %+v", s)
	}
}

func TestCloneCopiesSlots(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	obj := h.NewObject(4)
	a, b := h.NewString("a"), h.NewString("b")
	h.Store(r.LookupProperty(obj, a, true), heap.SmallInt(1))
	h.Store(r.LookupProperty(obj, b, true), heap.SmallInt(2))

	clone := r.CloneObject(obj)
	if clone == obj || h.ObjectMap(clone) == h.ObjectMap(obj) {
		t.Fatal("Expected a fresh object with its own map")
	}
	if h.ObjectMask(clone) != h.ObjectMask(obj) {
		t.Errorf("Expected mask %d, got %d", h.ObjectMask(obj), h.ObjectMask(clone))
	}
	if diff := cmp.Diff(h.Keys(obj), h.Keys(clone)); diff != "" {
		t.Errorf("keys differ (-original +clone):\n%s", diff)
	}
	h.Store(r.LookupProperty(clone, a, true), heap.SmallInt(10))
	if got := h.Load(r.LookupProperty(obj, a, false)); got != heap.SmallInt(1) {
		t.Errorf("Expected the original to keep 1, got %s", got)
	}
	if r.Stats().GCChecks != 1 {
		t.Errorf("Expected one collector check, got %d", r.Stats().GCChecks)
	}
}

func TestCloneArrayIsNil(t *testing.T) {
	r := newRuntime(t)
	if got := r.CloneObject(r.Heap().NewArray(4)); got != heap.Nil {
		t.Errorf("Expected arrays not to clone, got %s", got)
	}
}

func TestTypeof(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	cases := []struct {
		v    heap.Value
		want string
	}{
		{heap.Nil, "nil"},
		{heap.SmallInt(3), "number"},
		{h.NewNumber(2.5), "number"},
		{h.Boolean(true), "boolean"},
		{h.NewString("s"), "string"},
		{h.NewObject(1), "object"},
		{h.NewArray(1), "array"},
		{h.NewFunction(heap.Nil, 0, h.Roots(), 0), "function"},
	}
	for _, c := range cases {
		if got := h.StringOf(r.Typeof(c.v)); got != c.want {
			t.Errorf("Expected %s, got %s", c.want, got)
		}
	}
}

func TestSizeof(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	obj := h.NewObject(8)
	h.Store(r.LookupProperty(obj, h.NewString("x"), true), heap.SmallInt(1))
	arr := r.VarArg([]heap.Value{heap.SmallInt(1), heap.SmallInt(2), heap.SmallInt(3)})
	r.ResetStats()

	if got := r.Sizeof(h.NewString("hello")); got != heap.SmallInt(5) {
		t.Errorf("Expected 5, got %s", got)
	}
	if got := r.Sizeof(arr); got != heap.SmallInt(3) {
		t.Errorf("Expected 3, got %s", got)
	}
	if r.Stats().Fallbacks != 0 {
		t.Errorf("Expected strings and arrays inline, got %d fallbacks", r.Stats().Fallbacks)
	}
	if got := r.Sizeof(obj); got != heap.SmallInt(1) {
		t.Errorf("Expected 1, got %s", got)
	}
	if got := r.Sizeof(heap.SmallInt(9)); got != heap.SmallInt(0) {
		t.Errorf("Expected 0, got %s", got)
	}
}

func TestKeysof(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	obj := h.NewObject(8)
	for _, k := range []string{"one", "two"} {
		h.Store(r.LookupProperty(obj, h.NewString(k), true), heap.Nil)
	}
	keys := r.PutVarArg(r.Keysof(obj))
	var names []string
	for _, k := range keys {
		names = append(names, h.StringOf(k))
	}
	if len(names) != 2 || !((names[0] == "one" && names[1] == "two") || (names[0] == "two" && names[1] == "one")) {
		t.Errorf("Expected one and two, got %v", names)
	}

	arr := r.VarArg([]heap.Value{heap.Nil, heap.Nil, heap.Nil})
	want := []heap.Value{heap.SmallInt(0), heap.SmallInt(1), heap.SmallInt(2)}
	if diff := cmp.Diff(want, r.PutVarArg(r.Keysof(arr))); diff != "" {
		t.Errorf("array keys mismatch (-want +got):\n%s", diff)
	}
	if got := r.Keysof(heap.SmallInt(1)); got != heap.Nil {
		t.Errorf("Expected nil keys for a number, got %s", got)
	}
}

func TestToBoolean(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	cases := []struct {
		v    heap.Value
		want bool
	}{
		{heap.Nil, false},
		{heap.SmallInt(0), false},
		{heap.SmallInt(-2), true},
		{h.Boolean(false), false},
		{h.NewNumber(0), false},
		{h.NewNumber(0.25), true},
		{h.NewString(""), false},
		{h.NewString("0"), true},
		{h.NewObject(1), true},
	}
	for _, c := range cases {
		if got := r.ToBoolean(c.v); got != h.Boolean(c.want) {
			t.Errorf("Expected %v for %s, got %s", c.want, r.ToString(c.v), r.ToString(got))
		}
	}
}

func TestDeleteProperty(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	obj := h.NewObject(8)
	key := h.NewString("gone")
	h.Store(r.LookupProperty(obj, key, true), heap.SmallInt(1))
	r.DeleteProperty(obj, h.NewString("gone"))
	if n := h.PropertyCount(obj); n != 0 {
		t.Errorf("Expected the key removed, got %d properties", n)
	}
	if got := h.Load(r.LookupProperty(obj, key, false)); got != heap.Nil {
		t.Errorf("Expected nil after delete, got %s", got)
	}

	arr := r.VarArg([]heap.Value{heap.SmallInt(5), heap.SmallInt(6)})
	r.DeleteProperty(arr, heap.SmallInt(0))
	want := []heap.Value{heap.Nil, heap.SmallInt(6)}
	if diff := cmp.Diff(want, r.PutVarArg(arr)); diff != "" {
		t.Errorf("array mismatch (-want +got):\n%s", diff)
	}

	// Non-objects are ignored
	r.DeleteProperty(heap.SmallInt(1), key)
	r.DeleteProperty(heap.Nil, key)
}

func TestVarArgRoundTrip(t *testing.T) {
	r := newRuntime(t)
	args := make([]heap.Value, 20)
	for i := range args {
		args[i] = heap.SmallInt(int64(i * i))
	}
	arr := r.VarArg(args)
	if diff := cmp.Diff(args, r.PutVarArg(arr)); diff != "" {
		t.Errorf("rest arguments mismatch (-want +got):\n%s", diff)
	}
	if n := r.Heap().ArrayLength(arr); n != 20 {
		t.Errorf("Expected length 20, got %d", n)
	}
}

func TestHashIsCached(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	s := h.NewString("hash me")
	if h.CachedStringHash(s) != 0 {
		t.Fatal("Expected no hash before the first use")
	}
	want := heap.HashString("hash me")
	if got := r.Hash(s); got != want {
		t.Errorf("Expected %#x, got %#x", want, got)
	}
	if got := h.CachedStringHash(s); got != want {
		t.Errorf("Expected the hash cached, got %#x", got)
	}
}

func TestStackTrace(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	sm := h.SourceMap()
	sm.Push(0x00, 10)
	sm.Push(0x40, 20)
	sm.Push(0x80, 30)
	sm.Commit(0x10000)

	// Two generated frames above the entry stub's frame
	stack := map[uintptr]uint64{
		0x9000: 0x9100, 0x9008: 0x10044, // inner frame: caller rbp, return address
		0x9100: 0x9200, 0x9108: 0x10084,
		0x9200: 0x9300, 0x9208: 0x5000,
		0x9300 - stubs.EntryMarkerDepth: masm.EnterFrameTag,
	}
	read := func(addr uintptr) uint64 { return stack[addr] }
	trace := r.PutVarArg(r.StackTrace(0x9000, 0x10010, read))
	want := []heap.Value{heap.SmallInt(10), heap.SmallInt(20), heap.SmallInt(30)}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}
