package lirjit

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/host"
	"github.com/xyproto/lirjit/stubs"
)

// fallbackContext is a context whose stubs reach the rt routines
func fallbackContext(t *testing.T) *Context {
	t.Helper()
	if !host.Available {
		t.Skip("stub fallbacks need cgo")
	}
	return newContext(t)
}

// fellBack fails unless a stub of kind called back into Go
func fellBack(t *testing.T, ctx *Context, k stubs.Kind) {
	t.Helper()
	if n := host.Calls(ctx.Runtime)[k]; n == 0 {
		t.Errorf("Expected the %s stub to fall back", k)
	}
}

func TestFallbackHashesNewString(t *testing.T) {
	ctx := fallbackContext(t)
	g := hir.New()
	b := g.NewBlock()
	b.Entry()
	key := b.LoadContext(0, 0)
	obj := b.AllocateObject(false, 4)
	b.StoreProperty(obj, key, hir.Int(7))
	b.Return(b.LoadProperty(obj, key))

	str := ctx.Heap.NewString("fresh")
	if ctx.Heap.CachedStringHash(str) != 0 {
		t.Fatalf("Expected a new string to have no hash yet")
	}
	if res := execute(t, ctx, g, str); res != heap.SmallInt(7) {
		t.Errorf("Expected 7, got %s", describe(ctx.Heap, res))
	}
	fellBack(t, ctx, stubs.HashValue)
	if ctx.Heap.CachedStringHash(str) != ctx.Heap.StringHash(str) {
		t.Errorf("Expected the hash to be cached on the string")
	}
	// The second lookup finds the cached hash
	if n := host.Calls(ctx.Runtime)[stubs.HashValue]; n != 1 {
		t.Errorf("Expected one hash fallback, got %d", n)
	}
}

func TestFallbackComparesEqualStrings(t *testing.T) {
	ctx := fallbackContext(t)
	g := hir.New()
	b := g.NewBlock()
	b.Entry()
	obj := b.AllocateObject(false, 4)
	b.StoreProperty(obj, b.LoadContext(0, 0), hir.Int(5))
	b.Return(b.LoadProperty(obj, b.LoadContext(0, 1)))

	h := ctx.Heap
	stored, other := hashed(h, "name"), hashed(h, "name")
	if res := execute(t, ctx, g, stored, other); res != heap.SmallInt(5) {
		t.Errorf("Expected an equal string to find 5, got %s", describe(h, res))
	}
	fellBack(t, ctx, stubs.LookupProperty)
}

func TestFallbackGrowsFullMap(t *testing.T) {
	ctx := fallbackContext(t)
	g := hir.New()
	b := g.NewBlock()
	b.Entry()
	obj := b.AllocateObject(false, 1)
	var sum hir.Value = hir.Int(0)
	for i := 0; i < 3; i++ {
		b.StoreProperty(obj, b.LoadContext(0, i), hir.Int(int64(10*(i+1))))
	}
	for i := 0; i < 3; i++ {
		sum = b.BinOp(hir.Add, sum, b.LoadProperty(obj, b.LoadContext(0, i)))
	}
	b.Return(sum)

	h := ctx.Heap
	res := execute(t, ctx, g, hashed(h, "a"), hashed(h, "b"), hashed(h, "c"))
	if res != heap.SmallInt(60) {
		t.Errorf("Expected 10+20+30 = 60, got %s", describe(h, res))
	}
	fellBack(t, ctx, stubs.LookupProperty)
	if ctx.Runtime.Stats().Growths == 0 {
		t.Errorf("Expected the map to grow")
	}
}

// objectWith builds a program that stores n keys from its context into a
// fresh object and applies op to it
func objectWith(n int, op func(b *hir.Block, obj *hir.Instruction) hir.Value) *hir.Graph {
	g := hir.New()
	b := g.NewBlock()
	b.Entry()
	obj := b.AllocateObject(false, 8)
	for i := 0; i < n; i++ {
		b.StoreProperty(obj, b.LoadContext(0, i), hir.Int(int64(i)))
	}
	b.Return(op(b, obj))
	return g
}

func TestFallbackKeysof(t *testing.T) {
	ctx := fallbackContext(t)
	g := objectWith(2, func(b *hir.Block, obj *hir.Instruction) hir.Value {
		return b.Sizeof(b.Keysof(obj))
	})
	h := ctx.Heap
	if res := execute(t, ctx, g, hashed(h, "x"), hashed(h, "y")); res != heap.SmallInt(2) {
		t.Errorf("Expected 2 keys, got %s", describe(h, res))
	}
	fellBack(t, ctx, stubs.Keysof)
}

func TestFallbackSizeofObject(t *testing.T) {
	ctx := fallbackContext(t)
	g := objectWith(3, func(b *hir.Block, obj *hir.Instruction) hir.Value {
		return b.Sizeof(obj)
	})
	h := ctx.Heap
	if res := execute(t, ctx, g, hashed(h, "x"), hashed(h, "y"), hashed(h, "z")); res != heap.SmallInt(3) {
		t.Errorf("Expected 3 properties, got %s", describe(h, res))
	}
	fellBack(t, ctx, stubs.Sizeof)
}

func TestFallbackDeleteProperty(t *testing.T) {
	ctx := fallbackContext(t)
	g := objectWith(2, func(b *hir.Block, obj *hir.Instruction) hir.Value {
		key := b.LoadContext(0, 1)
		b.DeleteProperty(obj, key)
		return b.LoadProperty(obj, key)
	})
	h := ctx.Heap
	if res := execute(t, ctx, g, hashed(h, "keep"), hashed(h, "drop")); res != heap.Nil {
		t.Errorf("Expected a deleted property to read as nil, got %s", describe(h, res))
	}
	fellBack(t, ctx, stubs.DeleteProperty)
}

func TestFallbackToBoolean(t *testing.T) {
	ctx := fallbackContext(t)
	g := hir.New()
	b := g.NewBlock()
	b.Entry()
	b.Return(b.Not(b.LoadContext(0, 0)))

	h := ctx.Heap
	res := execute(t, ctx, g, h.NewString("text"))
	if !h.Is(res, heap.TagBoolean) || h.BooleanOf(res) {
		t.Errorf("Expected a non-empty string to negate to false, got %s", describe(h, res))
	}
	fellBack(t, ctx, stubs.CoerceToBoolean)
}

func TestFallbackBinOps(t *testing.T) {
	ctx := fallbackContext(t)
	h := ctx.Heap
	r := ctx.Runtime
	foo, bar := h.NewString("foo"), h.NewString("bar")

	for _, c := range []struct {
		name     string
		op       hir.BinOp
		lhs, rhs heap.Value
		check    func(res heap.Value) bool
	}{
		{"strict equality of booleans", hir.StrictEq, h.Boolean(true), h.Boolean(true), func(res heap.Value) bool {
			return h.Is(res, heap.TagBoolean) && h.BooleanOf(res)
		}},
		{"string concatenation", hir.Add, foo, bar, func(res heap.Value) bool {
			return h.Is(res, heap.TagString) && h.StringOf(res) == "foobar"
		}},
		{"modulo by zero", hir.Mod, heap.SmallInt(5), heap.SmallInt(0), func(res heap.Value) bool {
			return h.Is(res, heap.TagNumber) && math.IsNaN(h.NumberOf(res))
		}},
		{"logical or", hir.LOr, heap.SmallInt(0), heap.SmallInt(5), func(res heap.Value) bool {
			return res == heap.SmallInt(5)
		}},
		{"logical and", hir.LAnd, heap.SmallInt(3), heap.Nil, func(res heap.Value) bool {
			return res == heap.Nil
		}},
	} {
		g := hir.New()
		b := g.NewBlock()
		b.Entry()
		b.Return(b.BinOp(c.op, b.LoadContext(0, 0), b.LoadContext(0, 1)))

		res := execute(t, ctx, g, c.lhs, c.rhs)
		if !c.check(res) {
			t.Errorf("Expected %s to give %s, got %s", c.name, describe(h, r.RuntimeBinOp(c.op, c.lhs, c.rhs)), describe(h, res))
		}
		fellBack(t, ctx, stubs.BinOpStub(c.op))
	}
}

func TestFallbackAllocatesPage(t *testing.T) {
	ctx := fallbackContext(t)
	g := hir.New()
	entry := g.NewBlock()
	header := g.NewBlock()
	loop := g.NewBlock()
	exit := g.NewBlock()

	entry.Entry()
	i := entry.StoreLocal(hir.Int(0))
	entry.Goto(header)
	cond := header.BinOp(hir.Lt, i, hir.Int(100))
	header.Branch(cond, loop, exit)
	// Each literal takes over 1KB, so 100 of them fill a 64KB page
	loop.AllocateObject(false, 64)
	next := loop.BinOp(hir.Add, i, hir.Int(1))
	loop.ParallelMove(hir.Move{To: i, From: next})
	loop.Goto(header)
	exit.Return(i)

	pages := len(ctx.Heap.NewSpace().Pages())
	if res := execute(t, ctx, g); res != heap.SmallInt(100) {
		t.Errorf("Expected 100, got %s", describe(ctx.Heap, res))
	}
	fellBack(t, ctx, stubs.Allocate)
	if ctx.Runtime.Stats().RuntimeAllocations == 0 {
		t.Errorf("Expected the runtime allocator to run")
	}
	if got := len(ctx.Heap.NewSpace().Pages()); got <= pages {
		t.Errorf("Expected a new page, still %d", got)
	}
}

// recordingCollector remembers every stack it is handed
type recordingCollector struct {
	tops []uintptr
	err  error
}

func (c *recordingCollector) Collect(_ *heap.Heap, stackTop uintptr) error {
	c.tops = append(c.tops, stackTop)
	return c.err
}

func collectProgram() *hir.Graph {
	g := hir.New()
	b := g.NewBlock()
	b.Entry()
	b.CollectGarbage()
	b.Return(hir.Int(1))
	return g
}

func TestFallbackCollectGarbage(t *testing.T) {
	ctx := fallbackContext(t)
	c := &recordingCollector{}
	ctx.Heap.SetCollector(c)
	ctx.Heap.RequestGC()

	if res := execute(t, ctx, collectProgram()); res != heap.SmallInt(1) {
		t.Errorf("Expected 1, got %s", describe(ctx.Heap, res))
	}
	if len(c.tops) != 1 || c.tops[0] == 0 {
		t.Errorf("Expected one collection with a stack, got %#x", c.tops)
	}
	if ctx.Heap.NeedsGC() {
		t.Errorf("Expected the request to be cleared")
	}
	if n := ctx.Runtime.Stats().Collections; n != 1 {
		t.Errorf("Expected 1 collection, got %d", n)
	}
}

func TestFallbackCollectorError(t *testing.T) {
	ctx := fallbackContext(t)
	errExhausted := errors.New("heap exhausted")
	ctx.Heap.SetCollector(&recordingCollector{err: errExhausted})

	fn := ctx.Function(install(t, ctx, collectProgram()))
	if _, err := ctx.Run(fn); !errors.Is(err, errExhausted) {
		t.Errorf("Expected the collector's error, got %v", err)
	}
	// The failure belongs to that call only
	ctx.Heap.SetCollector(nil)
	if res := run(t, ctx, fn); res != heap.SmallInt(1) {
		t.Errorf("Expected 1 once the collector succeeds, got %s", describe(ctx.Heap, res))
	}
}

func TestFallbackStackTrace(t *testing.T) {
	ctx := fallbackContext(t)
	g := hir.New()
	main := g.NewBlock()
	body := g.NewBlock()

	main.Entry()
	fn := main.AllocateFunction(body, 0)
	main.Return(main.Call(fn).At(20))

	body.Entry()
	body.Return(body.GetStackTrace().At(30))

	h := ctx.Heap
	res := execute(t, ctx, g)
	if !h.Is(res, heap.TagArray) {
		t.Fatalf("Expected an array, got %s", describe(h, res))
	}
	var got []int64
	for i := 0; i < int(h.ArrayLength(res)); i++ {
		got = append(got, h.ArrayElement(res, i).Int())
	}
	if diff := cmp.Diff([]int64{30, 20}, got); diff != "" {
		t.Errorf("stack trace (-want +got):\n%s", diff)
	}
	fellBack(t, ctx, stubs.StackTrace)
}
