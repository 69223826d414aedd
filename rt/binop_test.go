package rt

import (
	"math"
	"testing"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
)

// Small integers add inline and overflow into a boxed number
func TestAddSmallInts(t *testing.T) {
	r := newRuntime(t)
	got := r.BinOp(hir.Add, heap.SmallInt(5), heap.SmallInt(3))
	if got != heap.SmallInt(8) {
		t.Errorf("Expected unboxed 8, got %s", got)
	}
	if f := r.Stats().Fallbacks; f != 0 {
		t.Errorf("Expected no fallback, got %d", f)
	}

	sum := r.BinOp(hir.Add, heap.SmallInt(heap.MaxSmallInt), heap.SmallInt(1))
	if !r.Heap().Is(sum, heap.TagNumber) {
		t.Fatalf("Expected a boxed number on overflow, got %s", sum)
	}
	if want := float64(heap.MaxSmallInt) + 1; r.Heap().NumberOf(sum) != want {
		t.Errorf("Expected %v, got %v", want, r.Heap().NumberOf(sum))
	}
	if f := r.Stats().Fallbacks; f != 0 {
		t.Errorf("Expected overflow to stay inside the stub, got %d fallbacks", f)
	}
}

// boxedResult computes op on boxed operands, the path the stub takes on overflow
func boxedResult(r *Runtime, op hir.BinOp, a, b int64) heap.Value {
	return r.BinOp(op, r.AllocateNumber(float64(a)), r.AllocateNumber(float64(b)))
}

func TestSmallIntPathAgreesWithBoxedPath(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	values := []int64{0, 1, -1, 2, 7, -13, 1000, 1 << 20, -(1 << 30)}
	ops := []hir.BinOp{hir.Add, hir.Sub, hir.Mul, hir.Div, hir.Mod, hir.BAnd, hir.BOr, hir.BXor,
		hir.Eq, hir.StrictEq, hir.Ne, hir.StrictNe, hir.Lt, hir.Gt, hir.Le, hir.Ge}
	for _, op := range ops {
		for _, a := range values {
			for _, b := range values {
				if (op == hir.Mod || op == hir.Div) && b == 0 {
					continue
				}
				fast := r.BinOp(op, heap.SmallInt(a), heap.SmallInt(b))
				slow := boxedResult(r, op, a, b)
				if op.IsLogic() {
					if fast != slow {
						t.Errorf("%d %s %d: Expected %s from both paths, got %s", a, op, b, r.ToString(slow), r.ToString(fast))
					}
					continue
				}
				if x, y := number(t, r, fast), number(t, r, slow); x != y {
					t.Errorf("%d %s %d: Expected %v from both paths, got %v (%s)", a, op, b, y, x, h.TypeOf(fast))
				}
			}
		}
	}
}

func TestOverflowMatchesBoxedPath(t *testing.T) {
	r := newRuntime(t)
	cases := []struct {
		op   hir.BinOp
		a, b int64
	}{
		{hir.Add, heap.MaxSmallInt, 1},
		{hir.Add, heap.MinSmallInt, -1},
		{hir.Sub, heap.MinSmallInt, 1},
		{hir.Sub, heap.MaxSmallInt, -1},
		{hir.Mul, heap.MaxSmallInt, 2},
		{hir.Mul, 1 << 40, 1 << 40},
		{hir.Mul, heap.MinSmallInt, -1},
	}
	for _, c := range cases {
		got := r.BinOp(c.op, heap.SmallInt(c.a), heap.SmallInt(c.b))
		if got.IsUnboxed() {
			t.Errorf("%d %s %d: Expected a boxed result, got %s", c.a, c.op, c.b, got)
			continue
		}
		want := boxedResult(r, c.op, c.a, c.b)
		if r.Heap().NumberOf(got) != r.Heap().NumberOf(want) {
			t.Errorf("%d %s %d: Expected %v, got %v", c.a, c.op, c.b, r.Heap().NumberOf(want), r.Heap().NumberOf(got))
		}
	}
}

func TestShifts(t *testing.T) {
	r := newRuntime(t)
	cases := []struct {
		op   hir.BinOp
		a, b int64
		want int64
	}{
		{hir.Shl, 1, 4, 16},
		{hir.Shr, -16, 2, -4},
		{hir.UShr, 16, 2, 4},
		{hir.Shl, 3, 64, 3},
		{hir.UShr, -1, 60, 15},
	}
	for _, c := range cases {
		got := r.BinOp(c.op, heap.SmallInt(c.a), heap.SmallInt(c.b))
		if got != heap.SmallInt(c.want) {
			t.Errorf("%d %s %d: Expected %d, got %s", c.a, c.op, c.b, c.want, got)
		}
	}
}

func TestModByZero(t *testing.T) {
	r := newRuntime(t)
	got := r.BinOp(hir.Mod, heap.SmallInt(5), heap.SmallInt(0))
	if !math.IsNaN(number(t, r, got)) {
		t.Errorf("Expected NaN, got %s", r.ToString(got))
	}
	if r.Stats().Fallbacks != 1 {
		t.Errorf("Expected the runtime to handle a zero divisor, got %d fallbacks", r.Stats().Fallbacks)
	}
	if got := r.BinOp(hir.Mod, heap.SmallInt(-7), heap.SmallInt(3)); got != heap.SmallInt(-1) {
		t.Errorf("Expected -7 %% 3 = -1, got %s", got)
	}
	if got := r.BinOp(hir.Mod, r.AllocateNumber(7.9), r.AllocateNumber(-1)); got != heap.SmallInt(0) {
		t.Errorf("Expected 7.9 %% -1 = 0, got %s", got)
	}
}

func TestDivAlwaysBoxes(t *testing.T) {
	r := newRuntime(t)
	got := r.BinOp(hir.Div, heap.SmallInt(7), heap.SmallInt(2))
	if !r.Heap().Is(got, heap.TagNumber) || r.Heap().NumberOf(got) != 3.5 {
		t.Errorf("Expected boxed 3.5, got %s", r.ToString(got))
	}
}

func TestNaNComparisons(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	nan := r.AllocateNumber(math.NaN())
	for _, op := range []hir.BinOp{hir.Eq, hir.StrictEq, hir.Lt, hir.Gt, hir.Le, hir.Ge} {
		if got := r.BinOp(op, nan, nan); got != h.Boolean(false) {
			t.Errorf("Expected NaN %s NaN to be false", op)
		}
	}
	if got := r.BinOp(hir.Ne, nan, heap.SmallInt(1)); got != h.Boolean(true) {
		t.Error("Expected NaN != 1 to be true")
	}
}

func TestNilOperandsUseRuntime(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	if got := r.BinOp(hir.Eq, heap.Nil, heap.Nil); got != h.Boolean(true) {
		t.Error("Expected nil == nil")
	}
	if got := r.BinOp(hir.Eq, heap.Nil, heap.SmallInt(0)); got != h.Boolean(false) {
		t.Error("Expected nil != 0")
	}
	if got := r.BinOp(hir.Add, heap.Nil, heap.SmallInt(2)); number(t, r, got) != 2 {
		t.Errorf("Expected nil + 2 = 2, got %s", r.ToString(got))
	}
	if r.Stats().Fallbacks != 3 {
		t.Errorf("Expected every nil operand to reach the runtime, got %d fallbacks", r.Stats().Fallbacks)
	}
}

func TestRuntimeOperators(t *testing.T) {
	r := newRuntime(t)
	h := r.Heap()
	str := func(s string) heap.Value { return h.NewString(s) }

	if got := r.BinOp(hir.Add, str("a"), heap.SmallInt(1)); r.ToString(got) != "a1" {
		t.Errorf("Expected a1, got %s", r.ToString(got))
	}
	if got := r.BinOp(hir.Add, r.AllocateNumber(1.5), str("x")); r.ToString(got) != "1.5x" {
		t.Errorf("Expected 1.5x, got %s", r.ToString(got))
	}
	if got := r.BinOp(hir.Eq, str("10"), heap.SmallInt(10)); got != h.Boolean(true) {
		t.Error(`Expected "10" == 10`)
	}
	if got := r.BinOp(hir.StrictEq, str("10"), heap.SmallInt(10)); got != h.Boolean(false) {
		t.Error(`Expected "10" !== 10`)
	}
	if got := r.BinOp(hir.StrictEq, str("ab"), str("ab")); got != h.Boolean(true) {
		t.Error(`Expected "ab" === "ab"`)
	}
	if got := r.BinOp(hir.Lt, str("abc"), str("abd")); got != h.Boolean(true) {
		t.Error(`Expected "abc" < "abd"`)
	}
	if got := r.BinOp(hir.LOr, heap.Nil, heap.SmallInt(3)); got != heap.SmallInt(3) {
		t.Errorf("Expected nil || 3 = 3, got %s", got)
	}
	if got := r.BinOp(hir.LAnd, heap.SmallInt(0), heap.SmallInt(3)); got != heap.SmallInt(0) {
		t.Errorf("Expected 0 && 3 = 0, got %s", got)
	}
	if got := r.BinOp(hir.BOr, str("6"), heap.SmallInt(1)); got != heap.SmallInt(7) {
		t.Errorf(`Expected "6" | 1 = 7, got %s`, got)
	}
}
