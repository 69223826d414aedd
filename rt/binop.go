package rt

import (
	"math"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/engine"
)

// smallIntOutcome says how the small integer path of a binary operator ended
type smallIntOutcome int

const (
	smallIntDone smallIntOutcome = iota
	smallIntOverflow
	smallIntRuntime
)

// BinOp mirrors the binary operator stubs: small integers inline, then
// doubles once small integer operands are boxed, then the runtime
func (r *Runtime) BinOp(op hir.BinOp, lhs, rhs heap.Value) heap.Value {
	if op < 0 || op >= hir.BinOpCount {
		engine.Fatalf(engine.CategoryRuntime, "unknown binary operator %d", int(op))
	}
	if op.IsBoolLogic() {
		r.fallback("logic " + op.String())
		return r.RuntimeBinOp(op, lhs, rhs)
	}
	if op != hir.Div && lhs.IsUnboxed() && rhs.IsUnboxed() {
		v, outcome := r.smallIntOp(op, lhs.Int(), rhs.Int())
		switch outcome {
		case smallIntDone:
			return v
		case smallIntRuntime:
			r.fallback("binop " + op.String())
			return r.RuntimeBinOp(op, lhs, rhs)
		}
	}
	return r.numberOp(op, lhs, rhs)
}

func (r *Runtime) smallIntOp(op hir.BinOp, a, b int64) (heap.Value, smallIntOutcome) {
	h := r.heap
	checked := func(n int64, ok bool) (heap.Value, smallIntOutcome) {
		if !ok || !heap.FitsSmallInt(n) {
			return heap.Nil, smallIntOverflow
		}
		return heap.SmallInt(n), smallIntDone
	}
	switch op {
	case hir.Add:
		return checked(a+b, true)
	case hir.Sub:
		return checked(a-b, true)
	case hir.Mul:
		return checked(mul(a, b))
	case hir.BAnd:
		return heap.SmallInt(a & b), smallIntDone
	case hir.BOr:
		return heap.SmallInt(a | b), smallIntDone
	case hir.BXor:
		return heap.SmallInt(a ^ b), smallIntDone
	case hir.Mod:
		if b == 0 {
			return heap.Nil, smallIntRuntime
		}
		return heap.SmallInt(a % b), smallIntDone
	case hir.Shl, hir.Shr, hir.UShr:
		return heap.SmallInt(shift(op, a, b)), smallIntDone
	case hir.Eq, hir.StrictEq:
		return h.Boolean(a == b), smallIntDone
	case hir.Ne, hir.StrictNe:
		return h.Boolean(a != b), smallIntDone
	case hir.Lt:
		return h.Boolean(a < b), smallIntDone
	case hir.Gt:
		return h.Boolean(a > b), smallIntDone
	case hir.Le:
		return h.Boolean(a <= b), smallIntDone
	case hir.Ge:
		return h.Boolean(a >= b), smallIntDone
	}
	return heap.Nil, smallIntRuntime
}

// mul multiplies two small integer payloads, reporting int64 overflow
func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	return p, p/b == a
}

// shift uses the count modulo 64 like the hardware does
func shift(op hir.BinOp, a, n int64) int64 {
	n &= 63
	switch op {
	case hir.Shl:
		return a << n
	case hir.Shr:
		return a >> n
	default:
		return int64(uint64(a) >> n)
	}
}

// numberOp is the boxed path of the stubs
func (r *Runtime) numberOp(op hir.BinOp, lhs, rhs heap.Value) heap.Value {
	h := r.heap
	if lhs.IsNil() || rhs.IsNil() {
		r.fallback("binop " + op.String())
		return r.RuntimeBinOp(op, lhs, rhs)
	}
	if lhs.IsUnboxed() {
		lhs = r.AllocateNumber(float64(lhs.Int()))
	}
	if rhs.IsUnboxed() {
		rhs = r.AllocateNumber(float64(rhs.Int()))
	}
	if !h.Is(lhs, heap.TagNumber) || !h.Is(rhs, heap.TagNumber) {
		r.fallback("binop " + op.String())
		return r.RuntimeBinOp(op, lhs, rhs)
	}
	x, y := h.NumberOf(lhs), h.NumberOf(rhs)

	switch {
	case op.IsMath():
		return r.AllocateNumber(arith(op, x, y))
	case op.IsBinary():
		a, b := truncate(x), truncate(y)
		if op == hir.Mod && b == 0 {
			r.fallback("binop " + op.String())
			return r.RuntimeBinOp(op, lhs, rhs)
		}
		return heap.SmallInt(intOp(op, a, b))
	}
	return h.Boolean(compare(op, x, y))
}

func arith(op hir.BinOp, x, y float64) float64 {
	switch op {
	case hir.Add:
		return x + y
	case hir.Sub:
		return x - y
	case hir.Mul:
		return x * y
	}
	return x / y
}

// intOp applies a bitwise operator to truncated operands. b is never 0 for Mod.
func intOp(op hir.BinOp, a, b int64) int64 {
	switch op {
	case hir.Mod:
		if b == -1 {
			return 0
		}
		return a % b
	case hir.BAnd:
		return a & b
	case hir.BOr:
		return a | b
	case hir.BXor:
		return a ^ b
	}
	return shift(op, a, b)
}

// compare follows ucomisd: every comparison with NaN is false except Ne
func compare(op hir.BinOp, x, y float64) bool {
	switch op {
	case hir.Eq, hir.StrictEq:
		return x == y
	case hir.Ne, hir.StrictNe:
		return x != y
	case hir.Lt:
		return x < y
	case hir.Gt:
		return x > y
	case hir.Le:
		return x <= y
	}
	return x >= y
}

// RuntimeBinOp is the host routine behind every binary operator stub. It
// accepts any pair of values.
func (r *Runtime) RuntimeBinOp(op hir.BinOp, lhs, rhs heap.Value) heap.Value {
	h := r.heap
	switch {
	case op == hir.LOr:
		if r.truthy(lhs) {
			return lhs
		}
		return rhs
	case op == hir.LAnd:
		if !r.truthy(lhs) {
			return lhs
		}
		return rhs
	case op == hir.Eq || op == hir.Ne:
		return h.Boolean(r.looseEquals(lhs, rhs) == (op == hir.Eq))
	case op == hir.StrictEq || op == hir.StrictNe:
		return h.Boolean(r.strictEquals(lhs, rhs) == (op == hir.StrictEq))
	case op == hir.Add && (h.Is(lhs, heap.TagString) || h.Is(rhs, heap.TagString)):
		return h.NewString(r.ToString(lhs) + r.ToString(rhs))
	case op.IsMath():
		return h.NewNumber(arith(op, r.ToNumber(lhs), r.ToNumber(rhs)))
	case op.IsBinary():
		a, b := truncate(r.ToNumber(lhs)), truncate(r.ToNumber(rhs))
		if op == hir.Mod && b == 0 {
			return h.NewNumber(math.NaN())
		}
		return heap.SmallInt(intOp(op, a, b))
	case op.IsLogic():
		if h.Is(lhs, heap.TagString) && h.Is(rhs, heap.TagString) {
			return h.Boolean(compareStrings(op, r.ToString(lhs), r.ToString(rhs)))
		}
		return h.Boolean(compare(op, r.ToNumber(lhs), r.ToNumber(rhs)))
	}
	engine.Fatalf(engine.CategoryRuntime, "binary operator %s on %s and %s", op, h.TypeOf(lhs), h.TypeOf(rhs))
	return heap.Nil
}

func compareStrings(op hir.BinOp, a, b string) bool {
	switch op {
	case hir.Lt:
		return a < b
	case hir.Gt:
		return a > b
	case hir.Le:
		return a <= b
	}
	return a >= b
}

// looseEquals compares numbers by value across representations and
// converts strings and booleans compared with numbers. Nil only equals nil.
func (r *Runtime) looseEquals(a, b heap.Value) bool {
	h := r.heap
	switch {
	case a == b:
		return !r.isNaN(a)
	case a.IsNil() || b.IsNil():
		return false
	case h.Is(a, heap.TagString) && h.Is(b, heap.TagString):
		return h.StringEquals(a, b)
	case r.isNumber(a) || r.isNumber(b):
		if r.scalar(a) && r.scalar(b) {
			return r.ToNumber(a) == r.ToNumber(b)
		}
	}
	return false
}

// strictEquals requires equal types
func (r *Runtime) strictEquals(a, b heap.Value) bool {
	h := r.heap
	if h.TypeOf(a) != h.TypeOf(b) {
		return false
	}
	switch {
	case a == b:
		return !r.isNaN(a)
	case r.isNumber(a):
		return r.ToNumber(a) == r.ToNumber(b)
	case h.Is(a, heap.TagString):
		return h.StringEquals(a, b)
	}
	return false
}

// scalar reports values that convert to numbers meaningfully
func (r *Runtime) scalar(v heap.Value) bool {
	return r.isNumber(v) || r.heap.Is(v, heap.TagString) || r.heap.Is(v, heap.TagBoolean)
}

func (r *Runtime) isNaN(v heap.Value) bool {
	return r.heap.Is(v, heap.TagNumber) && math.IsNaN(r.heap.NumberOf(v))
}
