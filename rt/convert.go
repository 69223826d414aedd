package rt

import (
	"math"
	"strconv"
	"strings"

	"github.com/xyproto/lirjit/heap"
)

// truncate converts like cvttsd2si: toward zero, with NaN and values
// outside the int64 range giving math.MinInt64
func truncate(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}

// ToNumber converts any value to a double. Nil, unparsable strings and
// reference types are 0.
func (r *Runtime) ToNumber(v heap.Value) float64 {
	h := r.heap
	switch {
	case v.IsNil():
		return 0
	case v.IsUnboxed():
		return float64(v.Int())
	}
	switch h.Tag(v) {
	case heap.TagNumber:
		return h.NumberOf(v)
	case heap.TagBoolean:
		if h.BooleanOf(v) {
			return 1
		}
		return 0
	case heap.TagString:
		f, err := strconv.ParseFloat(strings.TrimSpace(h.StringOf(v)), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// isNumber reports small integers and boxed numbers
func (r *Runtime) isNumber(v heap.Value) bool {
	return v.IsUnboxed() || r.heap.Is(v, heap.TagNumber)
}

// ToString renders a value the way string concatenation sees it
func (r *Runtime) ToString(v heap.Value) string {
	h := r.heap
	switch {
	case v.IsNil():
		return "nil"
	case v.IsUnboxed():
		return strconv.FormatInt(v.Int(), 10)
	}
	switch t := h.Tag(v); t {
	case heap.TagNumber:
		return strconv.FormatFloat(h.NumberOf(v), 'g', -1, 64)
	case heap.TagBoolean:
		return strconv.FormatBool(h.BooleanOf(v))
	case heap.TagString:
		return h.StringOf(v)
	default:
		return "[" + t.String() + "]"
	}
}

// ToBoolean mirrors the coercion stub: small integers and booleans are
// handled inline, everything else by the runtime
func (r *Runtime) ToBoolean(v heap.Value) heap.Value {
	h := r.heap
	switch {
	case v.IsUnboxed():
		return h.Boolean(v != heap.SmallInt(0))
	case h.Is(v, heap.TagBoolean):
		return v
	}
	r.fallback("to boolean")
	return r.RuntimeToBoolean(v)
}

// RuntimeToBoolean is the host routine behind the coercion stub
func (r *Runtime) RuntimeToBoolean(v heap.Value) heap.Value {
	return r.heap.Boolean(r.truthy(v))
}

func (r *Runtime) truthy(v heap.Value) bool {
	h := r.heap
	switch {
	case v.IsNil():
		return false
	case v.IsUnboxed():
		return v.Int() != 0
	}
	switch h.Tag(v) {
	case heap.TagBoolean:
		return h.BooleanOf(v)
	case heap.TagNumber:
		f := h.NumberOf(v)
		return f != 0 && !math.IsNaN(f)
	case heap.TagString:
		return h.StringLength(v) > 0
	}
	return true
}
