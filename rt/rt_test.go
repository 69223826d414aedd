package rt

import (
	"testing"

	"github.com/xyproto/lirjit/heap"
)

func newRuntime(t *testing.T) *Runtime {
	t.Helper()
	return newRuntimeWith(t, 64*1024, 1<<20)
}

func newRuntimeWith(t *testing.T, pageSize, threshold int) *Runtime {
	t.Helper()
	h, err := heap.New(pageSize, threshold)
	if err != nil {
		t.Fatalf("Expected a heap, got error: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return New(h)
}

// number reads any numeric value as a double
func number(t *testing.T, r *Runtime, v heap.Value) float64 {
	t.Helper()
	if !r.isNumber(v) {
		t.Fatalf("Expected a number, got %s (%s)", v, r.heap.TypeOf(v))
	}
	return r.ToNumber(v)
}
