// Package rt holds the general runtime routines the stubs fall back to,
// together with Go renditions of each stub's inline fast path. Both sides
// work on a heap.Heap through the same layout accessors, so a fast path
// and its fallback can be checked against each other.
package rt

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/engine"
)

// Stats counts how often each path was taken
type Stats struct {
	Fallbacks          int // fast paths that gave up and called the runtime
	GCChecks           int
	Collections        int
	FastAllocations    int
	RuntimeAllocations int
	Wraps              int // scans that visited every slot of a map
	Growths            int
}

// Runtime is not safe for concurrent use
type Runtime struct {
	heap  *heap.Heap
	stats Stats
}

// New returns a runtime over h
func New(h *heap.Heap) *Runtime {
	return &Runtime{heap: h}
}

// Heap returns the heap the runtime works on
func (r *Runtime) Heap() *heap.Heap { return r.heap }

// Stats returns a snapshot of the counters
func (r *Runtime) Stats() Stats { return r.stats }

// ResetStats zeroes the counters
func (r *Runtime) ResetStats() { r.stats = Stats{} }

func (r *Runtime) fallback(what string) {
	r.stats.Fallbacks++
	engine.Verbosef("rt: %s fallback", what)
}

// isObjectLike reports whether v is an object or an array
func (r *Runtime) isObjectLike(v heap.Value) bool {
	return r.heap.Is(v, heap.TagObject) || r.heap.Is(v, heap.TagArray)
}
