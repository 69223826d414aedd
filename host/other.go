//go:build !amd64 || !unix

package host

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/rt"
	"github.com/xyproto/lirjit/stubs"
)

// CanRun reports whether generated code runs in this build
const CanRun = false

// Available reports whether the stubs can fall back into Go
const Available = false

// Callbacks cannot be served where the code cannot run
func Callbacks(*rt.Runtime, *masm.CodeSpace) (stubs.Callbacks, error) {
	return stubs.Callbacks{}, ErrUnavailable
}

func enter(uintptr, heap.Value, []heap.Value) (heap.Value, error) {
	return heap.Nil, ErrUnavailable
}
