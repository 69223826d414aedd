package host

import (
	"errors"
	"strings"
	"testing"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/rt"
	"github.com/xyproto/lirjit/stubs"
)

func newRuntime(t *testing.T) *rt.Runtime {
	t.Helper()
	h, err := heap.New(1<<16, 1<<20)
	if err != nil {
		t.Fatalf("Expected a heap, got error: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return rt.New(h)
}

func TestSessionCountsFallbacks(t *testing.T) {
	r := newRuntime(t)
	register(r)
	defer Release(r)

	handle := r.Heap().Handle()
	routine(handle, stubs.Sizeof)
	routine(handle, stubs.Sizeof)
	routine(handle, stubs.HashValue)

	calls := Calls(r)
	if calls[stubs.Sizeof] != 2 || calls[stubs.HashValue] != 1 {
		t.Errorf("Expected 2 Sizeof and 1 HashValue fallbacks, got %v", calls)
	}
	// Callers get a copy
	calls[stubs.Sizeof] = 99
	if Calls(r)[stubs.Sizeof] != 2 {
		t.Errorf("Expected the session's counts to be unaffected by the copy")
	}
}

func TestReleaseForgetsRuntime(t *testing.T) {
	r := newRuntime(t)
	register(r)
	Release(r)
	if lookup(r.Heap().Handle()) != nil {
		t.Errorf("Expected no session after Release")
	}
	if Calls(r) != nil {
		t.Errorf("Expected no counts after Release")
	}

	defer func() {
		p := recover()
		if msg, ok := p.(string); !ok || !strings.Contains(msg, "unknown heap") {
			t.Errorf("Expected a fallback for a released heap to panic, got %v", p)
		}
	}()
	routine(r.Heap().Handle(), stubs.Allocate)
}

func TestGuardKeepsFirstFailure(t *testing.T) {
	r := newRuntime(t)
	register(r)
	defer Release(r)
	s := lookup(r.Heap().Handle())

	errFirst := errors.New("first")
	func() {
		defer s.guard()
		panic(errFirst)
	}()
	func() {
		defer s.guard()
		panic("second")
	}()
	if !errors.Is(s.err, errFirst) {
		t.Errorf("Expected the first failure to be kept, got %v", s.err)
	}
}

func TestCallWithoutEntry(t *testing.T) {
	r := newRuntime(t)
	if _, err := Call(r, 0, heap.Nil, nil); err == nil {
		t.Errorf("Expected a call without an entry stub to fail")
	}
}

func TestCallbacksMatchBuild(t *testing.T) {
	r := newRuntime(t)
	cb, err := Callbacks(r, nil)
	defer Release(r)
	switch {
	case Available && err != nil:
		t.Fatalf("Expected callbacks, got error: %v", err)
	case Available:
		if missing := cb.Missing(); len(missing) > 0 {
			t.Errorf("Expected every routine to be set, missing %v", missing)
		}
		if cb.Heap != r.Heap().Handle() {
			t.Errorf("Expected the heap handle %#x, got %#x", r.Heap().Handle(), cb.Heap)
		}
		seen := make(map[uintptr]bool)
		for op, addr := range cb.BinOp {
			if seen[addr] {
				t.Errorf("Expected operator %d to have a routine of its own", op)
			}
			seen[addr] = true
		}
	case !errors.Is(err, ErrNoCallbacks) && !errors.Is(err, ErrUnavailable):
		t.Errorf("Expected callbacks to be unavailable, got %v", err)
	}
}
