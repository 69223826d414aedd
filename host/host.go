// Package host runs generated code and gives its stubs a way back into
// Go. With cgo, code is entered from C and every stub fallback reaches the
// rt routine behind it through an exported function. Without cgo, code
// still runs on amd64 unix through a small trampoline, but the stubs can
// only fall back to the trap routine.
package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/rt"
	"github.com/xyproto/lirjit/stubs"
)

var (
	// ErrUnavailable means generated code cannot run on this platform
	ErrUnavailable = errors.New("host: generated code only runs on amd64 unix")

	// ErrNoCallbacks means the stubs cannot call back into Go in this build
	ErrNoCallbacks = errors.New("host: calling back into Go needs cgo")
)

// session is the runtime behind one heap handle, with the first failure
// its routines raised during the current call
type session struct {
	r     *rt.Runtime
	err   error
	calls map[stubs.Kind]int
}

var (
	mu       sync.Mutex
	sessions = make(map[uintptr]*session)
)

func register(r *rt.Runtime) {
	mu.Lock()
	defer mu.Unlock()
	sessions[r.Heap().Handle()] = &session{r: r, calls: make(map[stubs.Kind]int)}
}

// Release forgets the routines of r. Code that still falls back into
// them afterwards crashes.
func Release(r *rt.Runtime) {
	mu.Lock()
	defer mu.Unlock()
	delete(sessions, r.Heap().Handle())
}

func lookup(handle uintptr) *session {
	mu.Lock()
	defer mu.Unlock()
	return sessions[handle]
}

// Calls reports how often each stub fell back into the routines of r
func Calls(r *rt.Runtime) map[stubs.Kind]int {
	s := lookup(r.Heap().Handle())
	if s == nil {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	calls := make(map[stubs.Kind]int, len(s.calls))
	for k, n := range s.calls {
		calls[k] = n
	}
	return calls
}

// routine finds the session of a heap handle from inside a fallback
func routine(handle uintptr, k stubs.Kind) *session {
	s := lookup(handle)
	if s == nil {
		panic(fmt.Sprintf("host: %s fallback for unknown heap %#x", k, handle))
	}
	mu.Lock()
	s.calls[k]++
	mu.Unlock()
	return s
}

// guard keeps a panic in a routine from unwinding through generated code.
// The routine returns its zero value and the call reports the failure.
func (s *session) guard() {
	if p := recover(); p != nil {
		s.fail(p)
	}
}

func (s *session) fail(p any) {
	if s.err != nil {
		return
	}
	if err, ok := p.(error); ok {
		s.err = fmt.Errorf("host: %w", err)
	} else {
		s.err = fmt.Errorf("host: %v", p)
	}
	engine.Verbosef("%v", s.err)
}

// Call runs fn through the entry stub at entry and returns its result.
// r is the runtime whose heap fn lives in; a failure in one of its
// routines during the call is returned as the error.
func Call(r *rt.Runtime, entry uintptr, fn heap.Value, args []heap.Value) (heap.Value, error) {
	if entry == 0 {
		return heap.Nil, errors.New("host: no entry stub")
	}
	s := lookup(r.Heap().Handle())
	if s != nil {
		s.err = nil
	}
	res, err := enter(entry, fn, args)
	if err != nil {
		return heap.Nil, err
	}
	if s != nil && s.err != nil {
		return heap.Nil, s.err
	}
	return res, nil
}
