//go:build !cgo && amd64 && unix

package host

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/rt"
	"github.com/xyproto/lirjit/stubs"
)

// CanRun reports whether generated code runs in this build
const CanRun = true

// Available reports whether the stubs can fall back into Go
const Available = false

// Callbacks cannot be served without cgo
func Callbacks(*rt.Runtime, *masm.CodeSpace) (stubs.Callbacks, error) {
	return stubs.Callbacks{}, ErrNoCallbacks
}

const (
	trampolineStack = 1 << 20
	trampolineArgs  = 256
)

// trampolineFunc is how Go sees the trampoline. The register ABI passes
// the arguments in rax, rbx, rcx, rdi and rsi and takes the result from rax.
type trampolineFunc func(entry, fn, argc, argv, stackTop uintptr) uintptr

var trampoline struct {
	once sync.Once
	mu   sync.Mutex
	err  error
	code *masm.CodeSpace
	// stack holds the arguments at its base and grows down from its end
	stack *heap.Region
	addr  uintptr
	call  trampolineFunc
}

// trampolineCode switches to the private stack, moves the arguments to
// where the entry stub wants them and calls it. r14 and r15 belong to the
// Go runtime; the entry stub keeps every other callee-saved register.
func trampolineCode() []byte {
	m := masm.New("trampoline", masm.Env{})
	m.Stack().SetEnabled(false)
	f := m.Prologue()
	m.Push(masm.R14)
	m.Push(masm.R15)
	m.Mov(masm.Scratch, masm.RAX)
	m.Mov(masm.RDX, masm.RDI)
	m.Mov(masm.RDI, masm.RBX)
	m.Mov(masm.RAX, masm.RSP)
	m.Mov(masm.RSP, masm.RSI)
	m.Push(masm.RAX)
	m.SubImm(masm.RSP, 8)
	m.Mov(masm.RSI, masm.RCX)
	m.CallReg(masm.Scratch)
	m.AddImm(masm.RSP, 8)
	m.Load(masm.RSP, masm.At(masm.RSP, 0))
	m.Pop(masm.R15)
	m.Pop(masm.R14)
	m.Epilogue(f, 0)
	m.Commit()
	return m.Bytes()
}

func installTrampoline() {
	t := &trampoline
	if t.stack, t.err = heap.NewRegion(trampolineStack); t.err != nil {
		t.err = fmt.Errorf("host: trampoline stack: %w", t.err)
		return
	}
	t.code = masm.NewCodeSpace()
	if t.addr, t.err = t.code.Put(trampolineCode(), nil); t.err != nil {
		t.err = fmt.Errorf("host: trampoline: %w", t.err)
		return
	}
	// A func value points at a word holding the code address
	holder := &t.addr
	t.call = *(*trampolineFunc)(unsafe.Pointer(&holder))
}

// enter copies the arguments next to the private stack and calls the
// entry stub on it. Calls are serialized since they share that stack.
func enter(entry uintptr, fn heap.Value, args []heap.Value) (heap.Value, error) {
	t := &trampoline
	t.once.Do(installTrampoline)
	if t.err != nil {
		return heap.Nil, t.err
	}
	if len(args) > trampolineArgs {
		return heap.Nil, fmt.Errorf("host: %d arguments, at most %d fit", len(args), trampolineArgs)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	argv := t.stack.Base()
	for i, a := range args {
		t.stack.SetWord(argv+uintptr(8*i), uint64(a))
	}
	argc := heap.SmallInt(int64(len(args)))
	res := t.call(entry, uintptr(fn), uintptr(argc), argv, t.stack.End())
	return heap.Value(res), nil
}
