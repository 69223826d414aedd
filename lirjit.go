// Package lirjit is the back end of a JIT for a small dynamically typed
// language. It lowers a source instruction graph to a low-level list,
// allocates registers and spill slots per function, emits x86-64 code
// against a fixed library of runtime stubs and installs the result into
// executable memory.
package lirjit

import (
	"errors"
	"fmt"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/host"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/lir"
	"github.com/xyproto/lirjit/rt"
	"github.com/xyproto/lirjit/stubs"
)

// CallbackFunc supplies the host routines the stubs fall back to, once
// the runtime and the code space exist
type CallbackFunc func(r *rt.Runtime, cs *masm.CodeSpace) (stubs.Callbacks, error)

// TrapCallbacks stops generated code at its first fallback
func TrapCallbacks(r *rt.Runtime, cs *masm.CodeSpace) (stubs.Callbacks, error) {
	return stubs.TrapCallbacks(cs, r.Heap().Handle())
}

// DefaultCallbacks falls back into the rt routines when the build can call
// back into Go, and traps otherwise
func DefaultCallbacks(r *rt.Runtime, cs *masm.CodeSpace) (stubs.Callbacks, error) {
	if host.Available {
		return host.Callbacks(r, cs)
	}
	return TrapCallbacks(r, cs)
}

// Context is everything one compilation pipeline shares: the heap, the
// installed stub library and the memory code is placed in. It is not safe
// for concurrent use.
type Context struct {
	Config    engine.Config
	Heap      *heap.Heap
	CodeSpace *masm.CodeSpace
	Stubs     *stubs.Library
	Runtime   *rt.Runtime
}

// Code is the output of one compilation
type Code struct {
	Bytes       []byte
	Relocations []masm.Relocation
	Frames      []lir.Region
	SourceMap   []heap.SourceMapEntry // offsets relative to the start of Bytes
	List        *lir.List

	addr uintptr
}

// Entry is the offset of the first function's code
func (c *Code) Entry() int {
	if len(c.Frames) == 0 {
		return 0
	}
	return c.Frames[0].Offset
}

// Addr is where the code was installed, zero before Install
func (c *Code) Addr() uintptr { return c.addr }

// New creates a context: a heap with its root context, a code space and
// the stub library installed into it. A nil callbacks uses
// DefaultCallbacks.
func New(cfg engine.Config, callbacks CallbackFunc) (*Context, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("lirjit: %w", err)
	}
	engine.VerboseMode = engine.VerboseMode || cfg.Verbose

	h, err := heap.New(cfg.PageSize, cfg.GCThreshold)
	if err != nil {
		return nil, fmt.Errorf("lirjit: %w", err)
	}
	ctx := &Context{
		Config:    cfg,
		Heap:      h,
		CodeSpace: masm.NewCodeSpace(),
		Runtime:   rt.New(h),
	}
	if callbacks == nil {
		callbacks = DefaultCallbacks
	}
	cb, err := callbacks(ctx.Runtime, ctx.CodeSpace)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("lirjit: callbacks: %w", err)
	}
	if ctx.Stubs, err = stubs.Generate(h, cb); err != nil {
		ctx.Close()
		return nil, fmt.Errorf("lirjit: %w", err)
	}
	if err := ctx.Stubs.Install(ctx.CodeSpace); err != nil {
		ctx.Close()
		return nil, fmt.Errorf("lirjit: %w", err)
	}
	engine.Verbosef("lirjit: context ready for %s, %d bytes of stubs", cfg.Platform, len(ctx.Stubs.Bytes()))
	return ctx, nil
}

// Close releases the code space and the heap
func (c *Context) Close() error {
	host.Release(c.Runtime)
	return errors.Join(c.CodeSpace.Close(), c.Heap.Close())
}

// Function wraps installed code in a function object whose context holds
// slots, with the root context as its root
func (c *Context) Function(entry uintptr, slots ...heap.Value) heap.Value {
	h := c.Heap
	scope := h.NewContext(heap.Nil, len(slots))
	for i, v := range slots {
		h.SetContextSlot(scope, i, v)
	}
	return h.NewFunction(scope, entry, h.Roots(), 0)
}

// Run calls fn with args through the entry stub and returns its result.
// It returns host.ErrUnavailable where generated code cannot run.
func (c *Context) Run(fn heap.Value, args ...heap.Value) (heap.Value, error) {
	res, err := host.Call(c.Runtime, c.Stubs.Addr(stubs.Entry), fn, args)
	if err != nil {
		return heap.Nil, fmt.Errorf("lirjit: %w", err)
	}
	return res, nil
}

// Compile lowers, allocates and generates every function of g. An
// internal error discards all output.
func (c *Context) Compile(g *hir.Graph) (code *Code, err error) {
	sm := c.Heap.SourceMap()
	sm.Discard()
	defer func() {
		sm.Discard()
		if err != nil {
			code = nil
		}
	}()
	defer engine.Recover(&err)

	if g.FirstInstruction() == nil {
		return nil, errors.New("lirjit: empty graph")
	}
	list := lir.Lower(g)
	m := masm.New("code", c.Stubs.Env())
	frames := lir.Generate(list, m, c.Stubs, lir.Options{
		SourceMap: sm,
		TrapEntry: c.Config.TrapEntry,
	})
	m.Commit()
	return &Code{
		Bytes:       m.Bytes(),
		Relocations: m.Relocations(),
		Frames:      frames,
		SourceMap:   append([]heap.SourceMapEntry(nil), sm.Pending()...),
		List:        list,
	}, nil
}

// Install places code into executable memory, resolves its absolute
// relocations and makes its source positions available to stack traces.
// It returns the address of the first function.
func (c *Context) Install(code *Code) (uintptr, error) {
	if code.addr != 0 {
		return 0, errors.New("lirjit: code is already installed")
	}
	addr, err := c.CodeSpace.Put(code.Bytes, code.Relocations)
	if err != nil {
		return 0, fmt.Errorf("lirjit: %w", err)
	}
	code.addr = addr
	sm := c.Heap.SourceMap()
	for _, e := range code.SourceMap {
		sm.Push(int(e.Addr), e.Pos)
	}
	sm.Commit(addr)
	return addr + uintptr(code.Entry()), nil
}
