// Package stubs generates the fixed library of runtime routines that
// generated code calls: the host entry bridge, allocation, property
// lookup, the binary operators, coercions and the collector hook. Each
// stub handles the common tags inline and calls a host routine for
// everything else.
package stubs

import (
	"fmt"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/internal/masm"
)

// Kind identifies one stub
type Kind int

const (
	Entry Kind = iota
	Allocate
	CallBinding
	VarArg
	PutVarArg
	CollectGarbage
	Typeof
	Sizeof
	Keysof
	LookupProperty
	CoerceToBoolean
	CloneObject
	DeleteProperty
	HashValue
	StackTrace
	binOpBase
)

// Count is the number of stubs, including one per binary operator
const Count = int(binOpBase) + int(hir.BinOpCount)

// BinOpStub returns the stub kind of a binary operator
func BinOpStub(op hir.BinOp) Kind { return binOpBase + Kind(op) }

var kindNames = [binOpBase]string{
	"Entry", "Allocate", "CallBinding", "VarArg", "PutVarArg", "CollectGarbage",
	"Typeof", "Sizeof", "Keysof", "LookupProperty", "CoerceToBoolean",
	"CloneObject", "DeleteProperty", "HashValue", "StackTrace",
}

func (k Kind) String() string {
	switch {
	case k >= 0 && k < binOpBase:
		return kindNames[k]
	case k >= binOpBase && int(k) < Count:
		return fmt.Sprintf("BinOp(%s)", hir.BinOp(k-binOpBase))
	}
	return fmt.Sprintf("Stub(%d)", int(k))
}

// ArgSlots is the number of caller-pushed stack arguments a stub pops on return
func (k Kind) ArgSlots() int {
	switch k {
	case Allocate, CallBinding:
		return 2
	}
	return 0
}

// Callbacks are the host routines the stubs fall back to. Every routine
// takes the opaque Heap handle as its first argument and follows the host
// calling convention.
type Callbacks struct {
	Heap uintptr

	Allocate       uintptr // (heap, size smallint) -> address
	CollectGarbage uintptr // (heap, stack top)
	Sizeof         uintptr // (heap, value) -> smallint
	Keysof         uintptr // (heap, value) -> array
	LookupProperty uintptr // (heap, object, key, insert) -> slot address or nil
	ToBoolean      uintptr // (heap, value) -> boolean
	DeleteProperty uintptr // (heap, object, key)
	Hash           uintptr // (heap, string) -> hash
	StackTrace     uintptr // (heap, frame, ip) -> array
	BinOp          [hir.BinOpCount]uintptr
}

// Missing lists the routines that are not set
func (cb *Callbacks) Missing() []string {
	var missing []string
	check := func(name string, addr uintptr) {
		if addr == 0 {
			missing = append(missing, name)
		}
	}
	check("Heap", cb.Heap)
	check("Allocate", cb.Allocate)
	check("CollectGarbage", cb.CollectGarbage)
	check("Sizeof", cb.Sizeof)
	check("Keysof", cb.Keysof)
	check("LookupProperty", cb.LookupProperty)
	check("ToBoolean", cb.ToBoolean)
	check("DeleteProperty", cb.DeleteProperty)
	check("Hash", cb.Hash)
	check("StackTrace", cb.StackTrace)
	for op := hir.BinOp(0); op < hir.BinOpCount; op++ {
		check("BinOp"+op.String(), cb.BinOp[op])
	}
	return missing
}

// Library is the generated stub code. Stubs share one buffer and call each
// other through labels; generated functions call them by address once the
// library is installed.
type Library struct {
	m      *masm.Masm
	cb     Callbacks
	heap   *heap.Heap
	labels [Count]*masm.Label
	base   uintptr
}

// Generate assembles every stub against the heap's control words
func Generate(h *heap.Heap, cb Callbacks) (lib *Library, err error) {
	defer engine.Recover(&err)
	if missing := cb.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("stubs: missing host routines %v", missing)
	}
	lib = &Library{cb: cb, heap: h}
	for i := range lib.labels {
		lib.labels[i] = masm.NewLabel()
	}
	lib.m = masm.New("stubs", masm.Env{
		HeapTop:        h.NewSpace().TopAddress(),
		HeapLimit:      h.NewSpace().LimitAddress(),
		HeapNeedsGC:    h.NeedsGCAddress(),
		Allocate:       masm.LabelTarget(lib.labels[Allocate]),
		CollectGarbage: masm.LabelTarget(lib.labels[CollectGarbage]),
		HashValue:      masm.LabelTarget(lib.labels[HashValue]),
		LookupProperty: masm.LabelTarget(lib.labels[LookupProperty]),
	})

	for k := Kind(0); int(k) < Count; k++ {
		lib.generate(k)
	}
	lib.m.Commit()
	engine.Verbosef("stubs: generated %d stubs in %d bytes", Count, len(lib.m.Bytes()))
	return lib, nil
}

func (lib *Library) generate(k Kind) {
	m := lib.m
	m.Stack().Reset()
	m.Bind(lib.labels[k])
	if k >= binOpBase {
		lib.binOp(hir.BinOp(k - binOpBase))
		return
	}
	switch k {
	case Entry:
		lib.entry()
	case Allocate:
		lib.allocate()
	case CallBinding:
		lib.callBinding()
	case VarArg:
		lib.varArg()
	case PutVarArg:
		lib.putVarArg()
	case CollectGarbage:
		lib.collectGarbage()
	case Typeof:
		lib.typeOf()
	case Sizeof:
		lib.sizeOf()
	case Keysof:
		lib.keysOf()
	case LookupProperty:
		lib.lookupProperty()
	case CoerceToBoolean:
		lib.coerceToBoolean()
	case CloneObject:
		lib.cloneObject()
	case DeleteProperty:
		lib.deleteProperty()
	case HashValue:
		lib.hashValue()
	case StackTrace:
		lib.stackTrace()
	default:
		engine.Fatalf(engine.CategoryCodegen, "no generator for stub %s", k)
	}
}

// Bytes returns the code of the whole library
func (lib *Library) Bytes() []byte { return lib.m.Bytes() }

// Relocations returns the library's relocation table
func (lib *Library) Relocations() []masm.Relocation { return lib.m.Relocations() }

// Offset is the position of a stub inside the library
func (lib *Library) Offset(k Kind) int { return lib.labels[k].Pos() }

// Install places the library into executable memory
func (lib *Library) Install(cs *masm.CodeSpace) error {
	base, err := cs.Put(lib.Bytes(), lib.Relocations())
	if err != nil {
		return fmt.Errorf("stubs: %w", err)
	}
	lib.base = base
	return nil
}

// Installed reports whether Install succeeded
func (lib *Library) Installed() bool { return lib.base != 0 }

// Addr is the address of an installed stub
func (lib *Library) Addr(k Kind) uintptr {
	if lib.base == 0 {
		engine.Fatalf(engine.CategoryCodegen, "stub %s used before the library was installed", k)
	}
	return lib.base + uintptr(lib.Offset(k))
}

// Env is the macro environment for code that calls the installed library
func (lib *Library) Env() masm.Env {
	return masm.Env{
		HeapTop:        lib.heap.NewSpace().TopAddress(),
		HeapLimit:      lib.heap.NewSpace().LimitAddress(),
		HeapNeedsGC:    lib.heap.NeedsGCAddress(),
		Allocate:       masm.AddrTarget(lib.Addr(Allocate)),
		CollectGarbage: masm.AddrTarget(lib.Addr(CollectGarbage)),
		HashValue:      masm.AddrTarget(lib.Addr(HashValue)),
		LookupProperty: masm.AddrTarget(lib.Addr(LookupProperty)),
	}
}

// TrapCallbacks installs a routine that stops at a breakpoint and points
// every host routine at it. Code generated against these callbacks runs
// until the first fallback.
func TrapCallbacks(cs *masm.CodeSpace, handle uintptr) (Callbacks, error) {
	addr, err := cs.Put([]byte{0xcc, 0xc3}, nil)
	if err != nil {
		return Callbacks{}, fmt.Errorf("stubs: trap routine: %w", err)
	}
	cb := Callbacks{
		Heap:           handle,
		Allocate:       addr,
		CollectGarbage: addr,
		Sizeof:         addr,
		Keysof:         addr,
		LookupProperty: addr,
		ToBoolean:      addr,
		DeleteProperty: addr,
		Hash:           addr,
		StackTrace:     addr,
	}
	for op := range cb.BinOp {
		cb.BinOp[op] = addr
	}
	return cb, nil
}
