//go:build cgo && amd64 && unix

package host

/*
#include <stdint.h>

extern uint64_t lirjitAllocate(uintptr_t, uint64_t);
extern void lirjitCollectGarbage(uintptr_t, uint64_t);
extern uint64_t lirjitSizeof(uintptr_t, uint64_t);
extern uint64_t lirjitKeysof(uintptr_t, uint64_t);
extern uint64_t lirjitLookupProperty(uintptr_t, uint64_t, uint64_t, uint64_t);
extern uint64_t lirjitToBoolean(uintptr_t, uint64_t);
extern void lirjitDeleteProperty(uintptr_t, uint64_t, uint64_t);
extern uint64_t lirjitHash(uintptr_t, uint64_t);
extern uint64_t lirjitStackTrace(uintptr_t, uint64_t, uint64_t);
extern uint64_t lirjitBinOp(uintptr_t, int, uint64_t, uint64_t);

enum {
	LIRJIT_ALLOCATE,
	LIRJIT_COLLECT_GARBAGE,
	LIRJIT_SIZEOF,
	LIRJIT_KEYSOF,
	LIRJIT_LOOKUP_PROPERTY,
	LIRJIT_TO_BOOLEAN,
	LIRJIT_DELETE_PROPERTY,
	LIRJIT_HASH,
	LIRJIT_STACK_TRACE,
};

static uintptr_t lirjit_routine(int which) {
	switch (which) {
	case LIRJIT_ALLOCATE: return (uintptr_t)&lirjitAllocate;
	case LIRJIT_COLLECT_GARBAGE: return (uintptr_t)&lirjitCollectGarbage;
	case LIRJIT_SIZEOF: return (uintptr_t)&lirjitSizeof;
	case LIRJIT_KEYSOF: return (uintptr_t)&lirjitKeysof;
	case LIRJIT_LOOKUP_PROPERTY: return (uintptr_t)&lirjitLookupProperty;
	case LIRJIT_TO_BOOLEAN: return (uintptr_t)&lirjitToBoolean;
	case LIRJIT_DELETE_PROPERTY: return (uintptr_t)&lirjitDeleteProperty;
	case LIRJIT_HASH: return (uintptr_t)&lirjitHash;
	case LIRJIT_STACK_TRACE: return (uintptr_t)&lirjitStackTrace;
	}
	return 0;
}

// Each operator stub calls a routine of its own with (heap, lhs, rhs)
#define LIRJIT_BINOP(n) \
	static uint64_t lirjit_binop_##n(uintptr_t h, uint64_t lhs, uint64_t rhs) { \
		return lirjitBinOp(h, n, lhs, rhs); \
	}

LIRJIT_BINOP(0) LIRJIT_BINOP(1) LIRJIT_BINOP(2) LIRJIT_BINOP(3) LIRJIT_BINOP(4)
LIRJIT_BINOP(5) LIRJIT_BINOP(6) LIRJIT_BINOP(7) LIRJIT_BINOP(8) LIRJIT_BINOP(9)
LIRJIT_BINOP(10) LIRJIT_BINOP(11) LIRJIT_BINOP(12) LIRJIT_BINOP(13) LIRJIT_BINOP(14)
LIRJIT_BINOP(15) LIRJIT_BINOP(16) LIRJIT_BINOP(17) LIRJIT_BINOP(18) LIRJIT_BINOP(19)
LIRJIT_BINOP(20)

#define LIRJIT_BINOPS 21

typedef uint64_t (*lirjit_binop_fn)(uintptr_t, uint64_t, uint64_t);

static uintptr_t lirjit_binop(int op) {
	static const lirjit_binop_fn table[LIRJIT_BINOPS] = {
		lirjit_binop_0, lirjit_binop_1, lirjit_binop_2, lirjit_binop_3,
		lirjit_binop_4, lirjit_binop_5, lirjit_binop_6, lirjit_binop_7,
		lirjit_binop_8, lirjit_binop_9, lirjit_binop_10, lirjit_binop_11,
		lirjit_binop_12, lirjit_binop_13, lirjit_binop_14, lirjit_binop_15,
		lirjit_binop_16, lirjit_binop_17, lirjit_binop_18, lirjit_binop_19,
		lirjit_binop_20,
	};
	if (op < 0 || op >= LIRJIT_BINOPS) {
		return 0;
	}
	return (uintptr_t)table[op];
}

// The entry stub: rdi = function, rsi = tagged argc, rdx = argv
typedef uint64_t (*lirjit_entry_fn)(uint64_t, uint64_t, const uint64_t *);

static uint64_t lirjit_enter(uintptr_t entry, uint64_t fn, uint64_t argc, const uint64_t *argv) {
	return ((lirjit_entry_fn)entry)(fn, argc, argv);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/rt"
	"github.com/xyproto/lirjit/stubs"
)

// CanRun reports whether generated code runs in this build
const CanRun = true

// Available reports whether the stubs can fall back into Go
const Available = true

// Callbacks points every host routine of the stubs at the exported
// wrapper of the matching rt routine of r
func Callbacks(r *rt.Runtime, _ *masm.CodeSpace) (stubs.Callbacks, error) {
	if int(C.LIRJIT_BINOPS) != int(hir.BinOpCount) {
		return stubs.Callbacks{}, fmt.Errorf("host: %d operator routines for %d operators", int(C.LIRJIT_BINOPS), hir.BinOpCount)
	}
	register(r)
	addr := func(which C.int) uintptr { return uintptr(C.lirjit_routine(which)) }
	cb := stubs.Callbacks{
		Heap:           r.Heap().Handle(),
		Allocate:       addr(C.LIRJIT_ALLOCATE),
		CollectGarbage: addr(C.LIRJIT_COLLECT_GARBAGE),
		Sizeof:         addr(C.LIRJIT_SIZEOF),
		Keysof:         addr(C.LIRJIT_KEYSOF),
		LookupProperty: addr(C.LIRJIT_LOOKUP_PROPERTY),
		ToBoolean:      addr(C.LIRJIT_TO_BOOLEAN),
		DeleteProperty: addr(C.LIRJIT_DELETE_PROPERTY),
		Hash:           addr(C.LIRJIT_HASH),
		StackTrace:     addr(C.LIRJIT_STACK_TRACE),
	}
	for op := range cb.BinOp {
		cb.BinOp[op] = uintptr(C.lirjit_binop(C.int(op)))
	}
	return cb, nil
}

// enter calls the entry stub from C, so fallbacks may call back into Go
func enter(entry uintptr, fn heap.Value, args []heap.Value) (heap.Value, error) {
	var argv *C.uint64_t
	if len(args) > 0 {
		argv = (*C.uint64_t)(unsafe.Pointer(&args[0]))
	}
	argc := heap.SmallInt(int64(len(args)))
	res := C.lirjit_enter(C.uintptr_t(entry), C.uint64_t(fn), C.uint64_t(argc), argv)
	return heap.Value(res), nil
}
