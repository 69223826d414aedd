// Package lir is the low-level, target-specific instruction list: lowering
// from the source graph, per-function register and spill allocation, and
// the walk that emits x86-64 code through the macro assembler.
package lir

import "fmt"

// Kind is the closed set of low-level instruction kinds. There is one kind
// for every source kind.
type Kind int

const (
	KindNop Kind = iota
	KindParallelMove
	KindEntry
	KindReturn
	KindGoto
	KindStoreLocal
	KindStoreContext
	KindStoreProperty
	KindLoadRoot
	KindLoadContext
	KindLoadProperty
	KindDeleteProperty
	KindBranchBool
	KindBinOp
	KindCall
	KindTypeof
	KindSizeof
	KindKeysof
	KindNot
	KindCloneObject
	KindCollectGarbage
	KindGetStackTrace
	KindAllocateObject
	KindAllocateFunction
	KindCount
)

var kindNames = [KindCount]string{
	"Nop", "ParallelMove", "Entry", "Return", "Goto", "StoreLocal",
	"StoreContext", "StoreProperty", "LoadRoot", "LoadContext",
	"LoadProperty", "DeleteProperty", "BranchBool", "BinOp", "Call",
	"Typeof", "Sizeof", "Keysof", "Not", "CloneObject", "CollectGarbage",
	"GetStackTrace", "AllocateObject", "AllocateFunction",
}

func (k Kind) String() string {
	if k >= 0 && k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// CallLike reports kinds that call a stub or a function. Every allocatable
// register may be clobbered across them.
func (k Kind) CallLike() bool {
	switch k {
	case KindStoreProperty, KindLoadProperty, KindDeleteProperty, KindBranchBool,
		KindBinOp, KindCall, KindTypeof, KindSizeof, KindKeysof, KindNot,
		KindCloneObject, KindCollectGarbage, KindGetStackTrace,
		KindAllocateObject, KindAllocateFunction:
		return true
	}
	return false
}
