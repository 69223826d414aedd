// Package hir is the upstream instruction graph the back end consumes:
// ordered instructions grouped into basic blocks, each block knowing its
// successors and predecessor count. Building it from source text is not
// this module's job; Builder methods exist so callers and tests can
// assemble graphs directly.
package hir

import "fmt"

// Kind is the closed enumeration of source instruction kinds
type Kind int

const (
	Nop Kind = iota
	ParallelMove
	Entry
	Return
	Goto
	StoreLocal
	StoreContext
	StoreProperty
	LoadRoot
	LoadContext
	LoadProperty
	DeleteProperty
	BranchBool
	BinOpKind
	Call
	Typeof
	Sizeof
	Keysof
	Not
	CloneObject
	CollectGarbage
	GetStackTrace
	AllocateObject
	AllocateFunction

	KindCount
)

var kindNames = [KindCount]string{
	Nop:              "Nop",
	ParallelMove:     "ParallelMove",
	Entry:            "Entry",
	Return:           "Return",
	Goto:             "Goto",
	StoreLocal:       "StoreLocal",
	StoreContext:     "StoreContext",
	StoreProperty:    "StoreProperty",
	LoadRoot:         "LoadRoot",
	LoadContext:      "LoadContext",
	LoadProperty:     "LoadProperty",
	DeleteProperty:   "DeleteProperty",
	BranchBool:       "BranchBool",
	BinOpKind:        "BinOp",
	Call:             "Call",
	Typeof:           "Typeof",
	Sizeof:           "Sizeof",
	Keysof:           "Keysof",
	Not:              "Not",
	CloneObject:      "CloneObject",
	CollectGarbage:   "CollectGarbage",
	GetStackTrace:    "GetStackTrace",
	AllocateObject:   "AllocateObject",
	AllocateFunction: "AllocateFunction",
}

func (k Kind) String() string {
	if k >= 0 && k < KindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every kind in enumeration order
func Kinds() []Kind {
	kinds := make([]Kind, KindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// BinOp is a binary operator of the source language
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	BAnd
	BOr
	BXor
	Shl
	Shr
	UShr
	Eq
	StrictEq
	Ne
	StrictNe
	Lt
	Gt
	Le
	Ge
	LOr
	LAnd

	BinOpCount
)

var binOpNames = [BinOpCount]string{
	"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>", ">>>",
	"==", "===", "!=", "!==", "<", ">", "<=", ">=", "||", "&&",
}

func (op BinOp) String() string {
	if op >= 0 && op < BinOpCount {
		return binOpNames[op]
	}
	return fmt.Sprintf("BinOp(%d)", int(op))
}

// IsMath reports floating point arithmetic operators
func (op BinOp) IsMath() bool { return op >= Add && op <= Div }

// IsBinary reports operators that work on truncated integers
func (op BinOp) IsBinary() bool { return op >= Mod && op <= UShr }

// IsLogic reports comparisons, which produce a boolean
func (op BinOp) IsLogic() bool { return op >= Eq && op <= Ge }

// IsBoolLogic reports the short-circuit operators
func (op BinOp) IsBoolLogic() bool { return op == LOr || op == LAnd }

// IsStrict reports the identity comparisons
func (op BinOp) IsStrict() bool { return op == StrictEq || op == StrictNe }
