package lir

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
)

type Nop struct {
	Base
	arity[none, none, none]
}

// ParallelMove performs its moves as one permutation
type ParallelMove struct {
	Base
	arity[none, none, none]
	Moves []MoveOperands
}

// MoveOperands is one assignment of a parallel move
type MoveOperands struct {
	To   Operand
	From Operand
}

// Entry opens a function's frame
type Entry struct {
	Base
	arity[none, none, none]
}

type Return struct {
	Base
	arity[one, none, none]
}

type Goto struct {
	Base
	arity[none, none, none]
	Target *hir.Block
}

type StoreLocal struct {
	Base
	arity[one, one, none]
}

// StoreContext writes slot Index of the context Depth links up
type StoreContext struct {
	Base
	arity[one, none, one]
	Depth, Index int
}

type StoreProperty struct {
	Base
	arity[three, none, none]
}

type LoadRoot struct {
	Base
	arity[none, one, none]
}

// LoadContext reads slot Index of the context Depth links up
type LoadContext struct {
	Base
	arity[none, one, one]
	Depth, Index int
}

type LoadProperty struct {
	Base
	arity[two, one, none]
}

type DeleteProperty struct {
	Base
	arity[two, none, none]
}

type BranchBool struct {
	Base
	arity[one, none, none]
	True, False *hir.Block
}

type BinOp struct {
	Base
	arity[two, one, none]
	Op hir.BinOp
}

// Call calls the function in its input. The arguments ride along as
// payload operands.
type Call struct {
	Base
	arity[one, one, none]
	Args []Operand
}

type Typeof struct {
	Base
	arity[one, one, none]
}

type Sizeof struct {
	Base
	arity[one, one, none]
}

type Keysof struct {
	Base
	arity[one, one, none]
}

type Not struct {
	Base
	arity[one, one, none]
}

type CloneObject struct {
	Base
	arity[one, one, none]
}

type CollectGarbage struct {
	Base
	arity[none, none, none]
}

type GetStackTrace struct {
	Base
	arity[none, one, none]
}

// AllocateObject allocates an empty object or array literal
type AllocateObject struct {
	Base
	arity[none, one, none]
	Tag      heap.Tag
	Capacity int
}

// AllocateFunction creates a closure whose code starts at Body
type AllocateFunction struct {
	Base
	arity[none, one, none]
	Body *hir.Block
	Argc int
}

func (*Nop) Kind() Kind              { return KindNop }
func (*ParallelMove) Kind() Kind     { return KindParallelMove }
func (*Entry) Kind() Kind            { return KindEntry }
func (*Return) Kind() Kind           { return KindReturn }
func (*Goto) Kind() Kind             { return KindGoto }
func (*StoreLocal) Kind() Kind       { return KindStoreLocal }
func (*StoreContext) Kind() Kind     { return KindStoreContext }
func (*StoreProperty) Kind() Kind    { return KindStoreProperty }
func (*LoadRoot) Kind() Kind         { return KindLoadRoot }
func (*LoadContext) Kind() Kind      { return KindLoadContext }
func (*LoadProperty) Kind() Kind     { return KindLoadProperty }
func (*DeleteProperty) Kind() Kind   { return KindDeleteProperty }
func (*BranchBool) Kind() Kind       { return KindBranchBool }
func (*BinOp) Kind() Kind            { return KindBinOp }
func (*Call) Kind() Kind             { return KindCall }
func (*Typeof) Kind() Kind           { return KindTypeof }
func (*Sizeof) Kind() Kind           { return KindSizeof }
func (*Keysof) Kind() Kind           { return KindKeysof }
func (*Not) Kind() Kind              { return KindNot }
func (*CloneObject) Kind() Kind      { return KindCloneObject }
func (*CollectGarbage) Kind() Kind   { return KindCollectGarbage }
func (*GetStackTrace) Kind() Kind    { return KindGetStackTrace }
func (*AllocateObject) Kind() Kind   { return KindAllocateObject }
func (*AllocateFunction) Kind() Kind { return KindAllocateFunction }

// constructors is the lowering table: one entry per source kind
var constructors = map[hir.Kind]func(h *hir.Instruction) Instruction{
	hir.Nop:          func(*hir.Instruction) Instruction { return &Nop{} },
	hir.ParallelMove: func(h *hir.Instruction) Instruction { return &ParallelMove{Moves: make([]MoveOperands, len(h.Moves))} },
	hir.Entry:        func(*hir.Instruction) Instruction { return &Entry{} },
	hir.Return:       func(*hir.Instruction) Instruction { return &Return{} },
	hir.Goto:         func(h *hir.Instruction) Instruction { return &Goto{Target: h.Target} },
	hir.StoreLocal:   func(*hir.Instruction) Instruction { return &StoreLocal{} },
	hir.StoreContext: func(h *hir.Instruction) Instruction {
		return &StoreContext{Depth: h.Depth, Index: h.Index}
	},
	hir.StoreProperty: func(*hir.Instruction) Instruction { return &StoreProperty{} },
	hir.LoadRoot:      func(*hir.Instruction) Instruction { return &LoadRoot{} },
	hir.LoadContext: func(h *hir.Instruction) Instruction {
		return &LoadContext{Depth: h.Depth, Index: h.Index}
	},
	hir.LoadProperty:   func(*hir.Instruction) Instruction { return &LoadProperty{} },
	hir.DeleteProperty: func(*hir.Instruction) Instruction { return &DeleteProperty{} },
	hir.BranchBool: func(h *hir.Instruction) Instruction {
		return &BranchBool{True: h.True, False: h.False}
	},
	hir.BinOpKind: func(h *hir.Instruction) Instruction { return &BinOp{Op: h.Op} },
	hir.Call: func(h *hir.Instruction) Instruction {
		return &Call{Args: make([]Operand, max(len(h.Args)-1, 0))}
	},
	hir.Typeof:         func(*hir.Instruction) Instruction { return &Typeof{} },
	hir.Sizeof:         func(*hir.Instruction) Instruction { return &Sizeof{} },
	hir.Keysof:         func(*hir.Instruction) Instruction { return &Keysof{} },
	hir.Not:            func(*hir.Instruction) Instruction { return &Not{} },
	hir.CloneObject:    func(*hir.Instruction) Instruction { return &CloneObject{} },
	hir.CollectGarbage: func(*hir.Instruction) Instruction { return &CollectGarbage{} },
	hir.GetStackTrace:  func(*hir.Instruction) Instruction { return &GetStackTrace{} },
	hir.AllocateObject: func(h *hir.Instruction) Instruction {
		tag := heap.TagObject
		if h.IsArray {
			tag = heap.TagArray
		}
		return &AllocateObject{Tag: tag, Capacity: h.Capacity}
	},
	hir.AllocateFunction: func(h *hir.Instruction) Instruction {
		return &AllocateFunction{Body: h.Body, Argc: h.Argc}
	},
}
