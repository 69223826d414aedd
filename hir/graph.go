package hir

import (
	"fmt"
	"strings"

	"github.com/xyproto/lirjit/heap"
)

// Value is an instruction argument: either an instruction's result or a
// constant
type Value interface {
	isValue()
	String() string
}

// Const is a tagged constant known at compile time
type Const struct {
	V heap.Value
}

func (Const) isValue() {}

func (c Const) String() string { return "#" + c.V.String() }

// Int is a small integer constant
func Int(n int64) Const { return Const{V: heap.SmallInt(n)} }

// NilConst is the nil constant
var NilConst = Const{V: heap.Nil}

// Move is one assignment of a parallel move
type Move struct {
	To   *Instruction
	From Value
}

// Instruction is one source node
type Instruction struct {
	id    int
	kind  Kind
	block *Block
	next  *Instruction

	Args []Value
	Pos  heap.SourcePosition

	Op       BinOp  // BinOpKind
	Depth    int    // StoreContext, LoadContext: parent links to follow
	Index    int    // StoreContext, LoadContext: slot
	Capacity int    // AllocateObject
	IsArray  bool   // AllocateObject
	Body     *Block // AllocateFunction
	Argc     int    // AllocateFunction
	Target   *Block // Goto
	True     *Block // BranchBool
	False    *Block // BranchBool
	Moves    []Move // ParallelMove
}

func (*Instruction) isValue() {}

// ID is the instruction's identifier, assigned in creation order
func (i *Instruction) ID() int { return i.id }

// Kind returns the instruction kind
func (i *Instruction) Kind() Kind { return i.kind }

// Block returns the block holding the instruction
func (i *Instruction) Block() *Block { return i.block }

// Next returns the following instruction in graph order
func (i *Instruction) Next() *Instruction { return i.next }

func (i *Instruction) String() string { return fmt.Sprintf("i%d", i.id) }

// Describe renders the instruction with its arguments and payload
func (i *Instruction) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "i%d = %s", i.id, i.kind)
	if i.kind == BinOpKind {
		fmt.Fprintf(&sb, "(%s)", i.Op)
	}
	for _, a := range i.Args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	switch i.kind {
	case StoreContext, LoadContext:
		fmt.Fprintf(&sb, " [%d:%d]", i.Depth, i.Index)
	case Goto:
		fmt.Fprintf(&sb, " -> b%d", i.Target.id)
	case BranchBool:
		fmt.Fprintf(&sb, " ? b%d : b%d", i.True.id, i.False.id)
	case AllocateFunction:
		fmt.Fprintf(&sb, " b%d/%d", i.Body.id, i.Argc)
	case AllocateObject:
		fmt.Fprintf(&sb, " cap=%d array=%v", i.Capacity, i.IsArray)
	case ParallelMove:
		for _, mv := range i.Moves {
			fmt.Fprintf(&sb, " %s<-%s", mv.To, mv.From)
		}
	}
	return sb.String()
}

// Block is a basic block
type Block struct {
	id    int
	graph *Graph
	instr []*Instruction
	next  *Block
	preds []*Block
	succs []*Block
}

// ID returns the block's identifier
func (b *Block) ID() int { return b.id }

// Next is the following block in layout order
func (b *Block) Next() *Block { return b.next }

// PredecessorCount is the number of blocks jumping or falling into b
func (b *Block) PredecessorCount() int { return len(b.preds) }

// Successors returns the blocks b branches to
func (b *Block) Successors() []*Block { return b.succs }

// Instructions returns the block's instructions in order
func (b *Block) Instructions() []*Instruction { return b.instr }

// First returns the first instruction, nil for an empty block
func (b *Block) First() *Instruction {
	if len(b.instr) == 0 {
		return nil
	}
	return b.instr[0]
}

// Last returns the last instruction, nil for an empty block
func (b *Block) Last() *Instruction {
	if len(b.instr) == 0 {
		return nil
	}
	return b.instr[len(b.instr)-1]
}

// IsFunctionEntry reports whether b starts a function: it has no
// predecessors and is not the first block
func (b *Block) IsFunctionEntry() bool {
	return b.PredecessorCount() == 0 && b != b.graph.first
}

// Graph is an ordered set of blocks
type Graph struct {
	first  *Block
	last   *Block
	blocks []*Block
	nextID int
}

// New creates an empty graph
func New() *Graph { return &Graph{} }

// NewBlock appends a block to the layout chain
func (g *Graph) NewBlock() *Block {
	b := &Block{id: len(g.blocks), graph: g}
	if g.last == nil {
		g.first = b
	} else {
		g.last.next = b
	}
	g.last = b
	g.blocks = append(g.blocks, b)
	return b
}

// FirstBlock returns the first block in layout order
func (g *Graph) FirstBlock() *Block { return g.first }

// Blocks returns all blocks in layout order
func (g *Graph) Blocks() []*Block { return g.blocks }

// FirstInstruction links all instructions in block order and returns the first
func (g *Graph) FirstInstruction() *Instruction {
	var first, prev *Instruction
	for b := g.first; b != nil; b = b.next {
		for _, i := range b.instr {
			if prev == nil {
				first = i
			} else {
				prev.next = i
			}
			prev = i
		}
	}
	if prev != nil {
		prev.next = nil
	}
	return first
}

// Len is the number of instructions created
func (g *Graph) Len() int { return g.nextID }

func (g *Graph) String() string {
	var sb strings.Builder
	for b := g.first; b != nil; b = b.next {
		fmt.Fprintf(&sb, "b%d (preds %d):\n", b.id, len(b.preds))
		for _, i := range b.instr {
			sb.WriteString("  ")
			sb.WriteString(i.Describe())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (b *Block) addEdge(to *Block) {
	b.succs = append(b.succs, to)
	to.preds = append(to.preds, b)
}
