package lir

import (
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/engine"
)

// Lower turns the source graph into a low-level list in one forward pass:
// one instruction per source node, same order, same id. A kind without a
// lowering is an internal error.
func Lower(g *hir.Graph) *List {
	checkEntries(g)
	list := NewList()
	for h := g.FirstInstruction(); h != nil; h = h.Next() {
		ctor, ok := constructors[h.Kind()]
		if !ok {
			engine.Fatalf(engine.CategoryLowering, "no lowering for %s (i%d)", h.Kind(), h.ID())
		}
		instr := ctor(h)
		instr.base().init(h)
		list.Append(instr)
	}
	engine.Verbosef("lir: lowered %d instructions", list.Len())
	return list
}

// checkEntries makes sure an Entry starts exactly the blocks the graph
// sees as function entries, so regions can be split on Entry alone. The
// first block starts the main program and needs no Entry check of its
// predecessors.
func checkEntries(g *hir.Graph) {
	for _, b := range g.Blocks() {
		for i, h := range b.Instructions() {
			if h.Kind() != hir.Entry {
				continue
			}
			switch {
			case i != 0:
				engine.Fatalf(engine.CategoryLowering, "Entry i%d is not the first instruction of b%d", h.ID(), b.ID())
			case b != g.FirstBlock() && !b.IsFunctionEntry():
				engine.Fatalf(engine.CategoryLowering, "Entry i%d starts b%d, which has %d predecessors", h.ID(), b.ID(), b.PredecessorCount())
			}
		}
	}
}

// blockStart is the first instruction control reaches when entering b.
// Empty blocks fall through to the next one in layout order.
func blockStart(b *hir.Block) *hir.Instruction {
	for ; b != nil; b = b.Next() {
		if first := b.First(); first != nil {
			return first
		}
	}
	return nil
}

// target resolves a jump target block to an arena index
func (l *List) target(b *hir.Block) int {
	h := blockStart(b)
	if h == nil {
		engine.Fatalf(engine.CategoryLowering, "jump to b%d, which has no instructions after it", b.ID())
	}
	i, ok := l.Index(h.ID())
	if !ok {
		engine.Fatalf(engine.CategoryLowering, "jump target i%d was not lowered", h.ID())
	}
	return i
}
