package lir

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/stubs"
)

// Per-kind emission. rax, rsi and r11 are free between instructions;
// every other register not named by an operand may hold a live value.

func (*Nop) emit(*Generator) {}

func (i *Entry) emit(g *Generator) {
	g.frame = g.m.Prologue()
	g.m.AllocateSpills()
}

func (i *Return) emit(g *Generator) {
	g.load(masm.RAX, i.Input(0))
	g.m.Epilogue(g.frame, 0)
}

func (i *Goto) emit(g *Generator) {
	g.m.Jmp(g.label(g.list.target(i.Target)))
}

func (i *StoreLocal) emit(g *Generator) {
	g.move(i.Result(0), i.Input(0))
}

// walkContext loads the context depth parent links up into a register
func (g *Generator) walkContext(scratch Operand, depth int) masm.Reg {
	r := masm.Scratch
	if scratch.IsRegister() {
		r = scratch.Reg()
	}
	g.m.Mov(r, masm.Context)
	for d := 0; d < depth; d++ {
		g.m.Load(r, masm.At(r, heap.ContextParentOffset))
	}
	return r
}

func (i *StoreContext) emit(g *Generator) {
	ctx := g.walkContext(i.Scratch(0), i.Depth)
	v := i.Input(0)
	src := masm.RAX
	if v.IsRegister() {
		src = v.Reg()
	} else {
		g.load(src, v)
	}
	g.m.Store(masm.ContextSlot(ctx, i.Index), src)
}

func (i *LoadContext) emit(g *Generator) {
	ctx := g.walkContext(i.Scratch(0), i.Depth)
	res := i.Result(0)
	if res.IsRegister() {
		g.m.Load(res.Reg(), masm.ContextSlot(ctx, i.Index))
		return
	}
	g.m.Load(masm.RAX, masm.ContextSlot(ctx, i.Index))
	g.store(res, masm.RAX)
}

func (i *LoadRoot) emit(g *Generator) {
	g.store(i.Result(0), masm.Root)
}

// lookup marshals object and key and calls the lookup stub, leaving the
// value slot address (or zero) in rax
func (g *Generator) lookup(obj, key Operand, insert bool) {
	g.load(masm.RAX, obj)
	g.load(masm.RBX, key)
	if insert {
		g.m.MovImm(masm.RCX, 1)
	} else {
		g.m.Xor(masm.RCX, masm.RCX)
	}
	g.callStub(stubs.LookupProperty)
}

func (i *LoadProperty) emit(g *Generator) {
	g.lookup(i.Input(0), i.Input(1), false)
	absent := masm.NewLabel()
	g.m.Test(masm.RAX, masm.RAX)
	g.m.J(masm.Zero, absent)
	g.m.Load(masm.RAX, masm.At(masm.RAX, 0))
	g.m.Bind(absent)
	g.store(i.Result(0), masm.RAX)
}

func (i *StoreProperty) emit(g *Generator) {
	// The value may sit in a register the marshalling overwrites
	g.push(i.Input(2))
	g.lookup(i.Input(0), i.Input(1), true)
	g.m.Pop(masm.Scratch)
	skip := masm.NewLabel()
	g.m.Test(masm.RAX, masm.RAX)
	g.m.J(masm.Zero, skip)
	g.m.Store(masm.At(masm.RAX, 0), masm.Scratch)
	g.m.Bind(skip)
}

func (i *DeleteProperty) emit(g *Generator) {
	g.load(masm.RAX, i.Input(0))
	g.load(masm.RBX, i.Input(1))
	g.callStub(stubs.DeleteProperty)
}

func (i *BranchBool) emit(g *Generator) {
	g.load(masm.RAX, i.Input(0))
	g.callStub(stubs.CoerceToBoolean)
	g.m.CmpMem(masm.RAX, masm.RootSlot(heap.RootFalseIndex))
	g.m.J(masm.Equal, g.label(g.list.target(i.False)))
	g.m.Jmp(g.label(g.list.target(i.True)))
}

func (i *BinOp) emit(g *Generator) {
	g.load(masm.RAX, i.Input(0))
	g.load(masm.RBX, i.Input(1))
	g.callStub(stubs.BinOpStub(i.Op))
	g.store(i.Result(0), masm.RAX)
}

func (i *Call) emit(g *Generator) {
	g.m.Push(masm.Context)
	g.m.Push(masm.Root)
	n := len(i.Args)
	pad := n%2 == 1
	if pad {
		g.m.SubImm(masm.RSP, 8)
	}
	for a := n - 1; a >= 0; a-- {
		g.push(i.Args[a])
	}
	g.load(masm.RAX, i.Input(0))
	g.m.MovValue(masm.RSI, heap.SmallInt(int64(n)))
	g.m.CallFunction(masm.RAX)
	if unwind := n * 8; pad {
		g.m.AddImm(masm.RSP, int32(unwind+8))
	} else if unwind > 0 {
		g.m.AddImm(masm.RSP, int32(unwind))
	}
	g.m.Pop(masm.Root)
	g.m.Pop(masm.Context)
	g.store(i.Result(0), masm.RAX)
}

// unary marshals the input into rax, calls a stub and stores rax
func (g *Generator) unary(k stubs.Kind, in, res Operand) {
	g.load(masm.RAX, in)
	g.callStub(k)
	g.store(res, masm.RAX)
}

func (i *Typeof) emit(g *Generator)      { g.unary(stubs.Typeof, i.Input(0), i.Result(0)) }
func (i *Sizeof) emit(g *Generator)      { g.unary(stubs.Sizeof, i.Input(0), i.Result(0)) }
func (i *Keysof) emit(g *Generator)      { g.unary(stubs.Keysof, i.Input(0), i.Result(0)) }
func (i *CloneObject) emit(g *Generator) { g.unary(stubs.CloneObject, i.Input(0), i.Result(0)) }

func (i *Not) emit(g *Generator) {
	g.load(masm.RAX, i.Input(0))
	g.callStub(stubs.CoerceToBoolean)
	isTrue, done := masm.NewLabel(), masm.NewLabel()
	g.m.CmpMem(masm.RAX, masm.RootSlot(heap.RootTrueIndex))
	g.m.J(masm.Equal, isTrue)
	g.m.Load(masm.RAX, masm.RootSlot(heap.RootTrueIndex))
	g.m.Jmp(done)
	g.m.Bind(isTrue)
	g.m.Load(masm.RAX, masm.RootSlot(heap.RootFalseIndex))
	g.m.Bind(done)
	g.store(i.Result(0), masm.RAX)
}

func (*CollectGarbage) emit(g *Generator) {
	g.callStub(stubs.CollectGarbage)
}

func (i *GetStackTrace) emit(g *Generator) {
	g.m.LeaRIP(masm.RAX, 0)
	g.callStub(stubs.StackTrace)
	g.store(i.Result(0), masm.RAX)
}

func (i *AllocateObject) emit(g *Generator) {
	capacity := i.Capacity
	if capacity <= 0 {
		capacity = heap.DefaultObjectCapacity
	}
	g.m.MovValue(masm.RCX, heap.SmallInt(int64(engine.PowerOfTwo(capacity))))
	g.m.AllocateObjectLiteral(i.Tag, masm.RCX, masm.RAX)
	g.store(i.Result(0), masm.RAX)
}

func (i *AllocateFunction) emit(g *Generator) {
	body := g.list.target(i.Body)
	if g.list.At(body).Kind() != KindEntry {
		engine.Fatalf(engine.CategoryCodegen, "function body b%d does not start with Entry", i.Body.ID())
	}
	g.m.Allocate(heap.TagFunction, masm.NoReg, heap.FunctionSize, masm.RAX)
	g.m.Store(masm.At(masm.RAX, heap.FunctionParentOffset), masm.Context)
	g.m.MovLabelAddress(masm.Scratch, g.label(body))
	g.m.Store(masm.At(masm.RAX, heap.FunctionCodeOffset), masm.Scratch)
	g.m.Store(masm.At(masm.RAX, heap.FunctionRootOffset), masm.Root)
	g.m.MovImm(masm.Scratch, int64(i.Argc))
	g.m.Store(masm.At(masm.RAX, heap.FunctionArgcOffset), masm.Scratch)
	g.store(i.Result(0), masm.RAX)
}

func (i *ParallelMove) emit(g *Generator) {
	for _, mv := range i.Moves {
		g.push(mv.From)
	}
	for n := len(i.Moves) - 1; n >= 0; n-- {
		g.pop(i.Moves[n].To)
	}
}
