package lir

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/internal/masm"
	"github.com/xyproto/lirjit/stubs"
)

// StubTable resolves the absolute address of an installed stub
type StubTable interface {
	Addr(k stubs.Kind) uintptr
}

// Region describes the code of one function
type Region struct {
	Start     int // arena index of the Entry
	Offset    int // code offset of the Entry, just past the trap marker
	Spills    int
	FrameSize int // bytes reserved for spill slots
}

// Options tune code generation
type Options struct {
	// SourceMap receives a code offset for every instruction with a source position
	SourceMap *heap.SourceMap
	// TrapEntry emits int3 in front of every region
	TrapEntry bool
}

// Generator walks allocated regions and emits their code into one buffer
type Generator struct {
	m       *masm.Masm
	list    *List
	stubs   StubTable
	opts    Options
	frame   masm.Frame
	regions []Region
}

// NewGenerator creates a generator writing into m. The assembler's Env must
// point at the installed stubs.
func NewGenerator(list *List, m *masm.Masm, st StubTable, opts Options) *Generator {
	return &Generator{m: m, list: list, stubs: st, opts: opts}
}

// Generate allocates and emits every region of the list, in list order
func Generate(list *List, m *masm.Masm, st StubTable, opts Options) []Region {
	g := NewGenerator(list, m, st, opts)
	for start := list.First(); start != nilIndex; {
		a := NewAllocator(list, start)
		g.Region(a.Region(), a.Run())
		start = a.End()
	}
	return g.regions
}

// Regions returns the regions emitted so far
func (g *Generator) Regions() []Region { return g.regions }

// Region emits one allocated region
func (g *Generator) Region(indices []int, spills int) Region {
	first := g.list.At(indices[0])
	if first.Kind() != KindEntry {
		engine.Fatalf(engine.CategoryCodegen, "region at i%d starts with %s, not Entry", first.ID(), first.Kind())
	}
	g.m.Stack().Reset()
	// Spill slots start right below the saved rbp
	g.m.SetSpillOffset(0)
	if g.opts.TrapEntry {
		g.m.Int3()
	}
	for _, i := range indices {
		instr := g.list.At(i)
		b := instr.base()
		g.m.Bind(b.label)
		if pos := b.hir.Pos; pos != 0 && g.opts.SourceMap != nil {
			g.opts.SourceMap.Push(g.m.Offset(), pos)
		}
		instr.emit(g)
	}
	r := Region{
		Start:     indices[0],
		Offset:    first.base().label.Pos(),
		Spills:    spills,
		FrameSize: g.m.FinalizeSpills(spills),
	}
	engine.Verbosef("lir: region i%d at %#x, frame %d bytes", first.ID(), r.Offset, r.FrameSize)
	g.regions = append(g.regions, r)
	return r
}

// load puts an operand into a register
func (g *Generator) load(dst masm.Reg, o Operand) {
	switch o.kind {
	case inRegister:
		if o.reg != dst {
			g.m.Mov(dst, o.reg)
		}
	case inSpill:
		g.m.Load(dst, g.m.SpillSlot(o.index))
	case inImmediate:
		g.m.MovValue(dst, o.word)
	default:
		engine.Fatalf(engine.CategoryCodegen, "load from an unassigned operand")
	}
}

// store writes a register to a register or spill operand
func (g *Generator) store(o Operand, src masm.Reg) {
	switch o.kind {
	case inRegister:
		if o.reg != src {
			g.m.Mov(o.reg, src)
		}
	case inSpill:
		g.m.Store(g.m.SpillSlot(o.index), src)
	default:
		engine.Fatalf(engine.CategoryCodegen, "store to %s", o)
	}
}

// move copies src to dst, going through the scratch register between slots
func (g *Generator) move(dst, src Operand) {
	if dst == src {
		return
	}
	if dst.IsRegister() {
		g.load(dst.reg, src)
		return
	}
	g.load(masm.Scratch, src)
	g.store(dst, masm.Scratch)
}

func (g *Generator) push(o Operand) {
	switch o.kind {
	case inRegister:
		g.m.Push(o.reg)
	case inSpill:
		g.m.PushMem(g.m.SpillSlot(o.index))
	case inImmediate:
		if engine.FitsInt32(int64(o.word)) {
			g.m.PushImm(int32(o.word))
			return
		}
		g.m.MovValue(masm.Scratch, o.word)
		g.m.Push(masm.Scratch)
	default:
		engine.Fatalf(engine.CategoryCodegen, "push of an unassigned operand")
	}
}

func (g *Generator) pop(o Operand) {
	switch o.kind {
	case inRegister:
		g.m.Pop(o.reg)
	case inSpill:
		g.m.PopMem(g.m.SpillSlot(o.index))
	default:
		engine.Fatalf(engine.CategoryCodegen, "pop into %s", o)
	}
}

func (g *Generator) callStub(k stubs.Kind) {
	g.m.Call(masm.AddrTarget(g.stubs.Addr(k)))
}

// label returns the code label of the first instruction of a block
func (g *Generator) label(i int) *masm.Label {
	return g.list.At(i).base().label
}
