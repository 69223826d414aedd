package lir

import (
	"slices"

	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/internal/masm"
)

// liveRange is the span of region positions a value must survive
type liveRange struct {
	id       int
	start    int
	end      int
	spill    bool // spans a call-like instruction
	location Operand
}

// Allocator assigns registers and spill slots to the values of one
// function region. It is discarded after the region is generated.
type Allocator struct {
	list   *List
	region []int       // arena indices in list order
	pos    map[int]int // value id -> defining position

	ranges map[int]*liveRange
	order  []*liveRange

	freeRegs  []masm.Reg
	freeSlots []int
	slots     int
}

// NewAllocator prepares allocation of the region starting at arena index
// start and running up to the next Entry
func NewAllocator(list *List, start int) *Allocator {
	a := &Allocator{
		list:   list,
		pos:    make(map[int]int),
		ranges: make(map[int]*liveRange),
	}
	for i := start; i != nilIndex; i = list.Next(i) {
		if i != start && list.At(i).Kind() == KindEntry {
			break
		}
		a.pos[list.At(i).ID()] = len(a.region)
		a.region = append(a.region, i)
	}
	// Popped from the end, so rbx is handed out first
	a.freeRegs = slices.Clone(masm.Allocatable)
	slices.Reverse(a.freeRegs)
	return a
}

// Region returns the arena indices of the region in list order
func (a *Allocator) Region() []int { return a.region }

// End is the arena index of the first instruction after the region, -1 if none
func (a *Allocator) End() int {
	return a.list.Next(a.region[len(a.region)-1])
}

// SpillCount is the number of spill slots the region needs
func (a *Allocator) SpillCount() int { return a.slots }

// Run computes live ranges, assigns a location to every value and writes
// the operands of every instruction in the region. It returns the spill count.
func (a *Allocator) Run() int {
	a.buildRanges()
	a.extendLoops()
	a.markCalls()
	a.assign()
	a.rewrite()
	engine.Verbosef("lir: region at i%d: %d values, %d spill slots",
		a.list.At(a.region[0]).ID(), len(a.order), a.slots)
	return a.slots
}

func (a *Allocator) touch(id, p int) {
	r, ok := a.ranges[id]
	if !ok {
		r = &liveRange{id: id, start: p, end: p}
		a.ranges[id] = r
		a.order = append(a.order, r)
		return
	}
	r.start = min(r.start, p)
	r.end = max(r.end, p)
}

func (a *Allocator) use(v hir.Value, p int) {
	h, ok := v.(*hir.Instruction)
	if !ok {
		return
	}
	if _, inRegion := a.pos[h.ID()]; !inRegion {
		engine.Fatalf(engine.CategoryAllocation, "i%d is used outside its function region", h.ID())
	}
	if i, _ := a.list.Index(h.ID()); a.list.At(i).NumResults() == 0 {
		engine.Fatalf(engine.CategoryAllocation, "%s i%d has no value to use", h.Kind(), h.ID())
	}
	a.touch(h.ID(), p)
}

func (a *Allocator) buildRanges() {
	for p, i := range a.region {
		instr := a.list.At(i)
		h := instr.HIR()
		if instr.NumResults() > 0 {
			a.touch(instr.ID(), p)
		}
		for _, arg := range h.Args {
			a.use(arg, p)
		}
		for _, mv := range h.Moves {
			if mv.To == nil {
				engine.Fatalf(engine.CategoryAllocation, "parallel move i%d has no destination", h.ID())
			}
			a.use(mv.To, p)
			a.use(mv.From, p)
		}
	}
}

// backEdges lists (from, to) position pairs of jumps to an earlier position
func (a *Allocator) backEdges() [][2]int {
	var edges [][2]int
	add := func(from int, b *hir.Block) {
		to, ok := a.pos[a.list.At(a.list.target(b)).ID()]
		if !ok {
			engine.Fatalf(engine.CategoryAllocation, "jump from position %d leaves the function region", from)
		}
		if to <= from {
			edges = append(edges, [2]int{from, to})
		}
	}
	for p, i := range a.region {
		switch instr := a.list.At(i).(type) {
		case *Goto:
			add(p, instr.Target)
		case *BranchBool:
			add(p, instr.True)
			add(p, instr.False)
		}
	}
	return edges
}

// extendLoops keeps values that are live at a loop header alive until the
// jump back to it, repeating until nested loops settle
func (a *Allocator) extendLoops() {
	edges := a.backEdges()
	for changed := true; changed; {
		changed = false
		for _, e := range edges {
			from, to := e[0], e[1]
			for _, r := range a.order {
				if r.start < to && r.end >= to && r.end < from {
					r.end = from
					changed = true
				}
			}
		}
	}
}

func (a *Allocator) markCalls() {
	var calls []int
	for p, i := range a.region {
		if a.list.At(i).Kind().CallLike() {
			calls = append(calls, p)
		}
	}
	for _, r := range a.order {
		for _, c := range calls {
			if r.start < c && c < r.end {
				r.spill = true
				break
			}
		}
	}
}

func (a *Allocator) takeSlot() int {
	if n := len(a.freeSlots); n > 0 {
		slot := a.freeSlots[n-1]
		a.freeSlots = a.freeSlots[:n-1]
		return slot
	}
	slot := a.slots
	a.slots++
	return slot
}

func (a *Allocator) take(spill bool) Operand {
	if n := len(a.freeRegs); !spill && n > 0 {
		r := a.freeRegs[n-1]
		a.freeRegs = a.freeRegs[:n-1]
		return Register(r)
	}
	return Spill(a.takeSlot())
}

func (a *Allocator) release(o Operand) {
	switch {
	case o.IsRegister():
		a.freeRegs = append(a.freeRegs, o.Reg())
	case o.IsSpill():
		a.freeSlots = append(a.freeSlots, o.SpillIndex())
	}
}

// assign sweeps the region once. A location is released only after the
// last position using it, so inputs and results of one instruction never
// share a location.
func (a *Allocator) assign() {
	byStart := slices.Clone(a.order)
	slices.SortStableFunc(byStart, func(x, y *liveRange) int { return x.start - y.start })

	var active []*liveRange
	next := 0
	for p, i := range a.region {
		kept := active[:0]
		for _, r := range active {
			if r.end < p {
				a.release(r.location)
			} else {
				kept = append(kept, r)
			}
		}
		active = kept

		for ; next < len(byStart) && byStart[next].start == p; next++ {
			r := byStart[next]
			r.location = a.take(r.spill)
			active = append(active, r)
		}

		// Scratches live only at p
		instr := a.list.At(i)
		var scratches []Operand
		for s := 0; s < instr.NumScratches(); s++ {
			o := a.take(false)
			instr.SetScratch(s, o)
			scratches = append(scratches, o)
		}
		for _, o := range scratches {
			a.release(o)
		}
	}
}

func (a *Allocator) operand(v hir.Value) Operand {
	switch v := v.(type) {
	case hir.Const:
		return Immediate(v.V)
	case *hir.Instruction:
		r, ok := a.ranges[v.ID()]
		if !ok {
			engine.Fatalf(engine.CategoryAllocation, "i%d has no location", v.ID())
		}
		return r.location
	}
	engine.Fatalf(engine.CategoryAllocation, "unknown value %v", v)
	return Operand{}
}

// rewrite stores the assigned locations into every instruction's operands
func (a *Allocator) rewrite() {
	for _, i := range a.region {
		instr := a.list.At(i)
		h := instr.HIR()
		if len(h.Args) < instr.NumInputs() {
			engine.Fatalf(engine.CategoryAllocation, "%s i%d has %d arguments, needs %d",
				instr.Kind(), h.ID(), len(h.Args), instr.NumInputs())
		}
		for n := 0; n < instr.NumInputs(); n++ {
			instr.SetInput(n, a.operand(h.Args[n]))
		}
		if instr.NumResults() > 0 {
			instr.SetResult(0, a.ranges[instr.ID()].location)
		}
		switch instr := instr.(type) {
		case *Call:
			for n, arg := range h.Args[1:] {
				instr.Args[n] = a.operand(arg)
			}
		case *ParallelMove:
			for n, mv := range h.Moves {
				instr.Moves[n] = MoveOperands{To: a.operand(mv.To), From: a.operand(mv.From)}
			}
		}
	}
}
