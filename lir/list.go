package lir

import "github.com/xyproto/lirjit/internal/engine"

// nilIndex marks a missing arena index
const nilIndex = -1

// List is the arena of low-level instructions. Instructions are addressed
// by index and chained through prev/next indices, so splicing never moves
// an instruction.
type List struct {
	instrs []Instruction
	first  int
	last   int
	byID   map[int]int
}

// NewList creates an empty list
func NewList() *List {
	return &List{first: nilIndex, last: nilIndex, byID: make(map[int]int)}
}

// Len is the number of instructions in the arena
func (l *List) Len() int { return len(l.instrs) }

// At returns the instruction stored at index i
func (l *List) At(i int) Instruction { return l.instrs[i] }

// First is the index of the first instruction in list order, -1 when empty
func (l *List) First() int { return l.first }

// Next is the index following i in list order, -1 at the end
func (l *List) Next(i int) int { return l.instrs[i].base().next }

// Prev is the index preceding i in list order, -1 at the start
func (l *List) Prev(i int) int { return l.instrs[i].base().prev }

// Index returns the arena index of the instruction lowered from source node id
func (l *List) Index(id int) (int, bool) {
	i, ok := l.byID[id]
	return i, ok
}

func (l *List) add(instr Instruction) int {
	b := instr.base()
	if _, dup := l.byID[b.id]; dup {
		engine.Fatalf(engine.CategoryLowering, "instruction i%d lowered twice", b.id)
	}
	i := len(l.instrs)
	l.instrs = append(l.instrs, instr)
	l.byID[b.id] = i
	return i
}

// Append adds an instruction at the end of the list
func (l *List) Append(instr Instruction) int {
	i := l.add(instr)
	b := instr.base()
	b.prev, b.next = l.last, nilIndex
	if l.last == nilIndex {
		l.first = i
	} else {
		l.instrs[l.last].base().next = i
	}
	l.last = i
	return i
}

// InsertAfter splices an instruction in after index at
func (l *List) InsertAfter(at int, instr Instruction) int {
	i := l.add(instr)
	b := instr.base()
	after := l.instrs[at].base()
	b.prev, b.next = at, after.next
	if after.next == nilIndex {
		l.last = i
	} else {
		l.instrs[after.next].base().prev = i
	}
	after.next = i
	return i
}

// Each calls fn for every instruction in list order
func (l *List) Each(fn func(i int, instr Instruction)) {
	for i := l.first; i != nilIndex; i = l.Next(i) {
		fn(i, l.instrs[i])
	}
}
