package heap

import "sort"

// SourcePosition is an offset into the source text
type SourcePosition int

// SourceMapEntry ties a code address to the source position it came from
type SourceMapEntry struct {
	Addr uintptr
	Pos  SourcePosition
}

// SourceMap records code offsets while code is generated and turns them
// into absolute addresses once the code is placed.
type SourceMap struct {
	pending   []SourceMapEntry
	committed []SourceMapEntry
	sorted    bool
}

// Push records that code at offset came from pos. Offsets are relative to
// the start of the code buffer until Commit.
func (s *SourceMap) Push(offset int, pos SourcePosition) {
	s.pending = append(s.pending, SourceMapEntry{Addr: uintptr(offset), Pos: pos})
}

// Pending returns the entries recorded since the last Commit
func (s *SourceMap) Pending() []SourceMapEntry { return s.pending }

// Commit rebases pending entries onto base and makes them searchable
func (s *SourceMap) Commit(base uintptr) {
	for _, e := range s.pending {
		s.committed = append(s.committed, SourceMapEntry{Addr: base + e.Addr, Pos: e.Pos})
	}
	s.pending = s.pending[:0]
	s.sorted = false
}

// Discard drops pending entries of code that was never placed
func (s *SourceMap) Discard() { s.pending = s.pending[:0] }

// Lookup returns the position of the closest entry at or before addr
func (s *SourceMap) Lookup(addr uintptr) (SourcePosition, bool) {
	if !s.sorted {
		sort.SliceStable(s.committed, func(i, j int) bool { return s.committed[i].Addr < s.committed[j].Addr })
		s.sorted = true
	}
	i := sort.Search(len(s.committed), func(i int) bool { return s.committed[i].Addr > addr })
	if i == 0 {
		return 0, false
	}
	return s.committed[i-1].Pos, true
}
