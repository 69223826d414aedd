package heap

import (
	"github.com/xyproto/lirjit/internal/engine"
)

// Space is a bump-pointer allocation space. Its current page's top and
// limit live in the heap's control block so generated code can bump them
// without calling into the runtime.
type Space struct {
	heap      *Heap
	pages     []*Region
	topAddr   uintptr
	limitAddr uintptr
}

// Top is the address the next allocation starts at
func (s *Space) Top() uintptr { return uintptr(s.heap.control.Word(s.topAddr)) }

// Limit is the end of the current page
func (s *Space) Limit() uintptr { return uintptr(s.heap.control.Word(s.limitAddr)) }

// TopAddress is the address of the control word holding Top
func (s *Space) TopAddress() uintptr { return s.topAddr }

// LimitAddress is the address of the control word holding Limit
func (s *Space) LimitAddress() uintptr { return s.limitAddr }

// SetTop moves the allocation pointer. Only the bump path calls it, and
// only after checking the new top against the limit.
func (s *Space) SetTop(top uintptr) { s.heap.control.SetWord(s.topAddr, uint64(top)) }

// Pages returns the pages owned by the space, oldest first
func (s *Space) Pages() []*Region { return s.pages }

// Allocate is the general-purpose allocator behind the bump fast path.
// It rounds bytes up to the object alignment, opens a new page when the
// current one cannot hold the request and requests a collection once the
// heap's threshold is crossed.
func (s *Space) Allocate(bytes int) uintptr {
	if bytes <= 0 {
		engine.Fatalf(engine.CategoryRuntime, "allocation of %d bytes", bytes)
	}
	bytes = engine.AlignUp(bytes, PointerSize)
	top, limit := s.Top(), s.Limit()
	if top == 0 || top+uintptr(bytes) < top || top+uintptr(bytes) > limit {
		s.addPage(bytes)
		top = s.Top()
	}
	s.SetTop(top + uintptr(bytes))

	s.heap.allocated += bytes
	if s.heap.allocated >= s.heap.gcThreshold {
		s.heap.RequestGC()
	}
	return top
}

func (s *Space) addPage(minBytes int) {
	size := s.heap.pageSize
	if minBytes > size {
		size = engine.AlignUp(minBytes, s.heap.pageSize)
	}
	page, err := NewRegion(size)
	if err != nil {
		engine.Fatalf(engine.CategoryRuntime, "new space page: %v", err)
	}
	s.pages = append(s.pages, page)
	s.heap.regions = append(s.heap.regions, page)
	s.heap.control.SetWord(s.topAddr, uint64(page.Base()))
	s.heap.control.SetWord(s.limitAddr, uint64(page.End()))
	engine.Verbosef("heap: new page %#x-%#x (%d bytes)", page.Base(), page.End(), size)
}
